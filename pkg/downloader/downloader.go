package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/djcass44/rules-deb/pkg/lockfile"
	"github.com/go-logr/logr"
	"github.com/hashicorp/go-getter"
)

var ErrChecksum = errors.New("checksum mismatch")

// WithProgress renders a progress bar for each download.
func WithProgress() Option {
	return func(d *Downloader) {
		d.progress = &progressTracker{}
	}
}

func NewDownloader(cacheDir string, opts ...Option) (*Downloader, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}
	d := &Downloader{cacheDir: cacheDir}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Download fetches src into the cache and verifies that its SHA256
// digest matches. Files are stored by digest so that a package that
// is already in the cache is never downloaded twice.
func (d *Downloader) Download(ctx context.Context, src, sha256 string) (string, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src, "sha256", sha256)

	if sha256 == "" {
		return "", fmt.Errorf("refusing to download %s without a checksum", src)
	}

	dst := filepath.Join(d.cacheDir, sha256+".deb")
	if ok, err := verify(dst, sha256); err == nil && ok {
		log.V(1).Info("using cached file", "dst", dst)
		return dst, nil
	}

	uri, err := url.Parse(src)
	if err != nil {
		log.Error(err, "failed to parse url")
		return "", err
	}
	// let go-getter verify the download
	// before it lands in the cache
	q := uri.Query()
	q.Set("checksum", "sha256:"+sha256)
	uri.RawQuery = q.Encode()

	log.Info("downloading file")
	log.V(1).Info("preparing to download file", "dst", dst)

	client := &getter.Client{
		Ctx:              ctx,
		Src:              uri.String(),
		Dst:              dst,
		Mode:             getter.ClientModeFile,
		DisableSymlinks:  true,
		ProgressListener: d.progress,
	}
	if err := client.Get(); err != nil {
		log.Error(err, "failed to download file")
		_ = os.Remove(dst)
		return "", err
	}
	// go-getter skips the checksum when the
	// source is a local file
	ok, err := verify(dst, sha256)
	if err != nil {
		return "", err
	}
	if !ok {
		_ = os.Remove(dst)
		return "", fmt.Errorf("%w: %s", ErrChecksum, src)
	}
	// we need to chmod the files so that the root group
	// can access them as if they were the owner
	if err := os.Chmod(dst, 0664); err != nil {
		log.Error(err, "failed to update file permissions", "file", dst)
		return "", err
	}

	return dst, nil
}

func verify(path, sha256 string) (bool, error) {
	digest, err := lockfile.Sha256(path)
	if err != nil {
		return false, err
	}
	return digest == sha256, nil
}
