package debian

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/djcass44/rules-deb/pkg/archiveutil"
	"github.com/djcass44/rules-deb/pkg/packages"
	"github.com/go-logr/logr"
)

var (
	ErrMissingData    = errors.New("package is missing a data archive")
	ErrMissingControl = errors.New("package is missing a control archive")
)

func NewPackageKeeper() *PackageKeeper {
	return &PackageKeeper{}
}

// Unpack extracts the filesystem of a .deb into dst and returns
// the contents of its control file.
func (p *PackageKeeper) Unpack(ctx context.Context, pkg, dst string) (*packages.Contents, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", pkg, "dst", dst)
	log.Info("unpacking deb")

	// first we need to unpack the deb file using
	// the equivalent of 'ar -x'
	f, err := os.Open(pkg)
	if err != nil {
		log.Error(err, "failed to open file")
		return nil, err
	}
	defer f.Close()

	tmp, err := os.MkdirTemp("", "deb-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	if err := archiveutil.Unar(ctx, f, tmp); err != nil {
		return nil, fmt.Errorf("reading ar archive: %w", err)
	}

	dataPath, err := member(tmp, memberData)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingData, pkg)
	}
	controlPath, err := member(tmp, memberControl)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingControl, pkg)
	}

	// then we need to unpack the 'data.tar.X' file
	// that contains the filesystem
	if err := os.MkdirAll(dst, 0755); err != nil {
		return nil, err
	}
	if err := p.unpackData(ctx, dataPath, dst); err != nil {
		return nil, err
	}

	control, err := p.readControl(ctx, controlPath)
	if err != nil {
		return nil, err
	}

	return &packages.Contents{
		Control:     string(control),
		DataArchive: filepath.Base(dataPath),
	}, nil
}

// member finds an ar member by its name, ignoring
// the compression suffix.
func member(dir, name string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, name+"*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", os.ErrNotExist
	}
	return matches[0], nil
}

func (*PackageKeeper) unpackData(ctx context.Context, path, dst string) error {
	log := logr.FromContextOrDiscard(ctx)
	log.V(1).Info("unpacking data archive", "archive", filepath.Base(path))
	f, err := os.Open(path)
	if err != nil {
		log.Error(err, "failed to open data archive")
		return err
	}
	defer f.Close()

	r, err := archiveutil.Decompress(path, f)
	if err != nil {
		return err
	}
	defer r.Close()
	return archiveutil.Untar(ctx, r, dst)
}

func (*PackageKeeper) readControl(ctx context.Context, path string) ([]byte, error) {
	log := logr.FromContextOrDiscard(ctx)
	log.V(1).Info("reading control archive", "archive", filepath.Base(path))
	f, err := os.Open(path)
	if err != nil {
		log.Error(err, "failed to open control archive")
		return nil, err
	}
	defer f.Close()

	r, err := archiveutil.Decompress(path, f)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return archiveutil.ExtractFile(ctx, r, fileControl)
}
