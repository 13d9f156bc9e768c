package archiveutil

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/ulikunitz/xz"
)

var (
	ErrNotFound    = errors.New("file not found in archive")
	ErrIllegalPath = errors.New("illegal file path in archive")
)

// Decompress returns a reader that decodes r based on the
// extension of name.
func Decompress(name string, r io.Reader) (io.ReadCloser, error) {
	switch filepath.Ext(name) {
	case ".gz":
		return pgzip.NewReader(r)
	case ".xz":
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xzr), nil
	case ".zst":
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case ".tar":
		return io.NopCloser(r), nil
	default:
		return nil, fmt.Errorf("unsupported compression: %s", name)
	}
}

// Untar expands a tar archive into the given path. Entries may not
// be written through a symlink that resolves outside of path.
func Untar(ctx context.Context, r io.Reader, path string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}
	root, err := filepath.EvalSymlinks(path)
	if err != nil {
		return err
	}
	tr := tar.NewReader(r)

	for {
		header, err := tr.Next()
		switch {
		case err == io.EOF:
			return nil
		case err != nil:
			log.Error(err, "failed to read file from archive")
			return err
		case header == nil:
			continue
		}

		target, err := SecureJoin(path, header.Name)
		if err != nil {
			return err
		}
		if err := checkParents(root, path, target); err != nil {
			log.Error(err, "refusing to extract file", "target", target)
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			log.V(5).Info("creating directory", "target", target)
			if err := os.MkdirAll(target, 0755); err != nil {
				log.Error(err, "failed to create directory", "target", target)
				return err
			}
		case tar.TypeReg:
			log.V(5).Info("creating file", "target", target, "mode", header.Mode)
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			// replace rather than follow an existing symlink
			if isSymlink(target) {
				_ = os.Remove(target)
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode).Perm())
			if err != nil {
				log.Error(err, "failed to open file", "target", target)
				return err
			}

			if _, err := io.Copy(f, tr); err != nil {
				log.Error(err, "failed to extract file", "target", target)
				_ = f.Close()
				return err
			}
			_ = f.Close()
		case tar.TypeSymlink:
			log.V(5).Info("creating symlink", "target", target, "link", header.Linkname)
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				log.Error(err, "failed to create symlink", "target", target)
				return err
			}
		case tar.TypeLink:
			source, err := SecureJoin(path, header.Linkname)
			if err != nil {
				return err
			}
			if err := checkParents(root, path, source); err != nil {
				log.Error(err, "refusing to create hardlink", "target", target, "link", source)
				return err
			}
			log.V(5).Info("creating hardlink", "target", target, "link", source)
			_ = os.Remove(target)
			if err := os.Link(source, target); err != nil {
				log.Error(err, "failed to create hardlink", "target", target)
				return err
			}
		default:
			log.V(6).Info("skipping unsupported file type", "target", target, "type", header.Typeflag)
		}
	}
}

// ExtractFile returns the contents of a single file from a tar archive.
func ExtractFile(ctx context.Context, r io.Reader, name string) ([]byte, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("name", name)
	tr := tar.NewReader(r)

	name = filepath.Clean(strings.TrimPrefix(name, "/"))
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		if err != nil {
			log.Error(err, "failed to read file from archive")
			return nil, err
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		if filepath.Clean(strings.TrimPrefix(header.Name, "/")) == name {
			log.V(5).Info("located file in archive")
			return io.ReadAll(tr)
		}
	}
}

// checkParents walks the directories between path and target and
// fails if any of them is a symlink that resolves outside of root,
// which is the resolved form of path.
func checkParents(root, path, target string) error {
	if filepath.Clean(target) == filepath.Clean(path) {
		return nil
	}
	rel, err := filepath.Rel(path, filepath.Dir(target))
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}
	current := path
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		if !isSymlink(current) {
			continue
		}
		// dangling links can't be shown to stay inside root
		resolved, err := filepath.EvalSymlinks(current)
		if err != nil || !within(root, resolved) {
			return fmt.Errorf("%w: %s is written through a symlink leaving the archive root", ErrIllegalPath, target)
		}
	}
	return nil
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// SecureJoin joins name onto root, refusing any path that
// would escape root.
func SecureJoin(root, name string) (string, error) {
	target := filepath.Join(root, filepath.Clean("/"+name))
	if !within(root, target) {
		return "", fmt.Errorf("%w: %s", ErrIllegalPath, name)
	}
	return target, nil
}
