package archiveutil

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/blakesmith/ar"
	"github.com/go-logr/logr"
)

// Unar expands an ar archive into the given path.
func Unar(ctx context.Context, r io.Reader, path string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)
	tr := ar.NewReader(r)

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

		// GNU ar terminates member names with a slash
		name := strings.TrimSuffix(strings.TrimSpace(header.Name), "/")
		target, err := SecureJoin(path, filepath.Base(name))
		if err != nil {
			return err
		}

		log.V(5).Info("creating file", "target", target, "mode", header.Mode)
		f, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
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
	}
}
