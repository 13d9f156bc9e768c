package packages

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
)

// Record writes a database of packages to path, one formatted
// entry per package separated by a blank line.
func Record[T any](ctx context.Context, path string, packages []T, format func(t T) string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)
	log.V(5).Info("recording packages")

	path = filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("opening file '%s': %w", path, err)
	}
	defer f.Close()

	out := strings.Builder{}
	for _, pkg := range packages {
		log.V(5).Info("recording package", "pkg", pkg)
		out.WriteString(strings.TrimSuffix(format(pkg), "\n"))
		out.WriteString("\n\n")
	}

	if _, err = f.Write([]byte(out.String())); err != nil {
		return fmt.Errorf("writing: %w", err)
	}

	return nil
}
