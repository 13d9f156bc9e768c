package apt

import (
	"context"

	"github.com/djcass44/rules-deb/pkg/lockfile"
)

// PackageIndexLookup resolves a set of package names into the
// transitive set of packages that need to be downloaded.
type PackageIndexLookup interface {
	Resolve(ctx context.Context, names []string) ([]lockfile.Package, error)
}

// Runner executes an external command and returns its
// standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Repository is an APT source in the form
// "<base> <release> <component>".
type Repository struct {
	URL     string
	Keyring string
}
