package apt

import (
	"context"
	"fmt"
	"os"

	"github.com/djcass44/rules-deb/pkg/airutil"
	"github.com/djcass44/rules-deb/pkg/control"
	"github.com/djcass44/rules-deb/pkg/debian"
	"github.com/djcass44/rules-deb/pkg/lockfile"
	"github.com/go-logr/logr"
)

// IndexLookup resolves packages by reading the Packages
// index of each repository directly.
type IndexLookup struct {
	arch    string
	indices debian.Indices
}

func NewIndexLookup(ctx context.Context, arch string, repositories []Repository) (*IndexLookup, error) {
	log := logr.FromContextOrDiscard(ctx)

	var indices debian.Indices
	for _, repo := range repositories {
		base, release, component, err := airutil.SplitRepository(repo.URL)
		if err != nil {
			return nil, err
		}
		var opts []debian.Option
		if repo.Keyring != "" {
			f, err := os.Open(repo.Keyring)
			if err != nil {
				return nil, fmt.Errorf("opening keyring: %w", err)
			}
			keyring, err := debian.ReadKeyring(f)
			_ = f.Close()
			if err != nil {
				return nil, err
			}
			opts = append(opts, debian.WithKeyring(keyring))
		}
		idx, err := debian.NewIndex(ctx, base, release, component, arch, opts...)
		if err != nil {
			return nil, err
		}
		log.V(2).Info("added index", "count", idx.Count(), "source", idx.Source(), "release", release, "component", component)
		indices = append(indices, idx)
	}
	return &IndexLookup{
		arch:    arch,
		indices: indices,
	}, nil
}

// Resolve finds each requested package along with its transitive
// dependencies. A dependency may be satisfied by any of the
// configured repositories, not just the one that holds the package
// that requires it. Requests may pin an exact version with
// "name=version".
func (l *IndexLookup) Resolve(ctx context.Context, names []string) ([]lockfile.Package, error) {
	log := logr.FromContextOrDiscard(ctx)

	existing := map[string]debian.Package{}
	requested := control.NewPackageSet()
	var out []lockfile.Package
	for _, req := range names {
		name := lockfile.RequestName(req)
		requested.Add(name)
		if _, ok := existing[name]; ok {
			continue
		}
		pv := &debian.PackageVersion{
			Names: []string{name},
		}
		if v, ok := lockfile.RequestVersion(req); ok {
			pv.Version = v
			pv.Constraint = "="
		}
		pkgs, err := l.indices.GetPackageWithDependencies(ctx, existing, pv)
		if err != nil {
			return nil, err
		}
		if len(pkgs) == 0 {
			return nil, fmt.Errorf("package could not be found in any index: %s", req)
		}
		for _, p := range pkgs {
			out = append(out, lockfile.Package{
				Name:         p.Package,
				Version:      p.Version,
				Architecture: p.Architecture,
				Resolved:     p.URL(),
				Integrity:    p.Sha256,
				Size:         int64(p.Size),
			})
		}
	}
	for i := range out {
		out[i].Direct = requested.Has(out[i].Name)
	}
	log.V(1).Info("resolved packages", "count", len(out))
	return out, nil
}
