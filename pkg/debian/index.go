package debian

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/carlmjohnson/requests"
	"github.com/djcass44/rules-deb/pkg/requestutil"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	version "github.com/knqyf263/go-deb-version"
	"pault.ag/go/debian/control"
)

const (
	PackageFileGzip = "Packages.gz"
	PackageFileXZ   = "Packages.xz"
)

var ErrNotFound = errors.New("package file not found")

// WithKeyring requires the repository InRelease file to be signed
// by one of the given keys. The checksum of the package index is
// then verified against the one listed in the InRelease file.
func WithKeyring(keyring openpgp.EntityList) Option {
	return func(o *options) {
		o.keyring = keyring
	}
}

func NewIndex(ctx context.Context, repository, release, component, arch string, opts ...Option) (*Index, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var rel *Release
	if len(o.keyring) > 0 {
		var err error
		rel, err = fetchRelease(ctx, repository, release, o.keyring)
		if err != nil {
			return nil, err
		}
	}

	// try to download the gzip repository
	index, err := downloadIndex(ctx, rel, repository, release, component, arch, PackageFileGzip)
	if err == nil {
		return index, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// try to download the xz repository
	return downloadIndex(ctx, rel, repository, release, component, arch, PackageFileXZ)
}

func downloadIndex(ctx context.Context, rel *Release, repository, release, component, arch, filename string) (*Index, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("repo", repository, "release", release, "component", component, "arch", arch, "filename", filename)
	log.V(1).Info("downloading index")

	indexPath := fmt.Sprintf("%s/binary-%s/%s", component, arch, filename)
	target := fmt.Sprintf("%s/dists/%s/%s", repository, release, indexPath)

	f, err := os.Create(filepath.Join(os.TempDir(), fmt.Sprintf("%s-Packages", uuid.NewString())))
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	defer f.Close()

	// hash the compressed stream as that is what
	// the release file describes
	h := sha256.New()
	if err := requests.URL(target).Handle(requestutil.WithDecompress(f, h)).Fetch(ctx); err != nil {
		// return a special error on 404, so we can check for
		// other file types
		if requests.HasStatusErr(err, http.StatusNotFound) {
			log.V(1).Info("failed to locate package index")
			return nil, ErrNotFound
		}
		log.V(1).Info("failed to download file", "url", target)
		return nil, fmt.Errorf("downloading index: %w", err)
	}
	log.V(1).Info("successfully downloaded index")
	_ = f.Close()

	if rel != nil {
		if err := rel.Verify(indexPath, hex.EncodeToString(h.Sum(nil))); err != nil {
			log.Error(err, "package index failed verification")
			return nil, err
		}
		log.V(1).Info("verified package index against release")
	}

	return newIndex(ctx, repository, f.Name())
}

func newIndex(ctx context.Context, source, path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readIndex(ctx, source, f)
}

func readIndex(ctx context.Context, source string, r io.Reader) (*Index, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("source", source)
	dec, err := control.NewDecoder(r, nil)
	if err != nil {
		return nil, err
	}
	var out []Package
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Depends = trimAll(out[i].Depends)
		out[i].PreDepends = trimAll(out[i].PreDepends)
		out[i].Provides = trimAll(out[i].Provides)
		out[i].Repository = source
	}
	log.V(1).Info("successfully decoded index", "count", len(out))
	return &Index{
		packages: out,
		source:   source,
	}, nil
}

func trimAll(s []string) []string {
	out := make([]string, 0, len(s))
	for _, v := range s {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (idx *Index) Count() int {
	return len(idx.packages)
}

func (idx *Index) Source() string {
	return idx.source
}

// URL returns the absolute download url of a package.
func (p Package) URL() string {
	return strings.TrimSuffix(p.Repository, "/") + "/" + strings.TrimPrefix(p.Filename, "/")
}

// GetPackageWithDependencies returns the best match for the given
// package along with its transitive dependencies. Packages already
// present in existing are skipped. Dependencies that cannot be found
// in this index are assumed to be provided elsewhere.
func (idx *Index) GetPackageWithDependencies(ctx context.Context, existing map[string]Package, pv *PackageVersion) ([]Package, error) {
	return Indices{idx}.GetPackageWithDependencies(ctx, existing, pv)
}

// GetPackageWithDependencies returns the best match for the given
// package along with its transitive dependencies, searching every
// index. A dependency may be satisfied by a different index than the
// package that requires it.
func (s Indices) GetPackageWithDependencies(ctx context.Context, existing map[string]Package, pv *PackageVersion) ([]Package, error) {
	log := logr.FromContextOrDiscard(ctx)

	p, ok := s.find(pv)
	if !ok {
		log.V(4).Info("unable to find package in any index", "names", pv.Names)
		return nil, nil
	}
	log.V(5).Info("found package match", "name", p.Package, "version", p.Version, "source", p.Repository, "deps", len(p.Depends)+len(p.PreDepends))
	// skip duplicate packages
	if _, ok := existing[p.Package]; ok {
		log.V(4).Info("skipping package as we already have it", "name", p.Package, "version", p.Version)
		return nil, nil
	}
	existing[p.Package] = p

	out := []Package{p}
	for _, dep := range slices.Concat(p.Depends, p.PreDepends) {
		dv, err := ParseVersion(dep)
		if err != nil {
			return nil, fmt.Errorf("parsing dependency of %s: %w", p.Package, err)
		}
		deps, err := s.GetPackageWithDependencies(ctx, existing, dv)
		if err != nil {
			return nil, err
		}
		out = append(out, deps...)
	}
	return out, nil
}

// find returns the highest version of a package satisfying pv across
// all indices. Real packages take precedence over packages that
// provide the name virtually. When versions are equal, the earlier
// index wins.
func (s Indices) find(pv *PackageVersion) (Package, bool) {
	var best *Package
	for _, idx := range s {
		p := idx.find(pv)
		if p != nil && (best == nil || newer(p.Version, best.Version)) {
			best = p
		}
	}
	if best != nil {
		return *best, true
	}
	for _, idx := range s {
		if p := idx.provider(pv); p != nil {
			return *p, true
		}
	}
	return Package{}, false
}

func (idx *Index) find(pv *PackageVersion) *Package {
	var best *Package
	for i := range idx.packages {
		p := &idx.packages[i]
		if !slices.Contains(pv.Names, p.Package) || !pv.Matches(p.Version) {
			continue
		}
		if best == nil || newer(p.Version, best.Version) {
			best = p
		}
	}
	return best
}

func (idx *Index) provider(pv *PackageVersion) *Package {
	for i := range idx.packages {
		p := &idx.packages[i]
		for _, provided := range p.Provides {
			name, _, _ := strings.Cut(provided, " ")
			if slices.Contains(pv.Names, name) {
				return p
			}
		}
	}
	return nil
}

func newer(s1, s2 string) bool {
	v1, err := version.NewVersion(s1)
	if err != nil {
		return false
	}
	v2, err := version.NewVersion(s2)
	if err != nil {
		return true
	}
	return v1.GreaterThan(v2)
}

func (pv *PackageVersion) Matches(s1 string) bool {
	// if there's a version missing, match
	// anything
	if s1 == "" || pv.Version == "" {
		return true
	}
	v1, err := version.NewVersion(s1)
	if err != nil {
		return false
	}
	v2, err := version.NewVersion(pv.Version)
	if err != nil {
		return false
	}
	switch pv.Constraint {
	case ">>":
		return v1.GreaterThan(v2)
	case "<<":
		return v1.LessThan(v2)
	case "=":
		return v1.Equal(v2)
	case ">=":
		return v1.GreaterThan(v2) || v1.Equal(v2)
	case "<=":
		return v1.LessThan(v2) || v1.Equal(v2)
	default:
		return true
	}
}
