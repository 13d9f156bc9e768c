package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/djcass44/rules-deb/pkg/api/v1"
	"github.com/djcass44/rules-deb/pkg/airutil"
	"github.com/djcass44/rules-deb/pkg/buildfile"
	"github.com/djcass44/rules-deb/pkg/control"
	"github.com/djcass44/rules-deb/pkg/lockfile"
	"github.com/djcass44/rules-deb/pkg/packages"
	"github.com/djcass44/rules-deb/pkg/packages/debian"
	"github.com/go-logr/logr"
	"github.com/gosimple/hashdir"
	"golang.org/x/sync/errgroup"
)

var ErrPackageMismatch = errors.New("control file does not describe the expected package")

// Lock resolves the packages requested by cfg into a lockfile.
func (m *Materializer) Lock(ctx context.Context, cfg *v1.Archive) (*lockfile.Lock, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("name", cfg.Name)
	if len(cfg.Spec.Packages) == 0 {
		return nil, errors.New("no packages requested")
	}
	log.Info("resolving packages", "count", len(cfg.Spec.Packages))

	resolved, err := m.Lookup.Resolve(ctx, cfg.Spec.Packages)
	if err != nil {
		log.Error(err, "failed to resolve packages")
		return nil, err
	}

	lock := &lockfile.Lock{
		Name:            cfg.Name,
		LockfileVersion: 1,
		Architecture:    architecture(cfg.Spec),
		Packages:        map[string]lockfile.Package{},
	}
	for _, p := range resolved {
		p.Resolved = unexpandURL(p.Resolved, cfg.Spec.Repositories)
		log.V(2).Info("locking package", "pkg", p.Name, "version", p.Version)
		lock.Add(p)
	}
	if err := lock.Validate(cfg.Spec); err != nil {
		return nil, err
	}
	return lock, nil
}

// Materialize downloads and unpacks every package in the lock
// into the output directory. Each package gets its own Bazel
// package whose dependencies are restricted to the other
// packages in the lock.
func (m *Materializer) Materialize(ctx context.Context, lock *lockfile.Lock) (*Manifest, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("out", m.Out)

	keys := lock.SortedKeys()
	paths, err := m.download(ctx, lock, keys)
	if err != nil {
		return nil, err
	}

	unpacker := m.Unpacker
	if unpacker == nil {
		unpacker = debian.NewPackageKeeper()
	}

	known := lock.PackageSet()
	manifest := &Manifest{
		Name:         lock.Name,
		Architecture: lock.Architecture,
		Packages:     make([]ManifestEntry, 0, len(keys)),
	}
	docs := make([]*control.Document, 0, len(keys))
	for i, name := range keys {
		p := lock.Packages[name]
		entry, doc, err := m.materialize(ctx, unpacker, name, p.Version, paths[i], known)
		if err != nil {
			return nil, err
		}
		entry.Version = p.Version
		entry.Resolved = p.Resolved
		entry.Integrity = p.Integrity
		manifest.Packages = append(manifest.Packages, *entry)
		docs = append(docs, doc)
	}

	if err := buildfile.WriteRoot(ctx, m.Out, keys); err != nil {
		return nil, err
	}
	if err := debian.WriteInstalled(ctx, m.Out, docs); err != nil {
		return nil, err
	}
	if err := writeManifest(m.Out, manifest); err != nil {
		log.Error(err, "failed to write manifest")
		return nil, err
	}
	log.Info("materialised archive", "count", len(keys))
	return manifest, nil
}

func (m *Materializer) download(ctx context.Context, lock *lockfile.Lock, keys []string) ([]string, error) {
	parallel := m.Parallel
	if parallel <= 0 {
		parallel = defaultParallel
	}
	paths := make([]string, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, name := range keys {
		p := lock.Packages[name]
		g.Go(func() error {
			path, err := m.Downloader.Download(ctx, airutil.ExpandEnv(p.Resolved), p.Integrity)
			if err != nil {
				return fmt.Errorf("downloading %s: %w", name, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func (m *Materializer) materialize(ctx context.Context, unpacker packages.Package, name, lockedVersion, path string, known control.PackageSet) (*ManifestEntry, *control.Document, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", name)

	dst := filepath.Join(m.Out, name)
	// stale files from a previous run would
	// change the digest
	if err := os.RemoveAll(dst); err != nil {
		return nil, nil, err
	}
	contents, err := unpacker.Unpack(ctx, path, dst)
	if err != nil {
		log.Error(err, "failed to unpack package")
		return nil, nil, fmt.Errorf("unpacking %s: %w", name, err)
	}
	log.V(2).Info("unpacked package", "data", contents.DataArchive)

	doc, err := control.Parse(contents.Control)
	if err != nil {
		log.Error(err, "failed to parse control file")
		return nil, nil, fmt.Errorf("parsing control file of %s: %w", name, err)
	}
	if doc.Package() != name {
		return nil, nil, fmt.Errorf("%w: expected %q but got %q", ErrPackageMismatch, name, doc.Package())
	}

	version, ok := doc.Lookup(control.FieldVersion)
	if !ok {
		log.V(1).Info("control file has no version, using the locked version", "version", lockedVersion)
		version = lockedVersion
	}

	deps := control.Depends(doc)
	inScope := control.FilterKnown(deps, known)
	log.V(1).Info("resolved dependencies", "deps", deps, "inScope", inScope)

	// absolute symlinks dangle outside of a sysroot and can't
	// be hashed, so the digest is left empty rather than failing
	var treeDigest string
	if digest, err := hashdir.Make(dst, "sha256"); err != nil {
		log.Error(err, "failed to generate directory digest", "alg", "sha256", "path", dst)
	} else {
		treeDigest = "sha256:" + digest
	}

	if err := buildfile.Write(ctx, dst, buildfile.Target{
		Name:    name,
		Version: version,
		Deps:    withoutSelf(inScope, name),
	}); err != nil {
		return nil, nil, err
	}

	if deps == nil {
		deps = []string{}
	}
	return &ManifestEntry{
		Name:    name,
		Digest:  treeDigest,
		Depends: deps,
		InScope: inScope,
	}, doc, nil
}

// withoutSelf removes name from deps since Bazel rejects
// a target that depends on itself.
func withoutSelf(deps []string, name string) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if d != name {
			out = append(out, d)
		}
	}
	return out
}

func writeManifest(dir string, manifest *Manifest) error {
	f, err := os.Create(filepath.Join(dir, ManifestName))
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "\t")
	return enc.Encode(manifest)
}

// unexpandURL swaps the expanded form of a repository url for
// the original so that secrets in environment variables don't
// end up in the lockfile.
func unexpandURL(resolved string, repositories []v1.Repository) string {
	for _, r := range repositories {
		// everything after the first space is the release
		// and component, which isn't part of the url
		original, _, _ := strings.Cut(r.URL, " ")
		expanded, _, _ := strings.Cut(airutil.ExpandEnv(r.URL), " ")
		if original != expanded && strings.HasPrefix(resolved, expanded) {
			return original + strings.TrimPrefix(resolved, expanded)
		}
	}
	return resolved
}

func architecture(spec v1.ArchiveSpec) string {
	if spec.Architecture == "" {
		return v1.DefaultArchitecture
	}
	return spec.Architecture
}
