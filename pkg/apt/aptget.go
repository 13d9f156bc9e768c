package apt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/djcass44/rules-deb/pkg/airutil"
	"github.com/djcass44/rules-deb/pkg/lockfile"
	"github.com/go-logr/logr"
	"github.com/kballard/go-shellquote"
)

// AptGet resolves packages by running apt-get against a private
// APT root so that the host package database is never touched.
type AptGet struct {
	root    string
	arch    string
	options []string
	runner  Runner
	updated bool
}

// NewAptGet prepares a private APT root in dir containing a
// sources.list describing the given repositories.
func NewAptGet(ctx context.Context, dir, arch string, repositories []Repository, extraOptions string, runner Runner) (*AptGet, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("root", dir, "arch", arch)
	log.V(1).Info("preparing apt root")

	if runner == nil {
		runner = ExecRunner{}
	}

	extra, err := shellquote.Split(extraOptions)
	if err != nil {
		return nil, fmt.Errorf("parsing apt options: %w", err)
	}

	for _, d := range []string{
		filepath.Join(dir, "etc", "apt", "sources.list.d"),
		filepath.Join(dir, "etc", "apt", "preferences.d"),
		filepath.Join(dir, "etc", "apt", "trusted.gpg.d"),
		filepath.Join(dir, "state", "lists", "partial"),
		filepath.Join(dir, "cache", "archives", "partial"),
	} {
		if err := os.MkdirAll(d, 0755); err != nil {
			log.Error(err, "failed to create directory", "dir", d)
			return nil, err
		}
	}
	// an empty status file means that apt considers nothing to
	// be installed, so every dependency is printed
	if err := os.WriteFile(filepath.Join(dir, "state", "status"), nil, 0644); err != nil {
		return nil, err
	}

	sources, err := sourcesList(arch, repositories)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, "etc", "apt", "sources.list"), []byte(sources), 0644); err != nil {
		log.Error(err, "failed to write sources.list")
		return nil, err
	}
	log.V(2).Info("wrote sources.list", "sources", sources)

	options := []string{
		"-o", "Dir::Etc=" + filepath.Join(dir, "etc", "apt"),
		"-o", "Dir::State=" + filepath.Join(dir, "state"),
		"-o", "Dir::State::status=" + filepath.Join(dir, "state", "status"),
		"-o", "Dir::Cache=" + filepath.Join(dir, "cache"),
		"-o", "APT::Architecture=" + arch,
		"-o", "APT::Architectures=" + arch,
		"-o", "Debug::NoLocking=1",
	}

	return &AptGet{
		root:    dir,
		arch:    arch,
		options: append(options, extra...),
		runner:  runner,
	}, nil
}

func sourcesList(arch string, repositories []Repository) (string, error) {
	sb := strings.Builder{}
	for _, r := range repositories {
		base, release, component, err := airutil.SplitRepository(r.URL)
		if err != nil {
			return "", err
		}
		opts := []string{"arch=" + arch}
		if r.Keyring != "" {
			keyring, err := filepath.Abs(r.Keyring)
			if err != nil {
				return "", err
			}
			opts = append(opts, "signed-by="+keyring)
		} else {
			opts = append(opts, "trusted=yes")
		}
		sb.WriteString(fmt.Sprintf("deb [%s] %s %s %s\n", strings.Join(opts, " "), base, release, component))
	}
	return sb.String(), nil
}

func (a *AptGet) update(ctx context.Context) error {
	if a.updated {
		return nil
	}
	log := logr.FromContextOrDiscard(ctx)
	log.Info("updating package lists")
	if _, err := a.runner.Run(ctx, "apt-get", slices.Concat(a.options, []string{"-qq", "update"})...); err != nil {
		return fmt.Errorf("updating package lists: %w", err)
	}
	a.updated = true
	return nil
}

// Resolve asks apt-get for the download uris of the given packages
// and all of their dependencies.
func (a *AptGet) Resolve(ctx context.Context, names []string) ([]lockfile.Package, error) {
	log := logr.FromContextOrDiscard(ctx)
	if len(names) == 0 {
		return nil, nil
	}
	if err := a.update(ctx); err != nil {
		return nil, err
	}

	log.V(1).Info("resolving packages", "names", names)
	args := slices.Concat(a.options, []string{"-qq", "--print-uris", "--no-install-recommends", "--reinstall", "install"}, names)
	out, err := a.runner.Run(ctx, "apt-get", args...)
	if err != nil {
		return nil, fmt.Errorf("resolving packages: %w", err)
	}
	packages, err := ParsePrintURIs(out)
	if err != nil {
		return nil, err
	}
	requested := make([]string, len(names))
	for i := range names {
		requested[i] = lockfile.RequestName(names[i])
	}
	for i := range packages {
		packages[i].Direct = slices.Contains(requested, packages[i].Name)
	}
	log.V(1).Info("resolved packages", "count", len(packages))
	return packages, nil
}
