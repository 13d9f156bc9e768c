package lockfile

import (
	"fmt"
	"sort"

	v1 "github.com/djcass44/rules-deb/pkg/api/v1"
	"github.com/djcass44/rules-deb/pkg/control"
)

// Validate checks that the configuration file lines up
// with what we expect from the lockfile and vice versa
func (l *Lock) Validate(cfg v1.ArchiveSpec) error {
	// check that the requested packages are all in the lockfile
	for _, n := range cfg.Packages {
		if _, ok := l.Packages[RequestName(n)]; !ok {
			return fmt.Errorf("package not found in lock: %s", n)
		}
	}

	// now we do the reverse. Only direct packages need to be
	// in the manifest as the rest are dependencies
	for k, v := range l.Packages {
		if !v.Direct {
			continue
		}
		var found bool
		for _, n := range cfg.Packages {
			if RequestName(n) == k {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("package found in lock, but not manifest: %s", k)
		}
	}

	return nil
}

// SortedKeys returns package names
// sorted alphabetically.
func (l *Lock) SortedKeys() []string {
	pkgKeys := make([]string, 0)
	for k := range l.Packages {
		pkgKeys = append(pkgKeys, k)
	}
	sort.Strings(pkgKeys)
	return pkgKeys
}

// PackageSet returns the names of every package
// in the lock.
func (l *Lock) PackageSet() control.PackageSet {
	return control.NewPackageSet(l.SortedKeys()...)
}

// Add records a package in the lock. If the package is
// already present, it is only upgraded to direct.
func (l *Lock) Add(p Package) {
	if l.Packages == nil {
		l.Packages = map[string]Package{}
	}
	if existing, ok := l.Packages[p.Name]; ok {
		existing.Direct = existing.Direct || p.Direct
		l.Packages[p.Name] = existing
		return
	}
	l.Packages[p.Name] = p
}
