package buildfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bazelbuild/bazel-gazelle/label"
	"github.com/bazelbuild/bazel-gazelle/rule"
	"github.com/go-logr/logr"
)

// Generate returns the build file of a single package. Dependencies
// are referenced by label, so they must be materialised alongside
// this package.
func Generate(t Target) *rule.File {
	f := rule.EmptyFile(filepath.Join(t.Name, Name), t.Name)

	lib := rule.NewRule(kindLibrary, t.Name)
	lib.SetAttr("hdrs", rule.GlobValue{Patterns: headerPatterns})
	lib.SetAttr("srcs", rule.GlobValue{Patterns: libraryPatterns})
	lib.SetAttr("includes", []string{"usr/include"})
	if len(t.Deps) > 0 {
		deps := make([]string, len(t.Deps))
		for i, d := range t.Deps {
			deps[i] = Label(d)
		}
		lib.SetAttr("deps", deps)
	}
	lib.SetAttr("visibility", visibility)
	if t.Version != "" {
		lib.AddComment(fmt.Sprintf("# %s %s", t.Name, t.Version))
	}
	lib.Insert(f)

	files := rule.NewRule(kindFilegroup, FilesTarget)
	files.SetAttr("srcs", rule.GlobValue{
		Patterns: []string{"**"},
		Excludes: []string{Name},
	})
	files.SetAttr("visibility", visibility)
	files.Insert(f)

	return f
}

// GenerateRoot returns a build file that aliases every
// package so that they can be referenced from the root
// of the repository.
func GenerateRoot(names []string) *rule.File {
	f := rule.EmptyFile(Name, "")
	for _, n := range names {
		r := rule.NewRule(kindAlias, n)
		r.SetAttr("actual", Label(n))
		r.SetAttr("visibility", visibility)
		r.Insert(f)
	}
	return f
}

// Label returns the label of the library target
// of a package.
func Label(name string) string {
	return label.New("", name, name).String()
}

// Write saves the build file of a package into dir.
func Write(ctx context.Context, dir string, t Target) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("pkg", t.Name, "dir", dir)
	log.V(1).Info("writing build file", "deps", t.Deps)

	return save(Generate(t), filepath.Join(dir, Name))
}

// WriteRoot saves the root build file into dir.
func WriteRoot(ctx context.Context, dir string, names []string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("dir", dir)
	log.V(1).Info("writing root build file", "count", len(names))

	return save(GenerateRoot(names), filepath.Join(dir, Name))
}

func save(f *rule.File, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, f.Format(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
