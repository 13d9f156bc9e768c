package control

import (
	"errors"
	"fmt"
	"slices"
)

// Well-known control file fields.
const (
	FieldPackage    = "Package"
	FieldVersion    = "Version"
	FieldDepends    = "Depends"
	FieldPreDepends = "Pre-Depends"
)

var ErrMalformedControlFile = errors.New("malformed control file")

// MalformedControlFileError is returned when a line cannot be
// attributed to any field.
type MalformedControlFileError struct {
	Line int
}

func (e *MalformedControlFileError) Error() string {
	return fmt.Sprintf("%s: line %d", ErrMalformedControlFile, e.Line)
}

func (e *MalformedControlFileError) Is(target error) bool {
	return target == ErrMalformedControlFile
}

// Document is a single parsed control paragraph.
type Document struct {
	keys   []string
	values map[string]string
}

// PackageSet is the set of package names materialised together
// in a single archive.
type PackageSet map[string]struct{}

// Resolution is the outcome of resolving a single control file
// against a PackageSet.
type Resolution struct {
	Package string
	// Depends contains every dependency declared by the package.
	Depends []string
	// InScope contains the subset of Depends that is part of
	// the PackageSet.
	InScope []string
}

func NewPackageSet(names ...string) PackageSet {
	s := make(PackageSet, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s PackageSet) Add(name string) {
	s[name] = struct{}{}
}

func (s PackageSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the names in the set sorted alphabetically.
func (s PackageSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
