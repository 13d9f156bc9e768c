package control

import (
	"strings"
)

var dependencyFields = []string{FieldDepends, FieldPreDepends}

// Depends returns the unique names of the packages listed in the
// "Depends" and "Pre-Depends" fields, in that order.
//
// Only the first alternative of an "or" clause is kept, and version
// or architecture restrictions are discarded.
func Depends(doc *Document) []string {
	var out []string
	seen := map[string]struct{}{}

	for _, field := range dependencyFields {
		value := doc.Get(field)
		if value == "" {
			continue
		}
		for _, clause := range strings.Split(value, ",") {
			alt, _, _ := strings.Cut(clause, "|")
			name, _, _ := strings.Cut(strings.TrimSpace(alt), " ")
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

// FilterKnown returns the dependencies that are members of the
// known set, preserving their order.
func FilterKnown(deps []string, known PackageSet) []string {
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		if known.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Resolve parses a control file and returns its dependencies,
// both complete and restricted to the known set.
func Resolve(text string, known PackageSet) (*Resolution, error) {
	doc, err := Parse(text)
	if err != nil {
		return nil, err
	}
	deps := Depends(doc)
	return &Resolution{
		Package: doc.Package(),
		Depends: deps,
		InScope: FilterKnown(deps, known),
	}, nil
}
