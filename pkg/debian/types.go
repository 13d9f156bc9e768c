package debian

import "github.com/ProtonMail/go-crypto/openpgp"

type Package struct {
	Package      string
	Version      string
	Architecture string
	Depends      []string `delim:","`
	PreDepends   []string `control:"Pre-Depends" delim:","`
	Provides     []string `delim:","`
	Filename     string
	Size         int
	Sha256       string `control:"SHA256"`
	// Repository is the base url of the index
	// the package was read from.
	Repository   string `control:"-"`
}

type Index struct {
	packages []Package
	source   string
}

// Indices is an ordered set of package indices
// that are searched together.
type Indices []*Index

type PackageVersion struct {
	Names      []string
	Version    string
	Constraint string
}

type options struct {
	keyring openpgp.EntityList
}

type Option func(o *options)
