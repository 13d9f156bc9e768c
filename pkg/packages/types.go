package packages

import "context"

type Package interface {
	// Unpack extracts the data archive of the package at pkg
	// into dst and returns its metadata.
	Unpack(ctx context.Context, pkg, dst string) (*Contents, error)
}

// Contents describes an unpacked package.
type Contents struct {
	// Control is the raw text of the package control file.
	Control string
	// DataArchive is the name of the archive member that
	// contained the package filesystem.
	DataArchive string
}
