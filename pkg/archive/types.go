package archive

import (
	"context"

	"github.com/djcass44/rules-deb/pkg/apt"
	"github.com/djcass44/rules-deb/pkg/packages"
)

const (
	ManifestName = "manifest.json"

	defaultParallel = 4
)

// Downloader fetches a package archive and verifies
// its SHA256 digest.
type Downloader interface {
	Download(ctx context.Context, src, sha256 string) (string, error)
}

// Materializer turns a set of Debian packages into a
// directory tree that Bazel can consume.
type Materializer struct {
	Lookup     apt.PackageIndexLookup
	Downloader Downloader
	// Unpacker defaults to the Debian package keeper.
	Unpacker packages.Package
	// Out is the root directory that packages are
	// materialised into.
	Out string
	// Parallel is the number of concurrent downloads.
	Parallel int
}

// Manifest describes the contents of a
// materialised archive.
type Manifest struct {
	Name         string          `json:"name"`
	Architecture string          `json:"architecture,omitempty"`
	Packages     []ManifestEntry `json:"packages"`
}

type ManifestEntry struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Resolved  string `json:"resolved"`
	Integrity string `json:"integrity"`
	// Digest is the SHA256 of the unpacked package tree.
	Digest string `json:"digest,omitempty"`
	// Depends lists every dependency named by the
	// control file.
	Depends []string `json:"depends"`
	// InScope is the subset of Depends that is part
	// of this archive.
	InScope []string `json:"inScope"`
}
