package lockfile

type Lock struct {
	Name            string             `json:"name"`
	LockfileVersion int                `json:"lockfileVersion"`
	Architecture    string             `json:"architecture"`
	Packages        map[string]Package `json:"packages"`
}

type Package struct {
	Name         string `json:"-"`
	Version      string `json:"version"`
	Architecture string `json:"architecture,omitempty"`
	// Resolved is the url that the package archive
	// can be downloaded from.
	Resolved string `json:"resolved"`
	// Integrity is the hex-encoded SHA256 of the
	// package archive.
	Integrity string `json:"integrity"`
	Size      int64  `json:"size,omitempty"`
	// Direct is true when the package was explicitly
	// requested rather than pulled in as a dependency.
	Direct bool `json:"direct,omitempty"`
}
