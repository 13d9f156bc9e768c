package lockfile

import "strings"

// RequestName returns the package name of an apt-style package
// request, dropping any "=version", "/release" or ":arch" suffix.
func RequestName(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "=/:"); i >= 0 {
		return s[:i]
	}
	return s
}

// RequestVersion returns the exact version pinned by a
// "name=version" request, if there is one.
func RequestVersion(s string) (string, bool) {
	_, v, ok := strings.Cut(strings.TrimSpace(s), "=")
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
