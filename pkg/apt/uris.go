package apt

import (
	"bufio"
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/djcass44/rules-deb/pkg/lockfile"
)

// ParsePrintURIs parses the output of "apt-get install --print-uris".
//
// Each package is described by a line in the form:
//
//	'<url>' <name>_<version>_<arch>.deb <size> SHA256:<digest>
//
// Any other lines are ignored.
func ParsePrintURIs(out []byte) ([]lockfile.Package, error) {
	var packages []lockfile.Package

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "'") {
			continue
		}
		p, err := parseURILine(line)
		if err != nil {
			return nil, err
		}
		packages = append(packages, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return packages, nil
}

func parseURILine(line string) (lockfile.Package, error) {
	bits := strings.Fields(line)
	if len(bits) != 4 {
		return lockfile.Package{}, fmt.Errorf("malformed uri line: %q", line)
	}
	uri := strings.Trim(bits[0], "'")

	size, err := strconv.ParseInt(bits[2], 10, 64)
	if err != nil {
		return lockfile.Package{}, fmt.Errorf("parsing size of %s: %w", bits[1], err)
	}

	alg, digest, ok := strings.Cut(bits[3], ":")
	if !ok || !strings.EqualFold(alg, "SHA256") {
		return lockfile.Package{}, fmt.Errorf("unsupported hash for %s: %s", bits[1], bits[3])
	}

	name, version, arch, err := ParseFilename(bits[1])
	if err != nil {
		return lockfile.Package{}, err
	}

	return lockfile.Package{
		Name:         name,
		Version:      version,
		Architecture: arch,
		Resolved:     uri,
		Integrity:    strings.ToLower(digest),
		Size:         size,
	}, nil
}

// ParseFilename extracts the name, version and architecture
// from a file name in the form "<name>_<version>_<arch>.deb".
// Epochs are url-encoded by APT (e.g. "1%3a2.0").
func ParseFilename(s string) (name, version, arch string, err error) {
	base := strings.TrimSuffix(path.Base(s), ".deb")
	bits := strings.Split(base, "_")
	if len(bits) != 3 {
		return "", "", "", fmt.Errorf("malformed package filename: %q", s)
	}
	version, err = url.PathUnescape(bits[1])
	if err != nil {
		return "", "", "", fmt.Errorf("unescaping version of %s: %w", s, err)
	}
	return bits[0], version, bits[2], nil
}
