package debian

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/clearsign"
	"github.com/carlmjohnson/requests"
	"github.com/go-logr/logr"
	"pault.ag/go/debian/control"
)

// Release contains the checksums published in a
// repository InRelease file.
type Release struct {
	// checksums maps the path of an index (relative to
	// dists/<release>) to its SHA256 digest.
	checksums map[string]string
}

// ReadKeyring reads an armored OpenPGP public keyring.
func ReadKeyring(r io.Reader) (openpgp.EntityList, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(r)
	if err != nil {
		return nil, fmt.Errorf("reading keyring: %w", err)
	}
	return keyring, nil
}

func fetchRelease(ctx context.Context, repository, release string, keyring openpgp.EntityList) (*Release, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("repo", repository, "release", release)
	log.V(1).Info("downloading release")

	target := fmt.Sprintf("%s/dists/%s/InRelease", repository, release)
	var buf bytes.Buffer
	if err := requests.URL(target).ToBytesBuffer(&buf).Fetch(ctx); err != nil {
		log.V(1).Info("failed to download file", "url", target)
		return nil, fmt.Errorf("downloading release: %w", err)
	}
	return ParseRelease(buf.Bytes(), keyring)
}

// ParseRelease verifies the signature of a clearsigned InRelease
// file and extracts its SHA256 checksums.
func ParseRelease(data []byte, keyring openpgp.EntityList) (*Release, error) {
	block, _ := clearsign.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("release is not clearsigned")
	}
	if _, err := openpgp.CheckDetachedSignature(keyring, bytes.NewReader(block.Bytes), block.ArmoredSignature.Body, nil); err != nil {
		return nil, fmt.Errorf("verifying release signature: %w", err)
	}
	pr, err := control.NewParagraphReader(bufio.NewReader(bytes.NewReader(block.Plaintext)), nil)
	if err != nil {
		return nil, fmt.Errorf("reading release: %w", err)
	}
	para, err := pr.Next()
	if err != nil {
		return nil, fmt.Errorf("parsing release: %w", err)
	}
	rel := &Release{checksums: map[string]string{}}
	for _, line := range strings.Split(para.Values["SHA256"], "\n") {
		// <sha256> <size> <path>
		bits := strings.Fields(line)
		if len(bits) != 3 {
			continue
		}
		rel.checksums[bits[2]] = bits[0]
	}
	return rel, nil
}

// Verify checks that the digest of an index matches
// the one recorded in the release.
func (r *Release) Verify(path, digest string) error {
	expected, ok := r.checksums[path]
	if !ok {
		return fmt.Errorf("index is not listed in release: %s", path)
	}
	if !strings.EqualFold(expected, digest) {
		return fmt.Errorf("index checksum mismatch for %s: expected %s, got %s", path, expected, digest)
	}
	return nil
}
