package requestutil

import (
	"fmt"
	"hash"
	"io"
	"net/http"
	"path"

	"github.com/carlmjohnson/requests"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-logr/logr"
	"github.com/mholt/archives"
)

var ContentTypesGzip = []string{
	"application/gzip",
	"application/x-gzip",
}

var ContentTypesXZ = []string{
	"application/x-xz",
}

// WithDecompress copies the response body to out, decompressing
// it based on the extension of the requested file or its content
// type. If h is not nil, it receives the body as it was sent by
// the server.
func WithDecompress(out io.Writer, h hash.Hash) requests.ResponseHandler {
	return func(response *http.Response) error {
		log := logr.FromContextOrDiscard(response.Request.Context())

		var body io.Reader = response.Body
		if h != nil {
			body = io.TeeReader(response.Body, h)
		}

		var stream io.Reader
		switch compression(response.Request.URL.Path, response.Header.Get("Content-Type")) {
		case "gz":
			log.V(8).Info("decompressing gzip response")
			dec, err := archives.Gz{}.OpenReader(body)
			if err != nil {
				return fmt.Errorf("decompressing: %w", err)
			}
			defer dec.Close()
			stream = dec
		case "xz":
			log.V(8).Info("decompressing xz response")
			dec, err := archives.Xz{}.OpenReader(body)
			if err != nil {
				return fmt.Errorf("decompressing: %w", err)
			}
			defer dec.Close()
			stream = dec
		default:
			stream = body
		}

		_, err := io.Copy(out, stream)
		if err != nil {
			return fmt.Errorf("writing uncompressed output: %w", err)
		}
		return nil
	}
}

func compression(name, contentType string) string {
	switch path.Ext(name) {
	case ".gz":
		return "gz"
	case ".xz":
		return "xz"
	}
	switch {
	case isGzipped(contentType):
		return "gz"
	case mimetype.EqualsAny(contentType, ContentTypesXZ...):
		return "xz"
	}
	return ""
}

func isGzipped(s string) bool {
	return mimetype.EqualsAny(s, ContentTypesGzip...)
}
