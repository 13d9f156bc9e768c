// Package debtest builds Debian packages in memory for use in tests.
package debtest

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"sort"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

type Package struct {
	Control string
	// Files maps paths in the data archive to their contents.
	Files map[string]string
	// Symlinks maps paths in the data archive to their targets.
	Symlinks map[string]string
	// Compression is one of "", "gz", "xz" or "zst".
	Compression string
	// OmitData skips the data archive.
	OmitData bool
}

// Build returns the bytes of a .deb file.
func Build(t *testing.T, p Package) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := ar.NewWriter(&buf)
	require.NoError(t, w.WriteGlobalHeader())

	add := func(name string, body []byte) {
		require.NoError(t, w.WriteHeader(&ar.Header{
			Name:    name,
			Size:    int64(len(body)),
			Mode:    0644,
			ModTime: time.Unix(0, 0),
		}))
		_, err := w.Write(body)
		require.NoError(t, err)
	}

	add("debian-binary", []byte("2.0\n"))
	add("control.tar.gz", compress(t, "gz", tarball(t, map[string]string{"./control": p.Control}, nil)))
	if !p.OmitData {
		name := "data.tar"
		if p.Compression != "" {
			name += "." + p.Compression
		}
		add(name, compress(t, p.Compression, tarball(t, p.Files, p.Symlinks)))
	}
	return buf.Bytes()
}

func tarball(t *testing.T, files, symlinks map[string]string) []byte {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	names := make([]string, 0, len(files))
	for k := range files {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		body := files[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(body)),
		}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
	for name, target := range symlinks {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeSymlink,
			Linkname: target,
		}))
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func compress(t *testing.T, kind string, data []byte) []byte {
	var buf bytes.Buffer
	switch kind {
	case "gz":
		w := gzip.NewWriter(&buf)
		_, err := w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "xz":
		w, err := xz.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case "zst":
		w, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	default:
		return data
	}
	return buf.Bytes()
}
