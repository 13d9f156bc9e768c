package archiveutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

func newTar(t *testing.T) []byte {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	write := func(hdr *tar.Header, body string) {
		hdr.Size = int64(len(body))
		require.NoError(t, tw.WriteHeader(hdr))
		if body != "" {
			_, err := tw.Write([]byte(body))
			require.NoError(t, err)
		}
	}
	write(&tar.Header{Name: "./usr/", Typeflag: tar.TypeDir, Mode: 0755}, "")
	write(&tar.Header{Name: "./usr/include/", Typeflag: tar.TypeDir, Mode: 0755}, "")
	write(&tar.Header{Name: "./usr/include/test.h", Typeflag: tar.TypeReg, Mode: 0644}, "#pragma once\n")
	write(&tar.Header{Name: "./usr/lib/libtest.so.1", Typeflag: tar.TypeReg, Mode: 0644}, "ELF")
	write(&tar.Header{Name: "./usr/lib/libtest.so", Typeflag: tar.TypeSymlink, Linkname: "libtest.so.1"}, "")
	write(&tar.Header{Name: "./usr/lib/libtest-hard.so", Typeflag: tar.TypeLink, Linkname: "./usr/lib/libtest.so.1"}, "")
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func assertTree(t *testing.T, dir string) {
	assert.FileExists(t, filepath.Join(dir, "usr", "include", "test.h"))
	assert.FileExists(t, filepath.Join(dir, "usr", "lib", "libtest-hard.so"))

	link, err := os.Readlink(filepath.Join(dir, "usr", "lib", "libtest.so"))
	assert.NoError(t, err)
	assert.EqualValues(t, "libtest.so.1", link)
}

func TestUntar(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	dir := t.TempDir()
	err := Untar(ctx, bytes.NewReader(newTar(t)), dir)
	assert.NoError(t, err)
	assertTree(t, dir)
}

func TestUntar_Compressed(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))
	data := newTar(t)

	var cases = []struct {
		name     string
		compress func(w io.Writer) (io.WriteCloser, error)
	}{
		{
			"data.tar.gz",
			func(w io.Writer) (io.WriteCloser, error) {
				return gzip.NewWriter(w), nil
			},
		},
		{
			"data.tar.xz",
			func(w io.Writer) (io.WriteCloser, error) {
				return xz.NewWriter(w)
			},
		},
		{
			"data.tar.zst",
			func(w io.Writer) (io.WriteCloser, error) {
				return zstd.NewWriter(w)
			},
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := tt.compress(&buf)
			require.NoError(t, err)
			_, err = w.Write(data)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := Decompress(tt.name, &buf)
			require.NoError(t, err)
			defer r.Close()

			dir := t.TempDir()
			assert.NoError(t, Untar(ctx, r, dir))
			assertTree(t, dir)
		})
	}
}

func buildTar(t *testing.T, headers ...*tar.Header) []byte {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, hdr := range headers {
		body := ""
		if hdr.Typeflag == tar.TypeReg {
			body = "pwned"
			hdr.Size = int64(len(body))
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if body != "" {
			_, err := tw.Write([]byte(body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestUntar_SymlinkEscape(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	outside := t.TempDir()

	var cases = []struct {
		name    string
		headers []*tar.Header
	}{
		{
			"file below an absolute symlink",
			[]*tar.Header{
				{Name: "./usr/lib/evil", Typeflag: tar.TypeSymlink, Linkname: outside},
				{Name: "./usr/lib/evil/pwned", Typeflag: tar.TypeReg, Mode: 0644},
			},
		},
		{
			"file below a relative symlink",
			[]*tar.Header{
				{Name: "./usr/evil", Typeflag: tar.TypeSymlink, Linkname: "../../../../../../../../../.." + outside},
				{Name: "./usr/evil/pwned", Typeflag: tar.TypeReg, Mode: 0644},
			},
		},
		{
			"directory below a symlink",
			[]*tar.Header{
				{Name: "./evil", Typeflag: tar.TypeSymlink, Linkname: outside},
				{Name: "./evil/pwned/", Typeflag: tar.TypeDir, Mode: 0755},
			},
		},
		{
			"hardlink to a file below a symlink",
			[]*tar.Header{
				{Name: "./evil", Typeflag: tar.TypeSymlink, Linkname: outside},
				{Name: "./usr/pwned", Typeflag: tar.TypeLink, Linkname: "./evil/secret"},
			},
		},
	}
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("secret"), 0644))

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			err := Untar(ctx, bytes.NewReader(buildTar(t, tt.headers...)), dir)
			assert.ErrorIs(t, err, ErrIllegalPath)
			assert.NoFileExists(t, filepath.Join(outside, "pwned"))
			assert.NoDirExists(t, filepath.Join(outside, "pwned"))
			assert.NoFileExists(t, filepath.Join(dir, "usr", "pwned"))
		})
	}
}

func TestUntar_Symlinks(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	t.Run("file below a symlink inside the root", func(t *testing.T) {
		dir := t.TempDir()
		err := Untar(ctx, bytes.NewReader(buildTar(t,
			&tar.Header{Name: "./usr/lib/", Typeflag: tar.TypeDir, Mode: 0755},
			&tar.Header{Name: "./lib", Typeflag: tar.TypeSymlink, Linkname: "usr/lib"},
			&tar.Header{Name: "./lib/libfoo.so", Typeflag: tar.TypeReg, Mode: 0644},
		)), dir)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "usr", "lib", "libfoo.so"))
	})
	t.Run("file replaces a symlink instead of following it", func(t *testing.T) {
		outside := t.TempDir()
		victim := filepath.Join(outside, "victim")
		require.NoError(t, os.WriteFile(victim, []byte("original"), 0644))

		dir := t.TempDir()
		err := Untar(ctx, bytes.NewReader(buildTar(t,
			&tar.Header{Name: "./etc/link", Typeflag: tar.TypeSymlink, Linkname: victim},
			&tar.Header{Name: "./etc/link", Typeflag: tar.TypeReg, Mode: 0644},
		)), dir)
		require.NoError(t, err)

		data, err := os.ReadFile(victim)
		require.NoError(t, err)
		assert.EqualValues(t, "original", string(data))

		data, err = os.ReadFile(filepath.Join(dir, "etc", "link"))
		require.NoError(t, err)
		assert.EqualValues(t, "pwned", string(data))
	})
}

func TestDecompress(t *testing.T) {
	t.Run("plain tar", func(t *testing.T) {
		r, err := Decompress("data.tar", bytes.NewReader([]byte("hello")))
		require.NoError(t, err)
		out, err := io.ReadAll(r)
		assert.NoError(t, err)
		assert.EqualValues(t, "hello", string(out))
	})
	t.Run("unsupported", func(t *testing.T) {
		_, err := Decompress("data.tar.bz2", bytes.NewReader(nil))
		assert.Error(t, err)
	})
}

func TestExtractFile(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	out, err := ExtractFile(ctx, bytes.NewReader(newTar(t)), "usr/include/test.h")
	assert.NoError(t, err)
	assert.EqualValues(t, "#pragma once\n", string(out))

	_, err = ExtractFile(ctx, bytes.NewReader(newTar(t)), "control")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSecureJoin(t *testing.T) {
	var cases = []struct {
		name string
		out  string
	}{
		{"./usr/include/test.h", "/root/usr/include/test.h"},
		{"../../etc/passwd", "/root/etc/passwd"},
		{"/etc/passwd", "/root/etc/passwd"},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			out, err := SecureJoin("/root", tt.name)
			assert.NoError(t, err)
			assert.EqualValues(t, tt.out, out)
		})
	}
}
