package apt

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	calls [][]string
	out   []byte
	err   error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if slices.Contains(args, "update") {
		return nil, f.err
	}
	return f.out, f.err
}

// interface guard
var _ PackageIndexLookup = &AptGet{}

func TestNewAptGet(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))
	dir := t.TempDir()

	_, err := NewAptGet(ctx, dir, "arm64", []Repository{
		{URL: "https://deb.debian.org/debian bookworm main"},
		{URL: "https://deb.debian.org/debian-security bookworm-security main", Keyring: "/etc/keys/debian.asc"},
	}, "", &fakeRunner{})
	require.NoError(t, err)

	sources, err := os.ReadFile(filepath.Join(dir, "etc", "apt", "sources.list"))
	require.NoError(t, err)
	assert.EqualValues(t, "deb [arch=arm64 trusted=yes] https://deb.debian.org/debian bookworm main\ndeb [arch=arm64 signed-by=/etc/keys/debian.asc] https://deb.debian.org/debian-security bookworm-security main\n", string(sources))

	assert.FileExists(t, filepath.Join(dir, "state", "status"))
	assert.DirExists(t, filepath.Join(dir, "cache", "archives", "partial"))

	t.Run("malformed repository", func(t *testing.T) {
		_, err := NewAptGet(ctx, t.TempDir(), "amd64", []Repository{{URL: "https://deb.debian.org/debian"}}, "", &fakeRunner{})
		assert.Error(t, err)
	})
	t.Run("malformed options", func(t *testing.T) {
		_, err := NewAptGet(ctx, t.TempDir(), "amd64", nil, "-o 'unterminated", &fakeRunner{})
		assert.Error(t, err)
	})
}

func TestAptGet_Resolve(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	runner := &fakeRunner{out: []byte(printURIs)}
	a, err := NewAptGet(ctx, t.TempDir(), "amd64", []Repository{{URL: "https://deb.debian.org/debian bookworm main"}}, "-o Acquire::Retries=3", runner)
	require.NoError(t, err)

	out, err := a.Resolve(ctx, []string{"libssl3"})
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.True(t, out[0].Direct)
	assert.False(t, out[1].Direct)

	// resolving again must not update a second time
	_, err = a.Resolve(ctx, []string{"tzdata"})
	require.NoError(t, err)

	require.Len(t, runner.calls, 3)
	assert.Contains(t, runner.calls[0], "update")
	assert.Contains(t, runner.calls[1], "--print-uris")
	assert.Contains(t, runner.calls[1], "Acquire::Retries=3")
	assert.EqualValues(t, "libssl3", runner.calls[1][len(runner.calls[1])-1])
	assert.EqualValues(t, "tzdata", runner.calls[2][len(runner.calls[2])-1])

	t.Run("no packages", func(t *testing.T) {
		out, err := a.Resolve(ctx, nil)
		assert.NoError(t, err)
		assert.Empty(t, out)
	})
}

func TestAptGet_ResolveQualified(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	runner := &fakeRunner{out: []byte(printURIs)}
	a, err := NewAptGet(ctx, t.TempDir(), "amd64", nil, "", runner)
	require.NoError(t, err)

	out, err := a.Resolve(ctx, []string{"libssl3=3.0.11-1~deb12u2", "tzdata:all"})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.True(t, out[0].Direct)
	assert.False(t, out[1].Direct)
	assert.True(t, out[2].Direct)

	// the request is passed to apt-get untouched
	assert.Contains(t, runner.calls[1], "libssl3=3.0.11-1~deb12u2")
}

func TestAptGet_ResolveError(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	runner := &fakeRunner{err: errors.New("exit status 100")}
	a, err := NewAptGet(ctx, t.TempDir(), "amd64", nil, "", runner)
	require.NoError(t, err)

	_, err = a.Resolve(ctx, []string{"libssl3"})
	assert.ErrorContains(t, err, "updating package lists")
}
