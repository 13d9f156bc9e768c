package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloader_Download(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	content := []byte("this is not really a deb")
	digest := sha256.Sum256(content)
	sum := hex.EncodeToString(digest[:])

	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		_, _ = w.Write(content)
	}))
	defer ts.Close()

	dl, err := NewDownloader(t.TempDir())
	require.NoError(t, err)

	t.Run("file is downloaded", func(t *testing.T) {
		out, err := dl.Download(ctx, ts.URL+"/pool/main/f/foo/foo_1.0_amd64.deb", sum)
		require.NoError(t, err)
		assert.EqualValues(t, sum+".deb", filepath.Base(out))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.EqualValues(t, content, data)
	})
	t.Run("cached file is reused", func(t *testing.T) {
		before := requests.Load()
		_, err := dl.Download(ctx, ts.URL+"/pool/main/f/foo/foo_1.0_amd64.deb", sum)
		require.NoError(t, err)
		assert.EqualValues(t, before, requests.Load())
	})
	t.Run("checksum mismatch", func(t *testing.T) {
		_, err := dl.Download(ctx, ts.URL+"/pool/main/f/foo/foo_1.0_amd64.deb", strings.Repeat("a", 64))
		assert.Error(t, err)
		assert.NoFileExists(t, filepath.Join(dl.cacheDir, strings.Repeat("a", 64)+".deb"))
	})
	t.Run("missing checksum", func(t *testing.T) {
		_, err := dl.Download(ctx, ts.URL+"/pool/main/f/foo/foo_1.0_amd64.deb", "")
		assert.Error(t, err)
	})
}
