package archiveutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blakesmith/ar"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnar(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	var buf bytes.Buffer
	w := ar.NewWriter(&buf)
	require.NoError(t, w.WriteGlobalHeader())
	for name, body := range map[string]string{
		"debian-binary": "2.0\n",
		"test.txt/":     "hello world",
	} {
		require.NoError(t, w.WriteHeader(&ar.Header{
			Name:    name,
			Size:    int64(len(body)),
			Mode:    0644,
			ModTime: time.Now(),
		}))
		_, err := w.Write([]byte(body))
		require.NoError(t, err)
	}

	dir := t.TempDir()
	err := Unar(ctx, &buf, dir)
	assert.NoError(t, err)

	out, err := os.ReadFile(filepath.Join(dir, "test.txt"))
	assert.NoError(t, err)
	assert.EqualValues(t, "hello world", string(out))
	assert.FileExists(t, filepath.Join(dir, "debian-binary"))
}
