package packages

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	type Package struct {
		Name string
	}
	pkg := []Package{
		{
			Name: "foo",
		},
		{
			Name: "bar",
		},
	}

	recordFile := filepath.Join(t.TempDir(), "var", "lib", "dpkg", "status")
	err := Record(ctx, recordFile, pkg, func(t Package) string {
		return "Package: " + t.Name + "\n"
	})
	require.NoError(t, err)

	out, err := os.ReadFile(recordFile)
	require.NoError(t, err)

	t.Logf("Record contains:\n%+v", string(out))
	assert.EqualValues(t, "Package: foo\n\nPackage: bar\n\n", string(out))
}
