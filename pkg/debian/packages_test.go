package debian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	var cases = []struct {
		in         string
		names      []string
		constraint string
		version    string
	}{
		{"libc6 (>= 2.34)", []string{"libc6"}, ">=", "2.34"},
		{"libssl3 (= 3.0.11-1~deb12u2)", []string{"libssl3"}, "=", "3.0.11-1~deb12u2"},
		{"libgcc-s1 (<< 1:13)", []string{"libgcc-s1"}, "<<", "1:13"},
		{"zlib1g", []string{"zlib1g"}, "", ""},
		{"debconf-2.0 | debconf (>= 0.5)", []string{"debconf-2.0", "debconf"}, ">=", "0.5"},
		{"libc6-dev | libc-dev", []string{"libc6-dev", "libc-dev"}, "", ""},
		{"  perl:any (>= 5.36)", []string{"perl"}, ">=", "5.36"},
		{"libc6.1 [ia64]", []string{"libc6.1"}, "", ""},
	}

	for _, tt := range cases {
		t.Run(tt.in, func(t *testing.T) {
			out, err := ParseVersion(tt.in)
			require.NoError(t, err)
			assert.EqualValues(t, tt.names, out.Names)
			assert.EqualValues(t, tt.constraint, out.Constraint)
			assert.EqualValues(t, tt.version, out.Version)
		})
	}

	t.Run("no package name", func(t *testing.T) {
		_, err := ParseVersion("(>= 1.0)")
		assert.Error(t, err)
	})
}

func TestPackageVersion_Matches(t *testing.T) {
	var cases = []struct {
		name    string
		version string
		pv      PackageVersion
		ok      bool
	}{
		{"less or equal", "3.0.11-1~deb12u1", PackageVersion{Constraint: "<=", Version: "3.0.11-1~deb12u2"}, true},
		{"tilde sorts first", "3.0.11-1~deb12u2", PackageVersion{Constraint: ">=", Version: "3.0.11-1"}, false},
		{"strictly greater", "2.36-9", PackageVersion{Constraint: ">>", Version: "2.36-9"}, false},
		{"strictly less with epoch", "12.2.0-14", PackageVersion{Constraint: "<<", Version: "1:13"}, true},
		{"exact", "1.2.13.dfsg-1", PackageVersion{Constraint: "=", Version: "1.2.13.dfsg-1"}, true},
		{"unknown version", "", PackageVersion{Constraint: ">=", Version: "1.0"}, true},
		{"no constraint", "1.0", PackageVersion{}, true},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualValues(t, tt.ok, tt.pv.Matches(tt.version))
		})
	}
}

func TestPackage_String(t *testing.T) {
	p := &Package{Package: "zlib1g", Version: "1:1.2.13.dfsg-1"}
	assert.EqualValues(t, "zlib1g=1:1.2.13.dfsg-1", p.String())
}
