package airutil

import (
	"fmt"
	"strings"

	"github.com/drone/envsubst"
)

func ExpandEnv(s string) string {
	val, _ := envsubst.EvalEnv(s)
	return val
}

// SplitRepository breaks a repository line into its base url,
// release and component.
func SplitRepository(s string) (base, release, component string, err error) {
	bits := strings.Fields(s)
	if len(bits) != 3 {
		return "", "", "", fmt.Errorf("malformed repository url, expecting: 'base release component': %q", s)
	}
	return strings.TrimSuffix(bits[0], "/"), bits[1], bits[2], nil
}
