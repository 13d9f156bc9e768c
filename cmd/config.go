package cmd

import (
	"fmt"
	"os"

	"github.com/djcass44/rules-deb/pkg/airutil"
	v1 "github.com/djcass44/rules-deb/pkg/api/v1"
	"github.com/djcass44/rules-deb/pkg/apt"
	"k8s.io/apimachinery/pkg/util/yaml"
)

const (
	flagConfig   = "config"
	flagCacheDir = "cache-dir"
)

func readConfig(s string) (*v1.Archive, error) {
	f, err := os.Open(s)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var config v1.Archive
	if err := yaml.NewYAMLOrJSONDecoder(f, 4).Decode(&config); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if config.Spec.Architecture == "" {
		config.Spec.Architecture = v1.DefaultArchitecture
	}
	if config.Spec.Resolver == "" {
		config.Spec.Resolver = v1.ResolverAptGet
	}
	return &config, nil
}

// repositories expands environment variables in the
// configured repositories.
func repositories(spec v1.ArchiveSpec) []apt.Repository {
	out := make([]apt.Repository, len(spec.Repositories))
	for i, r := range spec.Repositories {
		out[i] = apt.Repository{
			URL:     airutil.ExpandEnv(r.URL),
			Keyring: airutil.ExpandEnv(r.Keyring),
		}
	}
	return out
}
