package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/djcass44/rules-deb/cmd/cache"
	v1 "github.com/djcass44/rules-deb/pkg/api/v1"
	"github.com/djcass44/rules-deb/pkg/apt"
	"github.com/djcass44/rules-deb/pkg/archive"
	"github.com/djcass44/rules-deb/pkg/downloader"
	"github.com/djcass44/rules-deb/pkg/lockfile"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "generate a lockfile",
	RunE:  lock,
}

func init() {
	lockCmd.Flags().StringP(flagConfig, "c", "", "path to an archive configuration file")
	lockCmd.Flags().String(flagCacheDir, "", "cache directory (defaults to user cache dir)")

	_ = lockCmd.MarkFlagRequired(flagConfig)
	_ = lockCmd.MarkFlagFilename(flagConfig, ".yaml", ".yml")
	_ = lockCmd.MarkFlagDirname(flagCacheDir)
}

func lock(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	configPath, _ := cmd.Flags().GetString(flagConfig)
	cacheDir, _ := cmd.Flags().GetString(flagCacheDir)

	// read the config file
	cfg, err := readConfig(configPath)
	if err != nil {
		return err
	}

	configPath, err = filepath.Abs(configPath)
	if err != nil {
		return err
	}
	cacheDir, err = filepath.Abs(cache.Dir(cacheDir))
	if err != nil {
		return err
	}

	if err := enterConfigDir(cmd.Context(), configPath); err != nil {
		return err
	}

	lookup, err := newLookup(cmd.Context(), cfg, cacheDir)
	if err != nil {
		return err
	}

	m := &archive.Materializer{Lookup: lookup}
	lockFile, err := m.Lock(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	log.Info("exporting lockfile", "packages", len(lockFile.Packages))
	return lockfile.Write(cmd.Context(), configPath, lockFile)
}

// enterConfigDir sets our working directory to the directory
// containing the configuration file so that keyrings can be relative.
func enterConfigDir(ctx context.Context, configPath string) error {
	log := logr.FromContextOrDiscard(ctx)

	wd := filepath.Dir(configPath)
	log.Info("updating working directory", "dir", wd)
	if err := os.Chdir(wd); err != nil {
		log.Error(err, "failed to change working directory", "dir", wd)
		return fmt.Errorf("changing working directory: %w", err)
	}
	return nil
}

func newLookup(ctx context.Context, cfg *v1.Archive, cacheDir string) (apt.PackageIndexLookup, error) {
	repos := repositories(cfg.Spec)
	switch cfg.Spec.Resolver {
	case v1.ResolverIndex:
		return apt.NewIndexLookup(ctx, cfg.Spec.Architecture, repos)
	case v1.ResolverAptGet:
		// each set of repositories gets its own apt root so
		// that package lists can be reused between runs
		key := []string{cfg.Spec.Architecture}
		for _, r := range repos {
			key = append(key, r.URL, r.Keyring)
		}
		root := filepath.Join(cacheDir, "apt", downloader.CacheKey(key...))
		return apt.NewAptGet(ctx, root, cfg.Spec.Architecture, repos, cfg.Spec.AptOptions, nil)
	default:
		return nil, fmt.Errorf("unknown resolver: %s", cfg.Spec.Resolver)
	}
}
