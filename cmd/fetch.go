package cmd

import (
	"path/filepath"

	"github.com/djcass44/rules-deb/cmd/cache"
	"github.com/djcass44/rules-deb/pkg/archive"
	"github.com/djcass44/rules-deb/pkg/downloader"
	"github.com/djcass44/rules-deb/pkg/lockfile"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "download and unpack the packages in a lockfile",
	RunE:  fetch,
}

const (
	flagOutput   = "output"
	flagParallel = "parallel"
	flagProgress = "progress"
)

func init() {
	fetchCmd.Flags().StringP(flagConfig, "c", "", "path to an archive configuration file")
	fetchCmd.Flags().StringP(flagOutput, "o", "", "directory to unpack packages into")
	fetchCmd.Flags().String(flagCacheDir, "", "cache directory (defaults to user cache dir)")
	fetchCmd.Flags().Int(flagParallel, 4, "number of concurrent downloads")
	fetchCmd.Flags().Bool(flagProgress, false, "show download progress")

	_ = fetchCmd.MarkFlagRequired(flagConfig)
	_ = fetchCmd.MarkFlagRequired(flagOutput)
	_ = fetchCmd.MarkFlagFilename(flagConfig, ".yaml", ".yml")
	_ = fetchCmd.MarkFlagDirname(flagOutput)
	_ = fetchCmd.MarkFlagDirname(flagCacheDir)
}

func fetch(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	configPath, _ := cmd.Flags().GetString(flagConfig)
	outPath, _ := cmd.Flags().GetString(flagOutput)
	cacheDir, _ := cmd.Flags().GetString(flagCacheDir)
	parallel, _ := cmd.Flags().GetInt(flagParallel)
	progress, _ := cmd.Flags().GetBool(flagProgress)

	cfg, err := readConfig(configPath)
	if err != nil {
		return err
	}

	lockFile, err := lockfile.Read(cmd.Context(), configPath)
	if err != nil {
		log.Error(err, "failed to read lockfile")
		return err
	}
	if err := lockFile.Validate(cfg.Spec); err != nil {
		log.Error(err, "lockfile is out of date")
		return err
	}

	outPath, err = filepath.Abs(outPath)
	if err != nil {
		return err
	}

	var opts []downloader.Option
	if progress {
		opts = append(opts, downloader.WithProgress())
	}
	dl, err := downloader.NewDownloader(cache.Dir(cacheDir), opts...)
	if err != nil {
		return err
	}

	m := &archive.Materializer{
		Downloader: dl,
		Out:        outPath,
		Parallel:   parallel,
	}
	_, err = m.Materialize(cmd.Context(), lockFile)
	return err
}
