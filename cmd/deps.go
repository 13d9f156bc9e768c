package cmd

import (
	"fmt"
	"os"

	"github.com/djcass44/rules-deb/pkg/control"
	"github.com/djcass44/rules-deb/pkg/lockfile"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:   "deps [control file]",
	Short: "print the dependencies of a control file that are part of an archive",
	Args:  cobra.ExactArgs(1),
	RunE:  deps,
}

const flagKnown = "known"

func init() {
	depsCmd.Flags().StringP(flagConfig, "c", "", "path to an archive configuration file whose lockfile defines the known packages")
	depsCmd.Flags().StringSlice(flagKnown, nil, "additional known package names")

	_ = depsCmd.MarkFlagFilename(flagConfig, ".yaml", ".yml")
}

func deps(cmd *cobra.Command, args []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	configPath, _ := cmd.Flags().GetString(flagConfig)
	extra, _ := cmd.Flags().GetStringSlice(flagKnown)

	known := control.NewPackageSet(extra...)
	if configPath != "" {
		lockFile, err := lockfile.Read(cmd.Context(), configPath)
		if err != nil {
			log.Error(err, "failed to read lockfile")
			return err
		}
		for _, k := range lockFile.SortedKeys() {
			known.Add(k)
		}
	}

	log.V(2).Info("known packages", "names", known.Sorted())

	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	res, err := control.Resolve(string(data), known)
	if err != nil {
		log.Error(err, "failed to parse control file", "file", args[0])
		return err
	}
	log.V(1).Info("resolved dependencies", "pkg", res.Package, "deps", res.Depends)

	for _, d := range res.InScope {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), d)
	}
	return nil
}
