package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/spigell/hh-matcher/internal/dictionary"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the embedded dictionary version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (dictionary %s, %s)\n", app, version, dictionary.Default().Version(), runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
