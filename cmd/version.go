package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time:
// -ldflags "-X github.com/spigell/cv-matcher/cmd.version=v1.0.0 -X github.com/spigell/cv-matcher/cmd.commit=abc123"
var (
	version = "dev"
	commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and build details",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), versionString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "print only the version")
}

func versionString() string {
	return fmt.Sprintf("%s %s (commit %s, %s, %s/%s)", app, version, commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
