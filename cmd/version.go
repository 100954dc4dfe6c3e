package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion   = "dev"
	appBuildTime = "unknown"
)

// SetVersion records the build metadata injected through ldflags
func SetVersion(version, buildTime string) {
	appVersion = version
	appBuildTime = buildTime
	rootCmd.Version = version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("autolabel %s (built %s)\n", appVersion, appBuildTime)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
