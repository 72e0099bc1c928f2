package cmd

import (
	"fmt"
	"runtime"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/conf"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", conf.APP_NAME, conf.Version)
		fmt.Printf("  commit:     %s\n", conf.Commit)
		fmt.Printf("  built at:   %s\n", conf.BuildTime)
		fmt.Printf("  go version: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
