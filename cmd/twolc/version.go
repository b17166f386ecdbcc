package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/twolc"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of twolc",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "twolc version %s\n", strings.TrimSpace(twolc.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
