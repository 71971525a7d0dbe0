package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	ascendia "github.com/Sam-lateef/Ascendia-booking-sub000"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of ascendia",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ascendia version %s\n", strings.TrimSpace(ascendia.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
