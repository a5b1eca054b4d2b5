package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	onboarding "github.com/techiemaya-admin/lad-onboarding"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of onboard",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("onboard version %s\n", strings.TrimSpace(onboarding.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
