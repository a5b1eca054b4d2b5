package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/techiemaya-admin/lad-onboarding/pkg/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [file]",
	Short: "Show the platform catalog",
	Long: `Prints the platforms and actions the interview offers, with the dependencies
between actions. Without an argument the catalog named by ONBOARD_CATALOG, or the
embedded default, is shown.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c, err := loadCatalog(cmd, args)
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}

		for _, p := range c.Platforms {
			fmt.Printf("%s (%s)\n", p.Label, p.ID)
			for _, r := range p.Rules() {
				line := fmt.Sprintf("  - %s: %s", r.Action, p.LabelOf(r.Action))
				if r.VariantOf != "" {
					line += fmt.Sprintf(" [variant of %s]", r.VariantOf)
				}
				if len(r.Requires) > 0 {
					line += " requires " + strings.Join(r.Requires, ", ")
				}
				fmt.Println(line)
			}
		}
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a catalog file for consistency",
	Long:  `Reports unknown requirements, broken variant families and dependency cycles.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if _, err := catalog.Load(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Catalog is valid! ✅")
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}

func loadCatalog(cmd *cobra.Command, args []string) (*catalog.Catalog, error) {
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		path = loadConfig(cmd).CatalogPath
	}
	if path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(path)
}
