package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/techiemaya-admin/lad-onboarding/internal/presentation/graph"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <session-id>",
	Short: "Export a session workflow as Mermaid",
	Long: `Loads a session and outputs its assembled workflow as a Mermaid diagram (graph TD).
Steps already covered by the conversation are highlighted unless --plain is set.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, _ := openApp(cmd, true)
		defer app.Close()

		s, err := app.Service.Session(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", args[0], err)
			os.Exit(1)
		}

		var overlay *graph.GraphOverlay
		if plain, _ := cmd.Flags().GetBool("plain"); !plain {
			overlay = graph.OverlayFor(s)
		}
		fmt.Print(graph.GenerateMermaid(s.Workflow, overlay))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().Bool("plain", false, "Skip the progress overlay")
}
