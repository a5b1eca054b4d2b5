package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted onboarding sessions",
	Long:  `List, inspect, and remove sessions held by the configured store.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all sessions",
	Run: func(cmd *cobra.Command, args []string) {
		app, _ := openApp(cmd, true)
		defer app.Close()

		ids, err := app.Service.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}

		if len(ids) == 0 {
			fmt.Println("No sessions found.")
			return
		}

		fmt.Println("Sessions:")
		for _, id := range ids {
			fmt.Println("- " + id)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print a session as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, _ := openApp(cmd, true)
		defer app.Close()

		s, err := app.Service.Session(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", args[0], err)
			os.Exit(1)
		}

		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			fmt.Printf("Error marshaling session: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app, _ := openApp(cmd, true)
		defer app.Close()
		hasError := false

		for _, id := range args {
			if err := app.Service.Delete(cmd.Context(), id); err != nil {
				fmt.Printf("Error removing '%s': %v\n", id, err)
				hasError = true
			} else {
				fmt.Printf("Removed session '%s'\n", id)
			}
		}

		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
