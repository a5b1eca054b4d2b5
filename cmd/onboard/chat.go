package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/techiemaya-admin/lad-onboarding/internal/cli"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run the onboarding interview in the terminal",
	Long: `Runs the onboarding interview interactively. Answer with option numbers or free text;
multi-select questions take comma separated numbers.

Commands: /reset restarts the interview, /launch starts the campaign once configured,
/exit (or Ctrl+D) leaves. Sessions are persisted, so --session resumes a chat.`,
	Run: func(cmd *cobra.Command, args []string) {
		jsonMode, _ := cmd.Flags().GetBool("json")
		sessionID, _ := cmd.Flags().GetString("session")

		app, _ := openApp(cmd, true)
		defer app.Close()

		debug, _ := cmd.Flags().GetBool("debug")
		ctx, interrupted, stop := cli.WithInterrupt(cmd.Context())
		defer stop()

		err := cli.RunChat(ctx, app.Service, cli.ChatOptions{
			SessionID: sessionID,
			JSON:      jsonMode,
			Logger:    cli.NewLogger(0, debug, true),
		})
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if interrupted() && !jsonMode {
			fmt.Println("[CTRL+C]")
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringP("session", "s", "", "Session ID to start or resume (generated when empty)")
	chatCmd.Flags().Bool("json", false, "Read JSON replies from stdin and write turns as JSON lines")
}
