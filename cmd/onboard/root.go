package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/techiemaya-admin/lad-onboarding/internal/cli"
	"github.com/techiemaya-admin/lad-onboarding/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Onboard turns a short chat into an outreach campaign",
	Long: `Onboard walks a user through choosing outreach platforms and actions, resolves
the dependencies between actions and assembles the campaign workflow from the answers.

Configuration is read from the environment and an optional .env file (ONBOARD_STORE,
ONBOARD_SESSION_DIR, REDIS_URL, OPENAI_API_KEY, ONBOARD_SQLITE_PATH, ...). Flags win
over the environment.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging on stderr")
	rootCmd.PersistentFlags().String("store", "", "Session store: memory, file or redis (env ONBOARD_STORE)")
	rootCmd.PersistentFlags().String("dir", "", "Session directory of the file store (env ONBOARD_SESSION_DIR)")
}

// loadConfig reads the environment and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		cfg.Store = store
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.SessionDir = dir
	}
	return cfg
}

// openApp wires the Service. quiet keeps info logs off unless --debug is set.
func openApp(cmd *cobra.Command, quiet bool) (*cli.App, config.Config) {
	cfg := loadConfig(cmd)
	debug, _ := cmd.Flags().GetBool("debug")
	logger := cli.NewLogger(cfg.LogLevel, debug, quiet)

	app, err := cli.NewApp(cmd.Context(), cfg, logger)
	if err != nil {
		fmt.Printf("Error initializing onboarding: %v\n", err)
		os.Exit(1)
	}
	return app, cfg
}
