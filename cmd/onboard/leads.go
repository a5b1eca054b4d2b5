package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/techiemaya-admin/lad-onboarding/internal/cli"
	"github.com/techiemaya-admin/lad-onboarding/pkg/adapters/sqlite"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List leads held by the SQLite store",
	Long: `Prints the leads saved during onboarding. Requires ONBOARD_SQLITE_PATH (or
--db) to name the database.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		db := openLeadDB(cmd)
		defer db.Close()

		leads, err := db.Leads(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing leads: %v\n", err)
			os.Exit(1)
		}
		if len(leads) == 0 {
			fmt.Println("No leads found.")
			return
		}
		for _, l := range leads {
			fmt.Printf("- %s %s <%s> %s\n", l.ID, l.Name, l.Email, l.LinkedInURL)
		}
	},
}

var leadsBookCmd = &cobra.Command{
	Use:   "book <lead-id> <time>",
	Short: "Schedule a follow-up booking for a lead",
	Long: `Attaches a scheduled booking to a stored lead. The time is RFC 3339, for example
2026-03-02T10:00:00Z. Booked leads are flagged when a later upload repeats them.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		at, err := time.Parse(time.RFC3339, args[1])
		if err != nil {
			fmt.Printf("Invalid time '%s': %v\n", args[1], err)
			os.Exit(1)
		}

		db := openLeadDB(cmd)
		defer db.Close()

		id, err := db.ScheduleBooking(cmd.Context(), args[0], at.UTC().Format(time.RFC3339))
		if err != nil {
			fmt.Printf("Error booking lead '%s': %v\n", args[0], err)
			os.Exit(1)
		}
		fmt.Printf("Booking %s scheduled.\n", id)
	},
}

func init() {
	leadsCmd.PersistentFlags().String("db", "", "SQLite database path (env ONBOARD_SQLITE_PATH)")
	rootCmd.AddCommand(leadsCmd)
	leadsCmd.AddCommand(leadsBookCmd)
}

func openLeadDB(cmd *cobra.Command) *sqlite.Store {
	cfg := loadConfig(cmd)
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		path = cfg.SQLitePath
	}
	if path == "" {
		fmt.Println("No lead database configured: set ONBOARD_SQLITE_PATH or --db")
		os.Exit(1)
	}
	debug, _ := cmd.Flags().GetBool("debug")
	db, err := sqlite.Open(cmd.Context(), path, sqlite.WithLogger(cli.NewLogger(cfg.LogLevel, debug, true)))
	if err != nil {
		fmt.Printf("Error opening lead database: %v\n", err)
		os.Exit(1)
	}
	return db
}
