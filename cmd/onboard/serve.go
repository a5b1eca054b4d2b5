package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	onboarding "github.com/techiemaya-admin/lad-onboarding"
	api "github.com/techiemaya-admin/lad-onboarding/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the onboarding engine as a JSON API over HTTP. Session diffs are streamed
at /sessions/{id}/events, metrics are exposed at /metrics and the contract at /openapi.yaml.`,
	Run: func(cmd *cobra.Command, args []string) {
		app, cfg := openApp(cmd, false)
		defer app.Close()

		addr := cfg.Addr
		if port, _ := cmd.Flags().GetString("port"); port != "" {
			addr = ":" + port
		}

		server, err := api.NewServer(cmd.Context(), app.Service,
			api.WithStreams(app.Streams),
			api.WithMetrics(app.Registry),
			api.WithVersion(onboarding.Version),
		)
		if err != nil {
			fmt.Printf("Error initializing API: %v\n", err)
			os.Exit(1)
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			fmt.Printf("Starting Onboarding Server on %s (store: %s)\n", srv.Addr, cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			fmt.Printf("\nStart shutdown... Signal: %v\n", sig)

			// Give outstanding requests a deadline for completion. Open event streams
			// are cut by Close when the deadline passes.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				fmt.Printf("Graceful shutdown did not complete in %v: %v\n", 5*time.Second, err)
				if err := srv.Close(); err != nil {
					fmt.Printf("Error killing server: %v\n", err)
				}
			}
			fmt.Println("Onboarding Server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides ONBOARD_ADDR)")
}
