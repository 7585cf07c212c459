package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/fedrepo/internal/app"
	"github.com/zjrosen/fedrepo/internal/log"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the RPC server",
	Long: `Run the fedrepo RPC server. Peers and clients call POST /v1/{Kind}.{method}
with JSON bodies; GET /health reports liveness.

Example:
  fedrepo serve                    # Listen on server.addr from config
  fedrepo serve --addr :9090       # Override the listen address`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.ErrorErr(log.CatAPI, "Error closing service", err)
		}
	}()

	out := cmd.OutOrStdout()
	err = a.Serve(ctx, shutdownTimeout, func(port int) {
		_, _ = fmt.Fprintf(out, "fedrepo listening on port %d\n", port)
		_, _ = fmt.Fprintln(out, "Press Ctrl+C to stop")
	})
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out, "fedrepo stopped")
	return nil
}
