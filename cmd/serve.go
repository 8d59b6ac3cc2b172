package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobprofit/storage"
	"jobprofit/web"
)

var (
	servePort   int
	serveHost   string
	serveDBPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored builds as a local read-only JSON API",
	Long: `Start a local HTTP server over the SQLite build store.

Endpoints:
- GET /api/builds
- GET /api/builds/{run}/report
- GET /api/builds/{run}/facts?job=&month=&department=&dept_status=
- GET /api/builds/{run}/summaries/{job-month|job-total|quote-vs-actual}

Use "latest" as {run} for the most recent build. The server binds to localhost by default.`,
	Example: `
  # Serve the configured database on the default port
  jobprofit serve

  # Serve a specific database on port 9090
  jobprofit serve --port 9090 --db ./jobprofit.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		store, err := storage.OpenSQLite(resolveDBPath(serveDBPath))
		if err != nil {
			return err
		}
		defer store.Close()

		addr := fmt.Sprintf("%s:%d", serveHost, servePort)
		server := &http.Server{
			Addr:              addr,
			Handler:           web.NewServer(store, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		fmt.Printf("Listening on http://%s\n", addr)
		logger.Info("serving build store", zap.String("addr", addr))

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 8080, "HTTP port for the local server")
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Interface to bind")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Path to the SQLite build store (default from config)")
}
