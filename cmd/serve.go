package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/joescharf/tracker/internal/api"
	"github.com/joescharf/tracker/internal/daemon"
	"github.com/joescharf/tracker/internal/graph"
	"github.com/joescharf/tracker/internal/health"
	"github.com/joescharf/tracker/internal/logging"
	"github.com/joescharf/tracker/internal/metrics"
	"github.com/joescharf/tracker/internal/middleware"
	"github.com/joescharf/tracker/internal/tracker"
)

const (
	shutdownTimeout = 10 * time.Second
	healthTimeout   = 2 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the GraphQL and REST server",
	Long: `Start an HTTP server exposing:

  POST /graphql    GraphQL queries and mutations
  /api/v1/...      REST mirror of the same operations
  GET  /healthz    health report (database reachability)
  GET  /metrics    Prometheus metrics

By default it listens on port 8080. Use --port or server.port to change it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(commandContext(cmd))
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a server is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	serveCmd.AddCommand(serveStatusCmd)
	serveCmd.AddCommand(serveStopCmd)
	rootCmd.AddCommand(serveCmd)
}

func stateFile() *daemon.StateFile {
	return daemon.NewStateFile(filepath.Join(viper.GetString("state_dir"), "tracker-serve.state"))
}

// newServerHandler assembles every HTTP surface behind the shared middleware.
func newServerHandler(svc *tracker.Service, m *metrics.Metrics, checker *health.Checker, log *zap.Logger) (http.Handler, error) {
	gql, err := graph.NewHandler(svc)
	if err != nil {
		return nil, fmt.Errorf("build graphql schema: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/graphql", middleware.CORS(gql))
	mux.Handle("/api/v1/", api.NewServer(svc).Router())
	mux.Handle("GET /metrics", m.Handler())
	mux.Handle("GET /healthz", checker.Handler())

	return middleware.RequestID(logging.Middleware(log)(m.Middleware(mux))), nil
}

// newHealthChecker checks the shared store on every probe.
func newHealthChecker() (*health.Checker, error) {
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	checker := health.NewChecker(healthTimeout)
	checker.Add("database", s.Ping)
	return checker, nil
}

func serveRun(ctx context.Context) error {
	sf := stateFile()
	if rec, err := sf.Running(); err == nil {
		return fmt.Errorf("server already running (pid %d on %s)", rec.PID, rec.Addr)
	}

	m := metrics.New()
	svc, err := getService(tracker.WithObserver(m))
	if err != nil {
		return err
	}

	checker, err := newHealthChecker()
	if err != nil {
		return err
	}

	handler, err := newServerHandler(svc, m, checker, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", viper.GetInt("server.port"))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	if err := sf.Write(ln.Addr().String()); err != nil {
		_ = ln.Close()
		return err
	}
	defer func() { _ = sf.Remove() }()

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, shutdownSignals()...)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	ui.Success("Serving GraphQL at http://localhost%s/graphql", addr)
	logger.Info("server started", zap.String("addr", ln.Addr().String()), zap.String("db", viper.GetString("db.driver")))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func serveStatusRun() error {
	rec, err := stateFile().Running()
	if errors.Is(err, daemon.ErrNotRunning) {
		if ui.JSON {
			return ui.PrintJSON(map[string]any{"running": false})
		}
		ui.Info("Server is not running")
		return nil
	}
	if err != nil {
		return err
	}

	if ui.JSON {
		return ui.PrintJSON(map[string]any{
			"running":   true,
			"pid":       rec.PID,
			"addr":      rec.Addr,
			"startedAt": rec.StartedAt,
		})
	}
	ui.Success("Server is running (pid %d)", rec.PID)
	fmt.Fprintf(ui.Out, "  Address:  %s\n", rec.Addr)
	fmt.Fprintf(ui.Out, "  Uptime:   %s\n", rec.Uptime().Round(time.Second))
	return nil
}

func serveStopRun() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	rec, err := stateFile().Stop(ctx)
	if err != nil {
		return err
	}
	ui.Success("Stopped server (pid %d)", rec.PID)
	return nil
}
