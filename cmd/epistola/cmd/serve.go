package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MeKo-Tech/epistola/internal/config"
	"github.com/MeKo-Tech/epistola/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve identification, tagging and annotation over HTTP",
	Long: `Train the language models and load the entity lists once, then answer
requests until SIGINT or SIGTERM.

Endpoints:
  POST /identify  - language of {"text": ...}
  POST /tag       - person and place names in {"text": ...}
  POST /annotate  - annotated copy of a TEI document posted as XML
  GET  /languages - loaded language models
  GET  /health    - liveness and version
  GET  /metrics   - Prometheus metrics
  GET  /ws        - WebSocket carrying identify, tag and annotate messages

Examples:
  epistola serve
  epistola serve --host 0.0.0.0 --port 3000 --cors-origin https://letters.example.org`,
	SilenceUsage: true,
	RunE:         runServeCommand,
}

// serverConfig merges the server section of cfg with the flags set on cmd.
func serverConfig(cmd *cobra.Command, cfg *config.Config) (server.Config, error) {
	sc := cfg.Server
	flags := cmd.Flags()
	if flags.Changed("host") {
		sc.Host, _ = flags.GetString("host")
	}
	if flags.Changed("port") {
		sc.Port, _ = flags.GetInt("port")
	}
	if flags.Changed("cors-origin") {
		sc.CORSOrigin, _ = flags.GetString("cors-origin")
	}
	if flags.Changed("max-body-size") {
		sc.MaxBodyMB, _ = flags.GetInt("max-body-size")
	}
	if flags.Changed("timeout") {
		sc.TimeoutSec, _ = flags.GetInt("timeout")
	}
	if flags.Changed("shutdown-timeout") {
		sc.ShutdownTimeout, _ = flags.GetInt("shutdown-timeout")
	}

	rl := sc.RateLimit
	if flags.Changed("rate-limit") {
		rl.Enabled, _ = flags.GetBool("rate-limit")
	}
	for flag, dst := range map[string]*int{
		"requests-per-minute":  &rl.RequestsPerMinute,
		"requests-per-hour":    &rl.RequestsPerHour,
		"max-requests-per-day": &rl.MaxRequestsPerDay,
		"max-data-per-day":     &rl.MaxDataPerDayMB,
	} {
		if flags.Changed(flag) {
			*dst, _ = flags.GetInt(flag)
		}
	}

	if sc.Port < 1 || sc.Port > 65535 {
		return server.Config{}, fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", sc.Port)
	}
	return server.Config{
		Host:            sc.Host,
		Port:            sc.Port,
		CORSOrigin:      sc.CORSOrigin,
		MaxBodyMB:       int64(sc.MaxBodyMB),
		TimeoutSec:      sc.TimeoutSec,
		ShutdownTimeout: sc.ShutdownTimeout,
		RateLimit: server.RateLimitConfig{
			Enabled:           rl.Enabled,
			RequestsPerMinute: rl.RequestsPerMinute,
			RequestsPerHour:   rl.RequestsPerHour,
			MaxRequestsPerDay: rl.MaxRequestsPerDay,
			MaxDataPerDay:     int64(rl.MaxDataPerDayMB) * 1024 * 1024,
		},
		PipelineConfig: cfg.ToPipelineConfig(),
	}, nil
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	sc, err := serverConfig(cmd, GetConfig())
	if err != nil {
		return err
	}

	api, err := server.NewServer(sc)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}
	mux := http.NewServeMux()
	api.SetupRoutes(mux)

	httpServer := &http.Server{
		Addr:              net.JoinHostPort(sc.Host, strconv.Itoa(sc.Port)),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(sc.TimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(sc.TimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Serving annotation API", "addr", httpServer.Addr, "languages", api.Languages())
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Shutting down", "grace", time.Duration(sc.ShutdownTimeout)*time.Second)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(sc.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("host", "H", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().String("cors-origin", "*", "CORS allowed origins")
	serveCmd.Flags().Int("max-body-size", 10, "maximum request body size in MB")
	serveCmd.Flags().Int("timeout", 30, "request timeout in seconds")
	serveCmd.Flags().Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	serveCmd.Flags().Bool("rate-limit", false, "enforce per-client request limits and daily quotas")
	serveCmd.Flags().Int("requests-per-minute", 60, "maximum requests per minute per client")
	serveCmd.Flags().Int("requests-per-hour", 1000, "maximum requests per hour per client")
	serveCmd.Flags().Int("max-requests-per-day", 5000, "maximum requests per day per client")
	serveCmd.Flags().Int("max-data-per-day", 100, "maximum request data per day per client in MB")
}
