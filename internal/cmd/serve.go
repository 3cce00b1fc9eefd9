package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/salmonumbrella/bookmarks-cli/internal/server"
)

var (
	serveAddr   string
	serveAPIKey string
)

// listenAndServe is overridden in tests.
var listenAndServe = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve bookmark extraction over HTTP",
	Long: `Serve bookmark extraction over HTTP.

Endpoints:
  GET  /health         liveness and available backends
  POST /v1/bookmarks   extract bookmarks (raw PDF body, or JSON {"input": "base64:..."})
  POST /v1/check       report whether the PDF has bookmarks

Responses use the same envelope as the CLI. When an API key is configured
(--api-key, BOOKMARKS_API_KEY, 'bookmarks auth set-key', or api_key in the
config file) requests must send "Authorization: Bearer <key>".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := loadedConfig
		log := newServerLogger(stderrFromContext(ctx), debug)

		addr := resolveServeAddr(serveAddr, flagChanged(cmd, "addr"), cfg)
		apiKey, keySource := resolveAPIKey(ctx, serveAPIKey, flagChanged(cmd, "api-key"), cfg)
		backend := resolveBackend(cmd, cfg)

		srv := server.NewServer(server.Options{
			Registry:       newRegistryFunc(),
			Backend:        backend,
			APIKey:         apiKey,
			MaxUploadBytes: cfg.EffectiveMaxUploadBytes(),
			Logger:         log,
		})

		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		shutdownDone := make(chan struct{})
		go func() {
			defer close(shutdownDone)
			<-sigCtx.Done()
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpServer.Shutdown(shutdownCtx)
		}()

		fields := logrus.Fields{"addr": addr, "backend": backend, "auth": keySource != ""}
		if keySource != "" {
			fields["auth_source"] = keySource
		} else {
			log.Warn("no API key configured; requests are not authenticated")
		}
		log.WithFields(fields).Info("starting bookmarks server")

		err := listenAndServe(httpServer)
		stop()
		<-shutdownDone
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (env: BOOKMARKS_ADDR, default 127.0.0.1:8088)")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "Require this bearer key (env: BOOKMARKS_API_KEY)")
	rootCmd.AddCommand(serveCmd)
}
