package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/hts-classify/internal/api"
	"github.com/sells-group/hts-classify/internal/monitoring"
)

var (
	servePort   int
	serveSource string
	serveWarm   bool
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the classification API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, serveSource, false)
		if err != nil {
			return err
		}
		defer env.Close()

		if serveWarm {
			t := env.Loader.Load(ctx, env.Source)
			zap.L().Info("reference table warmed",
				zap.String("source", env.Source),
				zap.Int("rows", t.Len()),
			)
		}

		if cfg.Monitoring.WebhookURL != "" {
			checker := monitoring.NewChecker(env.Metrics, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)
			go checker.Run(ctx)
		}

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", resolvePort()),
			Handler: api.New(env.Service, env.Loader, env.Metrics, api.Options{
				Source:      env.Source,
				CORSOrigins: cfg.Server.CORSOrigins,
			}).Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		return listenAndServe(ctx, srv)
	},
}

func resolvePort() int {
	if servePort != 0 {
		return servePort
	}
	return cfg.Server.Port
}

// listenAndServe runs srv until ctx is done, then shuts it down gracefully.
func listenAndServe(ctx context.Context, srv *http.Server) error {
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("starting server", zap.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveSource, "source", "", "reference source (default from config)")
	serveCmd.Flags().BoolVar(&serveWarm, "warm", false, "load the reference table before accepting requests")
	rootCmd.AddCommand(serveCmd)
}
