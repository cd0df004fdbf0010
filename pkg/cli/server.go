package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

const (
	serverShutdownWaitSeconds = 5
	serverTimeoutSeconds      = 300
	serverMaxHeaderBytes      = 20
	serverMaxBodyBytes        = 10 << 20

	flagPort = "port"
)

func newServerCmd() *cli.Command {
	return &cli.Command{
		Name:    "server",
		Aliases: []string{"serve"},
		Usage:   "Start local HTTP server with the election JSON API",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  flagPort,
				Usage: "Port on which the server will listen (default from config: 8080)",
			},
		},
	}
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	cfg := getConfig(cmd)
	port := cfg.Config.Server.Port
	if cmd.IsSet(flagPort) {
		port = cmd.Int(flagPort)
	}
	address := fmt.Sprintf("127.0.0.1:%d", port)

	if _, err := cfg.DB(); err != nil {
		return err
	}

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(cfg),
		ReadTimeout:    serverTimeoutSeconds * time.Second,
		WriteTimeout:   serverTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	slog.Info("server started", "address", "http://"+address, "db", cfg.DBPath)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("starting server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownWaitSeconds*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("error shutting down server", "error", err)
	}
	slog.Info("server stopped")
	return nil
}

func makeRouter(cfg *appConfig) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /data/elections", electionsAPIHandler(cfg))
	mux.HandleFunc("GET /data/elections/{name}", electionAPIHandler(cfg))
	mux.HandleFunc("GET /data/elections/{name}/results", resultsAPIHandler(cfg))
	mux.HandleFunc("POST /data/elections/{name}/run", runAPIHandler(cfg))
	mux.HandleFunc("POST /data/resolve", resolveAPIHandler(cfg))

	return mux
}
