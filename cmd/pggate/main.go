// Package main is the entry point for the pggate service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pggate/pggate/api"
	pgauth "github.com/pggate/pggate/internal/auth"
	"github.com/pggate/pggate/internal/config"
	"github.com/pggate/pggate/internal/pgexec"
	"github.com/pggate/pggate/internal/policy"
	"github.com/pggate/pggate/internal/server"
	"github.com/pggate/pggate/internal/tools"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "pggate").Str("version", version).Logger()

	logger := log.With().Str("component", "main").Logger()
	logger.Info().Str("transport", cfg.Transport).Msg("starting pggate")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	accessLevel, err := policy.ParseAccessLevel(cfg.AccessLevel)
	if err != nil {
		// Misconfiguration degrades to the safest level instead of failing.
		logger.Warn().Err(err).Msg("falling back to readonly access level")
		accessLevel = policy.LevelReadOnly
	}
	guard := policy.NewGuard(accessLevel)
	logger.Info().Str("access_level", guard.Level().String()).Msg("execution policy initialized")

	db, err := pgexec.Open(ctx, cfg.DatabaseURL, log.Logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()

	registry, err := server.NewToolRegistry(api.ToolsContract)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse MCP tool contract")
	}

	resolvedToken, err := pgauth.ResolveToken(pgauth.TokenSourceOptions{
		ConfiguredToken:     cfg.SessionToken,
		AllowCLIConfigToken: cfg.AllowCLIConfigToken,
		CLIConfigPath:       cfg.CLIConfigPath,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to resolve session token")
	}
	if resolvedToken.Token == "" {
		logger.Warn().Msg("no session token resolved; HTTP tool calls will be rejected")
	} else {
		logger.Info().Str("token_source", string(resolvedToken.Source)).Msg("resolved session token")
	}

	runner := tools.NewRunner(db, guard.Level(), cfg.DefaultSchema, log.Logger)

	switch cfg.Transport {
	case config.TransportStdio:
		if runErr := server.RunStdio(ctx, os.Stdin, os.Stdout, registry, guard, runner, version, logger); runErr != nil {
			logger.Error().Err(runErr).Msg("stdio runtime stopped with error")
			os.Exit(1)
		}
		logger.Info().Msg("stdio runtime stopped")

	case config.TransportHTTP:
		authn := server.NewTokenSessionAuthenticator(resolvedToken.Token)
		httpServer := server.NewHTTPServer(
			cfg, version, commit, buildDate,
			api.ToolsContract, registry, guard, authn, runner,
			func() error { return db.Ping(ctx) },
			log.Logger,
		)
		srv := &http.Server{
			Addr:              cfg.ListenAddr,
			Handler:           httpServer.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      0, // allow SSE streaming without forcing writer timeout.
			IdleTimeout:       120 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info().Str("addr", cfg.ListenAddr).Msg("HTTP server listening")
			if serveErr := srv.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
				errCh <- serveErr
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		case serveErr := <-errCh:
			logger.Error().Err(serveErr).Msg("HTTP server error")
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Error().Err(shutdownErr).Msg("HTTP server shutdown error")
			os.Exit(1)
		}
		logger.Info().Msg("server stopped gracefully")

	default:
		logger.Fatal().Str("transport", cfg.Transport).Msg("unsupported transport")
	}
}
