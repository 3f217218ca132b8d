package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/config"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/jsonapi"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/logger"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/schema"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/server"
	"github.com/krew-solutions/ascetic-jsonapi-go/asceticjsonapi/session/pg"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to load config")
	}

	log, err := logger.New(cfg.Log.Level, cfg.Primary.Env)
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("failed to build logger")
	}

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry, tables, err := schema.Load(cfg.Schema.Path)
	if err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, logger.NewQueryTracer(log))
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Name).Msg("connected to database")

	engine := jsonapi.New(
		pg.NewSessionPool(pool),
		jsonapi.Config{Registry: registry, Tables: tables},
		jsonapi.WithLogger(log),
	)

	e := server.New(engine, log)
	read, write, idle := cfg.Server.Timeouts()
	e.Server = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Primary.Env).Msg("starting server")
		serveErr <- e.StartServer(e.Server)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
