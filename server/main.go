package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	configFile := flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	// A local .env is a developer convenience; absence is fine
	_ = godotenv.Load()

	cfg, err := LoadConfig(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	logger := setupLogging(cfg.LogLevel, cfg.LogPretty)

	db, err := OpenDB(cfg.StatsDSN)
	if err != nil {
		log.Fatal().Err(err).Str("dsn", cfg.StatsDSN).Msg("stats db open failed")
	}
	stats := NewAnalytics(db)

	auth, err := NewAuth(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("auth setup failed")
	}

	hub := NewHub()
	game := NewGame(cfg.GameSettings(), stats, logger)
	go game.Run()

	srv := NewServer(cfg, hub, game, auth, db)
	httpServer := &http.Server{Addr: cfg.Addr, Handler: srv.Routes()}

	StartDebugServer(cfg.DebugAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", cfg.Addr).Bool("auth", cfg.AuthEnabled).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen failed")
		}
	}()

	<-stop
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown incomplete")
	}

	game.Stop()
	stats.Stop()
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("stats db close failed")
	}
}
