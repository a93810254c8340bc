package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/stemquiz/apps/go-server/assets"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/catalog"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/db"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/httpserver"
	"github.com/robalobadob/stemquiz/apps/go-server/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load clue catalog")
	}
	subjects, clues := cat.Stats()
	log.Info().Int("subjects", subjects).Int("clues", clues).Msg("catalog loaded")
	for _, u := range cat.Unsolvable() {
		log.Warn().Str("subject", u.Subject).Str("answer", u.Answer).Msg("answer has characters outside a-z and cannot be solved")
	}

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer sqlDB.Close()
	if err := db.Migrate(sqlDB, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := store.NewMemoryStore()
	srv := httpserver.New(httpserver.Config{
		Catalog:      cat,
		Store:        sessions,
		DB:           sqlDB,
		Durations:    cfg.Durations,
		ClientOrigin: cfg.ClientOrigin,
		JWTSecret:    cfg.JWTSecret,
		JWTDays:      cfg.JWTDays,
		CookieName:   cfg.CookieName,
		Production:   cfg.Production,
		DailySalt:    cfg.DailySalt,
	})
	go srv.SweepLoop(ctx, time.Minute, cfg.SessionIdle)

	log.Info().Str("port", cfg.Port).Msg("starting quiz server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
