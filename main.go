package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vkotusenko/wordduel/internal/directory"
	"github.com/vkotusenko/wordduel/internal/dispatcher"
	"github.com/vkotusenko/wordduel/internal/history"
	"github.com/vkotusenko/wordduel/internal/httpserver"
	"github.com/vkotusenko/wordduel/internal/session"
	"github.com/vkotusenko/wordduel/internal/store"
	"github.com/vkotusenko/wordduel/internal/transport"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(getEnv("DB_PATH", "./data/wordduel.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("apply migrations")
	}

	dir, err := directory.Open(getEnv("DIRECTORY_FILE", "./data/directory.json"), log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("load participant directory")
	}

	cfg := session.Config{
		MaxAttempts: getEnvInt("MAX_ATTEMPTS", session.DefaultMaxAttempts),
		MinWordLen:  getEnvInt("MIN_WORD_LEN", session.DefaultMinWordLen),
		MaxWordLen:  getEnvInt("MAX_WORD_LEN", session.DefaultMaxWordLen),
	}

	sessions := store.NewMemory()
	engine := session.NewEngine(sessions, cfg, log.Logger)
	hist := history.NewStore(db)
	tr := transport.NewWebhook(log.Logger)
	disp := dispatcher.New(engine, dir, tr, hist, cfg, os.Getenv("CELEBRATION_URL"), log.Logger)

	srv := httpserver.New(db, disp, dir, hist)
	addr := getEnv("ADDR", ":8090")
	log.Info().Str("addr", addr).Msg("starting wordduel gateway")
	if err := srv.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
