// apps/go-server/main.go
//
// Entry point for the Minesweeper Go server.
//   1. Load .env and configure the zerolog level.
//   2. Open SQLite and apply migrations (history, users, daily results).
//   3. Load board presets.
//   4. Serve the HTTP/WebSocket API with a wall-clock game timer, sweeping
//      finished and idle games in the background.

package main

import (
	"context"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/minesweeper/apps/go-server/internal/config"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/httpserver"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/presets"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/store"
	"github.com/robalobadob/minesweeper/apps/go-server/internal/timer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	db, err := openDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open db")
	}
	defer db.Close()
	if err := migrate(db, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	if err := presets.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to load presets")
	}

	mem := store.NewMemoryStore()
	clock := timer.NewTicker(cfg.TickInterval)
	srv := httpserver.New(cfg, mem, db, clock)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.RunSweeper(ctx, cfg.SweepInterval)

	log.Info().Str("port", cfg.Port).Strs("presets", presets.Names()).Bool("strictWin", cfg.StrictWin).
		Dur("sessionIdleTTL", cfg.SessionIdleTTL).Dur("finishedTTL", cfg.FinishedTTL).Msg("starting go-server")
	if err := srv.Start(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
