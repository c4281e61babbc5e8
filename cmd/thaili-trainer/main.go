package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	cli "github.com/spf13/pflag"

	log "log/slog"

	"thaili/internal/config"
	"thaili/internal/corpus"
	"thaili/internal/trainingapi"
)

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	addr := cli.StringP("addr", "a", "", "Listen address (default from THAILI_TRAINER_ADDR or :8085)")
	rateLimit := cli.IntP("rate", "r", -1, "Requests per minute per client, 0 disables")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	_ = godotenv.Load(*envFile)

	level, ok := config.LogLevels[*logLevel]
	if !ok {
		level = log.LevelInfo
	}
	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{Level: level})))

	cfg := trainingapi.Config{Addr: os.Getenv(config.EnvPrefix + "_TRAINER_ADDR"), RateLimitPerMin: 60}
	if cfg.Addr == "" {
		cfg.Addr = ":8085"
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *rateLimit >= 0 {
		cfg.RateLimitPerMin = *rateLimit
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmds := corpus.New(corpus.ServerSeed())
	log.Info("Booting training API", "commands", cmds.Len(), "rate_limit", cfg.RateLimitPerMin)

	if err := trainingapi.New(cmds, cfg).Run(ctx); err != nil {
		log.Error("Training API failed", "err", err)
		os.Exit(1)
	}
}
