package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/pyama86/slanning-control/handler"
)

func init() {
	// .env は無くてもよい
	_ = godotenv.Load()

	requiredEnv := []string{
		"SLACK_BOT_TOKEN",
		"SLACK_APP_TOKEN",
	}
	for _, env := range requiredEnv {
		if os.Getenv(env) == "" {
			slog.Error("required environment variable not set", slog.String("env", env))
			os.Exit(1)
		}
	}
}

func main() {
	h, err := handler.NewHandler()
	if err != nil {
		slog.Error("NewHandler failed", slog.Any("err", err))
		os.Exit(1)
	}

	// 毎朝のダイジェスト投稿
	h.StartDigestMonitor()

	slog.Info("Planning bot starting")
	if err := h.Handle(); err != nil {
		slog.Error("Bot failed", slog.Any("err", err))
		os.Exit(1)
	}
}
