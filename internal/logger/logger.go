package logger

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Setup は環境に応じたsloggerを返す。
// localは色付きテキスト、dev/prodはJSON。
func Setup(env string) *slog.Logger {
	switch env {
	case EnvLocal:
		return setupPretty()
	case EnvDev:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}
}

func setupPretty() *slog.Logger {
	color.NoColor = false

	h := &prettyHandler{
		opts: &slog.HandlerOptions{Level: slog.LevelDebug},
		out:  os.Stdout,
	}
	return slog.New(h)
}
