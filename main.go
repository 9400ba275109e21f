package main

import (
	"embed"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	level := slog.LevelInfo
	if os.Getenv("PLANTVIEW_DEBUG") != "" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	opts := AppOptions{Logger: logger}
	if dir, err := os.UserConfigDir(); err == nil {
		dir = filepath.Join(dir, "plantview")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Warn("no config directory, settings and journal disabled", "err", err)
		} else {
			opts.SettingsPath = filepath.Join(dir, "settings.toml")
			opts.JournalPath = filepath.Join(dir, "journal.db")
		}
	}

	app, err := NewApp(opts)
	if err != nil {
		logger.Error("startup failed", "err", err)
		os.Exit(1)
	}

	err = wails.Run(&options.App{
		Title:  "Plantview",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		logger.Error("wails exited", "err", err)
		os.Exit(1)
	}
}
