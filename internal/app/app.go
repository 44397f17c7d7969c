package app

import (
	"io"
	"log/slog"

	"github.com/specialistvlad/minipack/internal/config"
	"github.com/specialistvlad/minipack/internal/fsys"
)

// translationCacheSize bounds the translated units kept per bundle.
const translationCacheSize = 512

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger *slog.Logger
	config *Config
	loader config.Loader
	fs     fsys.FS
}

// NewApp is the constructor for the main application. Logs go to logW with
// the level and format from cfg. A nil fs means the real file system.
func NewApp(logW io.Writer, cfg *Config, loader config.Loader, fs fsys.FS) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	if fs == nil {
		fs = fsys.New()
	}
	logger.Debug("Logger configured successfully.")

	return &App{
		logger: logger,
		config: cfg,
		loader: loader,
		fs:     fs,
	}
}
