package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	CanvasWidth      int    `envconfig:"CANVAS_WIDTH" default:"1280"`
	CanvasHeight     int    `envconfig:"CANVAS_HEIGHT" default:"720"`
	CanvasBackground string `envconfig:"CANVAS_BACKGROUND" default:"#2e342d"`
	HistoryLimit     int    `envconfig:"HISTORY_LIMIT" default:"50"`
	JPEGQuality      int    `envconfig:"JPEG_QUALITY" default:"92"`
	FrameRate        int    `envconfig:"FRAME_RATE" default:"60"`

	ExportRateLimit float64 `envconfig:"EXPORT_RATE_LIMIT" default:"2"`
	ExportBurst     int     `envconfig:"EXPORT_BURST" default:"5"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("read .env", "error", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.CanvasWidth <= 0 || cfg.CanvasHeight <= 0 {
		return nil, fmt.Errorf("canvas size %dx%d must be positive", cfg.CanvasWidth, cfg.CanvasHeight)
	}
	if cfg.FrameRate <= 0 {
		return nil, fmt.Errorf("frame rate %d must be positive", cfg.FrameRate)
	}
	return &cfg, nil
}

// Origins splits ALLOWED_ORIGINS into trimmed, non-empty entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
