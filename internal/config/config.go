package config

import (
	"context"
	"flag"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v6"

	"github.com/rangkeep/rangs/internal/model"
)

type Config struct {
	RunAddr      string        `env:"RUN_ADDRESS"      envDefault:"localhost:8080"`
	DatabaseURI  string        `env:"DATABASE_URI"     envDefault:""`
	TrackerAddr  string        `env:"TRACKER_ADDRESS"  envDefault:""`
	CatalogAddr  string        `env:"CATALOG_ADDRESS"  envDefault:"localhost:8081"`
	SecretKey    string        `env:"SECRET_KEY"       envDefault:""`
	LogLevel     string        `env:"LOG_LEVEL"        envDefault:"info"`
	PollInterval time.Duration `env:"POLL_INTERVAL"    envDefault:"5s"`
}

type Builder struct {
	cfg *Config
	log *slog.Logger
}

func NewBuilder(log *slog.Logger) *Builder {
	return &Builder{
		cfg: &Config{},
		log: log,
	}
}

func (b *Builder) FromEnv() *Builder {
	if err := env.Parse(b.cfg); err != nil {
		b.log.LogAttrs(context.Background(),
			slog.LevelError, "Failed to parse config", slog.Any(model.KeyLoggerError, err))
	}
	return b
}

func (b *Builder) FromFlags() *Builder {
	flag.StringVar(&b.cfg.RunAddr, "a", b.cfg.RunAddr, "Run address")
	flag.StringVar(&b.cfg.DatabaseURI, "d", b.cfg.DatabaseURI, "Database URI")
	flag.StringVar(&b.cfg.TrackerAddr, "t", b.cfg.TrackerAddr, "Tracker address")
	flag.StringVar(&b.cfg.CatalogAddr, "c", b.cfg.CatalogAddr, "Catalog address")
	flag.StringVar(&b.cfg.SecretKey, "k", b.cfg.SecretKey, "Secret key")
	flag.StringVar(&b.cfg.LogLevel, "l", b.cfg.LogLevel, "Log level")
	flag.DurationVar(&b.cfg.PollInterval, "i", b.cfg.PollInterval, "Tracker poll interval")

	flag.Parse()
	return b
}

func (b *Builder) GetConfig() *Config {
	return b.cfg
}
