package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Load reads configuration from an optional YAML file and the environment.
// Environment variables always win over file values.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, err
		}
		return cfg, validate(cfg)
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, validate(cfg)
}

func validate(cfg *AppConfig) error {
	switch cfg.DBDriver {
	case "sqlite", "postgres":
	default:
		return errors.New("config: db_driver must be sqlite or postgres")
	}
	if cfg.DBDriver == "sqlite" && cfg.DBPath == "" {
		return errors.New("config: db_path is required for the sqlite driver")
	}
	if cfg.DBDriver == "postgres" && cfg.DBURL == "" {
		return errors.New("config: db_url is required for the postgres driver")
	}
	g := cfg.Geo
	if g.MinLat >= g.MaxLat || g.MinLon >= g.MaxLon {
		return errors.New("config: geo envelope is empty")
	}
	if g.PointCap <= 0 {
		cfg.Geo.PointCap = 5000
	}
	return nil
}
