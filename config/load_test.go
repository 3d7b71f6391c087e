package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Errorf("db driver = %q", cfg.DBDriver)
	}
	if cfg.ListenAddr != "0.0.0.0:8000" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.Geo.MinLat != 40.0 || cfg.Geo.MaxLat != 55.0 || cfg.Geo.MinLon != 46.0 || cfg.Geo.MaxLon != 87.0 {
		t.Errorf("geo envelope = %+v", cfg.Geo)
	}
	if cfg.Geo.PointCap != 5000 {
		t.Errorf("point cap = %d", cfg.Geo.PointCap)
	}
	if !cfg.Snapshots.Enabled || cfg.Snapshots.Cron != "0 2 * * *" {
		t.Errorf("snapshots = %+v", cfg.Snapshots)
	}
	if cfg.IsProduction() {
		t.Error("default env should not be production")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CRIMEVISION_DB_DRIVER", "postgres")
	t.Setenv("CRIMEVISION_DB_URL", "postgres://u:p@db:5432/crimes")
	t.Setenv("CRIMEVISION_APP_ENV", "production")
	t.Setenv("CRIMEVISION_CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Errorf("db driver = %q", cfg.DBDriver)
	}
	if !cfg.IsProduction() {
		t.Error("production env not detected")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "db_driver: sqlite\ndb_path: /tmp/x.db\nlisten_addr: 127.0.0.1:9000\ngeo:\n  min_lat: 41\n  max_lat: 52\n  min_lon: 50\n  max_lon: 80\n  point_cap: 100\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:9000" {
		t.Errorf("listen addr = %q", cfg.ListenAddr)
	}
	if cfg.Geo.PointCap != 100 {
		t.Errorf("point cap = %d", cfg.Geo.PointCap)
	}
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "no-such.yaml")); err == nil {
		t.Fatal("missing config file accepted")
	}
}

func TestValidate_Rejections(t *testing.T) {
	t.Setenv("CRIMEVISION_DB_DRIVER", "oracle")
	if _, err := Load(""); err == nil {
		t.Fatal("bad driver accepted")
	}

	t.Setenv("CRIMEVISION_DB_DRIVER", "sqlite")
	t.Setenv("CRIMEVISION_GEO_MIN_LAT", "60")
	if _, err := Load(""); err == nil {
		t.Fatal("empty geo envelope accepted")
	}
}
