package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"crimevision/config"
	"crimevision/core/appbootstrap"
	"crimevision/core/utils"
)

func main() {
	configPath := flag.String("config", os.Getenv("CRIMEVISION_CONFIG"), "path to yaml config")
	flag.Parse()

	// Missing .env is fine, environment variables still apply.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.IsProduction(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	logger.Infof("starting crimevision env=%s driver=%s addr=%s", cfg.AppEnv, cfg.DBDriver, cfg.ListenAddr)
	if err := appbootstrap.Run(cfg, logger); err != nil {
		logger.Errorf("server error: %v", err)
		os.Exit(1)
	}
}
