package config

import (
	"os"
	"strconv"
)

// loadDevelopmentConfig lets a PORT variable (as set by most process
// managers) take over the server port when running locally.
func loadDevelopmentConfig(cfg *Config) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err == nil && port > 0 {
		cfg.ServerPort = port
	}
}

func loadProductionConfig(cfg *Config) {
	cfg.DatabaseDebug = false
}
