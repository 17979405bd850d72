package config

import (
	"os"
	"path/filepath"
	"strconv"
)

type Config struct {
	DatabasePath string
	DatabaseDir  string
	ServerPort   string
	FrontendURL  string

	// Shared secrets for the two machine-to-machine sync paths.
	ElegooHubSecret string
	CronSecret      string
	APIKey          string

	// Wall-clock interval each sync path contributes to the printing-time
	// ledger per cycle.
	BambuSyncIntervalSeconds  int
	ElegooSyncIntervalSeconds int

	// Time window policies, "HH:MM".
	OfficeStartTime string
	OfficeEndTime   string
	LaunchStartTime string
	LaunchEndTime   string
}

// GetConfig returns the application configuration based on environment variables
func GetConfig() (*Config, error) {
	config := &Config{}

	// Database configuration
	if dbPath := os.Getenv("PRINTFARM_DB_PATH"); dbPath != "" {
		config.DatabasePath = dbPath
		config.DatabaseDir = filepath.Dir(dbPath)
	} else {
		// Default database location
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		config.DatabaseDir = filepath.Join(homeDir, ".printfarm")
		config.DatabasePath = filepath.Join(config.DatabaseDir, "printfarm.db")
	}

	// Server configuration
	config.ServerPort = os.Getenv("PORT")
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}

	config.FrontendURL = os.Getenv("FRONTEND_URL")
	if config.FrontendURL == "" {
		config.FrontendURL = "http://localhost:3000"
	}

	// Sync endpoint secrets (empty means the endpoint rejects all requests)
	config.ElegooHubSecret = os.Getenv("ELEGOO_HUB_SECRET")
	config.CronSecret = os.Getenv("CRON_SECRET")
	config.APIKey = os.Getenv("PRINTFARM_API_KEY")

	config.BambuSyncIntervalSeconds = envInt("BAMBU_SYNC_INTERVAL_SECONDS", 300)
	config.ElegooSyncIntervalSeconds = envInt("ELEGOO_SYNC_INTERVAL_SECONDS", 15)

	config.OfficeStartTime = envString("OFFICE_START_TIME", "09:30")
	config.OfficeEndTime = envString("OFFICE_END_TIME", "19:00")
	config.LaunchStartTime = envString("LAUNCH_START_TIME", "09:30")
	config.LaunchEndTime = envString("LAUNCH_END_TIME", "19:30")

	return config, nil
}

// EnsureDatabaseDir creates the database directory if it doesn't exist
func (c *Config) EnsureDatabaseDir() error {
	return os.MkdirAll(c.DatabaseDir, 0755)
}

// DatabaseExists checks if the database file exists
func (c *Config) DatabaseExists() bool {
	_, err := os.Stat(c.DatabasePath)
	return !os.IsNotExist(err)
}

func envString(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
