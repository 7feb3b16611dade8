package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the configuration settings for the route resolution service.
// It includes the environment, monitoring server port, provider credentials,
// the backend relay endpoint, and database configuration.
//
// Fields:
// - Env: The current environment (e.g., local, dev, prod).
// - Port: The port for the monitoring server.
// - GoogleAPIKey: The credential for the primary (Google Directions) provider.
// - ORSAPIKey: The credential for the secondary (OpenRouteService) provider.
// - RelayURL: The backend relay endpoint used when direct provider calls fail.
// - Database: Configuration settings for the PostgreSQL route cache.
type Config struct {
	Env          string         `yaml:"env"`            // Env is the current environment: local, dev, prod.
	Port         int            `yaml:"wayfinder.port"` // Port is the monitoring server port.
	GoogleAPIKey string         `yaml:"google.api_key"` // Primary provider credential; empty means not configured.
	ORSAPIKey    string         `yaml:"ors.api_key"`    // Secondary provider credential; empty means not configured.
	RelayURL     string         `yaml:"relay.url"`      // Backend relay endpoint; empty disables the relay hop.
	Database     PostgresConfig `yaml:"postgres"`       // Database holds the postgres cache configuration.
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host     string `yaml:"host"`                        // Host is the database server address.
	Port     string `yaml:"port"     env-default:"5432"` // Port is the database server port.
	User     string `yaml:"user"`                        // User is the database user.
	Password string `yaml:"password"`                    // Password is the database user's password.
	Name     string `yaml:"db_name"`                     // Name is the name of the database.
}

// MustLoad loads the configuration from the environment and returns a Config struct.
func MustLoad() *Config {
	_ = godotenv.Load()

	healthPort, err := strconv.Atoi(setDefaultEnv("WAYFINDER_HEALTH_PORT", "8080"))
	if err != nil {
		panic("failed to parse port for monitoring server from configuration")
	}

	return &Config{
		Env:          setDefaultEnv("WAYFINDER_ENV", "production"),
		Port:         healthPort,
		GoogleAPIKey: os.Getenv("WAYFINDER_GOOGLE_API_KEY"),
		ORSAPIKey:    os.Getenv("WAYFINDER_ORS_API_KEY"),
		RelayURL:     os.Getenv("WAYFINDER_RELAY_URL"),
		Database: PostgresConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USERNAME"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
	}
}

func setDefaultEnv(key, override string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = override
	}

	return value
}
