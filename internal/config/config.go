package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Server ServerConfig
	Keep   KeepConfig
	CORS   CORSConfig
}

type ServerConfig struct {
	Port string
	Host string
	Env  string
}

type KeepConfig struct {
	Email       string
	MasterToken string
	StateFile   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from the environment (and a .env file when
// present). Missing credentials are not an error here: they surface as a
// per-request failure so the process can still serve health checks.
func Load() (*Config, error) {
	godotenv.Load()

	origins := []string{
		"http://localhost:5173",
		"http://localhost:4173",
		"http://127.0.0.1:5173",
	}
	if extra := os.Getenv("FRONTEND_ORIGIN"); extra != "" {
		origins = append(origins, extra)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Host: getEnv("HOST", "0.0.0.0"),
			Env:  getEnv("ENV", "development"),
		},
		Keep: KeepConfig{
			Email:       os.Getenv("KEEP_EMAIL"),
			MasterToken: os.Getenv("KEEP_MASTER_TOKEN"),
			StateFile:   getEnv("KEEP_STATE_FILE", "keep_state.json"),
		},
		CORS: CORSConfig{
			AllowedOrigins: origins,
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
