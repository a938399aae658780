package config

import (
	"os"
	"path/filepath"
	"time"
)

const (
	// DefaultAPIBaseURL is the versioned API root used when WATER_API_URL is unset.
	DefaultAPIBaseURL = "http://localhost:8000/api/v1"

	TokenStoreMemory = "memory"
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
)

type Client struct{}

var _ ClientConfig = Client{}

func (Client) GetAPIBaseURL() string {
	return GetEnv("WATER_API_URL", DefaultAPIBaseURL)
}

// GetRequestTimeout is the transport timeout. The client itself never times out a request.
func (Client) GetRequestTimeout() time.Duration {
	return GetEnvDuration("WATER_API_TIMEOUT", 15*time.Second)
}

func (Client) GetTokenStore() string {
	return GetEnv("WATER_TOKEN_STORE", TokenStoreFile)
}

func (Client) GetTokenFile() string {
	if f := os.Getenv("WATER_TOKEN_FILE"); f != "" {
		return filepath.Clean(f)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".water-dashboard", "tokens.json")
	}
	return filepath.Join(home, ".water-dashboard", "tokens.json")
}

func (Client) GetRedisKeyPrefix() string {
	return GetEnv("WATER_REDIS_PREFIX", "water-dashboard")
}

func (Client) GetMockStrictRoutes() bool {
	return GetEnvBool("WATER_MOCK_STRICT_ROUTES", false)
}
