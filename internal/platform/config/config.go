package config

import (
	"os"
	"strconv"
	"time"
)

// Gateway captures process-level configuration.
type Gateway struct {
	// Addr is the local listen address for the gateway HTTP surface.
	Addr string
	// APIBaseURL is the remote FoodBridge REST API root, e.g.
	// "https://api.foodbridge.example/api".
	APIBaseURL string
	// CredentialsPath is the JSON file holding persisted tokens when Redis
	// is not configured.
	CredentialsPath string
	// RedisURL enables the Redis credential store when non-empty.
	RedisURL string
	// HTTPTimeout bounds each outbound API request.
	HTTPTimeout time.Duration
}

// FromEnv builds a Gateway config from environment variables so main stays lean.
func FromEnv() Gateway {
	addr := os.Getenv("FOODBRIDGE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	baseURL := os.Getenv("FOODBRIDGE_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000/api"
	}

	credPath := os.Getenv("FOODBRIDGE_CREDENTIALS_FILE")
	if credPath == "" {
		credPath = defaultCredentialsPath()
	}

	timeout := 15 * time.Second
	if raw := os.Getenv("FOODBRIDGE_HTTP_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	return Gateway{
		Addr:            addr,
		APIBaseURL:      baseURL,
		CredentialsPath: credPath,
		RedisURL:        os.Getenv("FOODBRIDGE_REDIS_URL"),
		HTTPTimeout:     timeout,
	}
}

func defaultCredentialsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".foodbridge-credentials.json"
	}
	return home + "/.foodbridge/credentials.json"
}
