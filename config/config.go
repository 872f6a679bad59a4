package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Backend      BackendConfig
	Storage      StorageConfig
	JWTSecret    string
	CookieSecure bool
	MediaProxy   bool
	// PageStateTTL bounds how long an idle page instance is kept.
	PageStateTTL time.Duration
	CORSOrigins  []string
}

type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

type StorageConfig struct {
	Type           string
	LocalPath      string
	DataSourceName string
	BucketName     string
}

// Load reads the configuration from the environment. Call it after the
// optional .env file has been loaded.
func Load() (Config, error) {
	cfg := Config{
		Backend: BackendConfig{
			URL:     strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:5003"), "/"),
			Timeout: time.Duration(getEnvInt("BACKEND_TIMEOUT_SEC", 30)) * time.Second,
		},
		Storage: StorageConfig{
			Type:           getEnv("STORAGE_TYPE", "memory"),
			LocalPath:      getEnv("LOCAL_STORAGE_PATH", "./data"),
			DataSourceName: getEnv("DATA_SOURCE_NAME", "blogfront.db"),
			BucketName:     getEnv("S3_BUCKET_NAME", ""),
		},
		JWTSecret:    getEnv("JWT_SECRET", ""),
		CookieSecure: getEnvBool("COOKIE_SECURE", false),
		MediaProxy:   getEnvBool("MEDIA_PROXY", false),
		PageStateTTL: time.Duration(getEnvInt("PAGE_STATE_TTL_SEC", 1800)) * time.Second,
		CORSOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "https://*,http://*")),
	}

	u, err := url.Parse(cfg.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Config{}, fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout <= 0 {
		return Config{}, fmt.Errorf("BACKEND_TIMEOUT_SEC must be > 0")
	}
	if cfg.PageStateTTL <= 0 {
		return Config{}, fmt.Errorf("PAGE_STATE_TTL_SEC must be > 0")
	}
	switch cfg.Storage.Type {
	case "memory", "filesystem", "sqlite":
	case "s3":
		if cfg.Storage.BucketName == "" {
			return Config{}, fmt.Errorf("S3_BUCKET_NAME must be set for s3 storage type")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORAGE_TYPE %q", cfg.Storage.Type)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
