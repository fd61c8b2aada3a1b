package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv     string
	Port       string
	StaticRoot string

	ImageAPIBaseURL string
	TextAPIBaseURL  string
	RetryDelay      time.Duration
	RequestDelay    time.Duration
	MaxAttempts     int
	ImageTimeout    time.Duration

	InspireProvider string
	InspireEndpoint string
	GeminiAPIKey    string
	GeminiModel     string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	ImgBBAPIKey     string

	DatabaseURL  string
	SQLitePath   string
	StoragePath  string
	GeoIPDBPath  string
	HistoryLimit int
	GalleryTTL   time.Duration

	AllowedOrigins   []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

var inspireProviders = map[string]struct{}{
	"pollinations": {},
	"openai":       {},
	"gemini":       {},
	"endpoint":     {},
	"static":       {},
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:     getEnv("APP_ENV", "development"),
		Port:       getEnv("PORT", "3000"),
		StaticRoot: getEnv("STATIC_ROOT", "./public"),

		ImageAPIBaseURL: strings.TrimRight(getEnv("IMAGE_API_BASE_URL", "https://image.pollinations.ai"), "/"),
		TextAPIBaseURL:  strings.TrimRight(getEnv("TEXT_API_BASE_URL", "https://text.pollinations.ai"), "/"),
		RetryDelay:      time.Millisecond * time.Duration(getEnvInt("RETRY_DELAY_MS", 950)),
		RequestDelay:    time.Millisecond * time.Duration(getEnvInt("REQUEST_DELAY_MS", 1200)),
		MaxAttempts:     getEnvInt("MAX_ATTEMPTS", 3),
		ImageTimeout:    time.Second * time.Duration(getEnvInt("IMAGE_REQUEST_TIMEOUT_SECONDS", 120)),

		InspireProvider: strings.ToLower(getEnv("INSPIRE_PROVIDER", "pollinations")),
		InspireEndpoint: os.Getenv("INSPIRE_ENDPOINT"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		ImgBBAPIKey:     os.Getenv("IMGBB_API_KEY"),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   os.Getenv("SQLITE_PATH"),
		StoragePath:  getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath:  os.Getenv("GEOIP_DB_PATH"),
		HistoryLimit: getEnvInt("HISTORY_LIMIT", 20),
		GalleryTTL:   time.Minute * time.Duration(getEnvInt("GALLERY_TTL_MINUTES", 120)),

		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 60)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
	}

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("PORT must be numeric, got %q", cfg.Port)
	}
	if cfg.RetryDelay <= 0 || cfg.RequestDelay <= 0 {
		return nil, fmt.Errorf("RETRY_DELAY_MS and REQUEST_DELAY_MS must be positive")
	}
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("MAX_ATTEMPTS must be positive")
	}
	if _, ok := inspireProviders[cfg.InspireProvider]; !ok {
		return nil, fmt.Errorf("unsupported INSPIRE_PROVIDER %q", cfg.InspireProvider)
	}
	if cfg.InspireProvider == "endpoint" && cfg.InspireEndpoint == "" {
		return nil, fmt.Errorf("INSPIRE_ENDPOINT is required for the endpoint provider")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
