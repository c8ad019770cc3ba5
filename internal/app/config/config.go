package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr               string
	DatabaseURL            string
	InternalToken          string
	SupabaseURL            string
	SupabaseServiceRoleKey string
	SupabaseJWTSecret      string
	QuotePDFBucket         string
	CompanyName            string
	PDFFontDir             string
	CORSAllowOrigin        string

	LogLevel    string
	LogEncoding string

	RateLimitPerMinute int
	RedisAddr          string
	RedisPassword      string
	RedisDB            int

	NotifyWebhookURL string
}

// Load reads the environment, after an optional .env in the working directory.
func Load() (Config, error) {
	_ = godotenv.Load()

	var missing []string
	must := func(k string) string {
		v := os.Getenv(k)
		if v == "" {
			missing = append(missing, k)
		}
		return v
	}

	cfg := Config{
		HTTPAddr:               env("HTTP_ADDR", ":8080"),
		DatabaseURL:            must("DATABASE_URL"),
		InternalToken:          env("INTERNAL_TOKEN", ""),
		SupabaseURL:            strings.TrimRight(env("SUPABASE_URL", ""), "/"),
		SupabaseServiceRoleKey: env("SUPABASE_SERVICE_ROLE_KEY", ""),
		SupabaseJWTSecret:      env("SUPABASE_JWT_SECRET", ""),
		QuotePDFBucket:         env("QUOTE_PDF_BUCKET", "quote-pdfs"),
		CompanyName:            env("COMPANY_NAME", "Reseller Ops"),
		PDFFontDir:             env("PDF_FONT_DIR", ""),
		CORSAllowOrigin:        env("CORS_ALLOW_ORIGIN", "*"),
		LogLevel:               env("LOG_LEVEL", "info"),
		LogEncoding:            env("LOG_ENCODING", "json"),
		RedisAddr:              env("REDIS_ADDR", ""),
		RedisPassword:          env("REDIS_PASSWORD", ""),
		NotifyWebhookURL:       env("NOTIFY_WEBHOOK_URL", ""),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing env %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.RateLimitPerMinute, err = envInt("RATE_LIMIT_PER_MINUTE", 60); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = envInt("REDIS_DB", 0); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerMinute < 0 {
		return Config{}, errors.New("RATE_LIMIT_PER_MINUTE must be >= 0")
	}
	switch cfg.LogEncoding {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("LOG_ENCODING must be json or console, got %q", cfg.LogEncoding)
	}
	return cfg, nil
}

// ValidateServe checks the keys only the HTTP server needs.
func (c Config) ValidateServe() error {
	if c.InternalToken == "" {
		return errors.New("missing env INTERNAL_TOKEN")
	}
	return nil
}

// StorageEnabled reports whether quote PDFs can be archived.
func (c Config) StorageEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceRoleKey != ""
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return n, nil
}
