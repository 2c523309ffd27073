package config

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env                string
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	ServerIdleTimeout  time.Duration
	RequestTimeout     time.Duration

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	JWTSecret  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	CSRFTTL    time.Duration
	BcryptCost int

	CookieDomain   string
	CookieSameSite http.SameSite

	CORSOrigins      []string
	RateLimitRPM     int
	AuthRateLimitRPM int

	MailEnabled  bool
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	ContactTo    string
	ContactFrom  string
	SiteName     string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:                getEnv("ENV", "development"),
		ServerPort:         getEnv("PORT", "3001"),
		ServerReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		ServerWriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ServerIdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		DatabaseURL:        strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:         int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:         int32(getInt("DB_MIN_CONNS", 2)),
		JWTSecret:          strings.TrimSpace(os.Getenv("JWT_SECRET")),
		AccessTTL:          getDuration("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:         getDuration("REFRESH_TTL", 168*time.Hour),
		CSRFTTL:            getDuration("CSRF_TTL", time.Hour),
		BcryptCost:         getInt("BCRYPT_COST", 10),
		CookieDomain:       strings.TrimSpace(os.Getenv("COOKIE_DOMAIN")),
		CookieSameSite:     parseSameSite(getEnv("COOKIE_SAMESITE", "lax")),
		CORSOrigins:        splitCSV(getEnv("ALLOWED_ORIGINS", "http://localhost:4200")),
		RateLimitRPM:       getInt("RATE_LIMIT_RPM", 100),
		AuthRateLimitRPM:   getInt("AUTH_RATE_LIMIT_RPM", 10),
		MailEnabled:        getBool("MAIL_ENABLED", false),
		SMTPHost:           getEnv("SMTP_HOST", ""),
		SMTPPort:           getEnv("SMTP_PORT", "587"),
		SMTPUser:           getEnv("SMTP_USER", ""),
		SMTPPassword:       os.Getenv("SMTP_PASSWORD"),
		ContactTo:          getEnv("CONTACT_TO", ""),
		ContactFrom:        getEnv("CONTACT_FROM", ""),
		SiteName:           getEnv("SITE_NAME", "Website"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	if c.AccessTTL <= 0 {
		return fmt.Errorf("ACCESS_TTL must be positive")
	}

	if c.RefreshTTL <= c.AccessTTL {
		return fmt.Errorf("REFRESH_TTL must exceed ACCESS_TTL")
	}

	if c.BcryptCost < 10 {
		return fmt.Errorf("BCRYPT_COST must be at least 10")
	}

	if c.MailEnabled {
		if c.SMTPHost == "" || c.ContactTo == "" {
			return fmt.Errorf("SMTP_HOST and CONTACT_TO are required when MAIL_ENABLED is set")
		}
	}

	return nil
}

func parseSameSite(raw string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
