package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Polls    PollsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/pollwise?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AnonVotePolicy controls whether unauthenticated voters may cast votes.
type AnonVotePolicy string

const (
	// AnonUnrestricted accepts every anonymous vote. No replay protection;
	// this matches the historical behavior and is the default.
	AnonUnrestricted AnonVotePolicy = "unrestricted"
	// AnonOneTimeToken requires a single-use token issued per poll.
	AnonOneTimeToken AnonVotePolicy = "one_time_token"
	// AnonDisabled rejects anonymous votes entirely.
	AnonDisabled AnonVotePolicy = "disabled"
)

// PollsConfig holds voting policy settings.
type PollsConfig struct {
	// AdminEmails are identities allowed to mutate any poll. Policy data,
	// injected at startup so membership changes need no redeploy.
	AdminEmails []string
	AnonPolicy  AnonVotePolicy
	// VoteTokenTTLMinutes is how long a one-time anonymous vote token stays
	// redeemable.
	VoteTokenTTLMinutes int
	// ViewCacheTTLSeconds is how long cached poll views live between
	// invalidations.
	ViewCacheTTLSeconds int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))

	policy, err := parseAnonPolicy(getEnv("ANON_VOTE_POLICY", string(AnonUnrestricted)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			// No default URL: when DATABASE_URL is unset the DSN is built
			// from the DB_* component fields below.
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "pollwise"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		Polls: PollsConfig{
			AdminEmails:         splitTrim(getEnv("ADMIN_EMAILS", ""), ","),
			AnonPolicy:          policy,
			VoteTokenTTLMinutes: getEnvInt("VOTE_TOKEN_TTL_MINUTES", 30),
			ViewCacheTTLSeconds: getEnvInt("VIEW_CACHE_TTL_SECONDS", 60),
		},
	}
	return cfg, nil
}

func parseAnonPolicy(s string) (AnonVotePolicy, error) {
	switch AnonVotePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case AnonUnrestricted:
		return AnonUnrestricted, nil
	case AnonOneTimeToken:
		return AnonOneTimeToken, nil
	case AnonDisabled:
		return AnonDisabled, nil
	default:
		return "", fmt.Errorf("invalid ANON_VOTE_POLICY %q", s)
	}
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
