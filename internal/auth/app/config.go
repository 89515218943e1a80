package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/signet/internal/auth/service"
	"github.com/aussiebroadwan/signet/pkg/cryptox"
	"github.com/aussiebroadwan/signet/pkg/httpx"
	"github.com/aussiebroadwan/signet/pkg/jwtx"
	"github.com/samber/oops"
)

// Challenge store drivers.
const (
	KVDriverSQLite = "sqlite"
	KVDriverMemory = "memory"
	KVDriverRedis  = "redis"
)

type Config struct {
	DatabaseFile string // Optional: path to SQLite database file (default: ./auth.db)

	KVDriver    string // Optional: OTP store (sqlite, memory, redis) (default: sqlite)
	RedisURL    string // Required when KVDriver is redis: redis://[user:pass@]host:port/db
	RedisPrefix string // Optional: key prefix in Redis (default: signet:)

	SigningSecret    string        // Required outside dev: HMAC secret for session tokens
	SigningAlgorithm string        // Optional: HS256, HS384 or HS512 (default: HS256)
	TokenTTL         time.Duration // Optional: session token lifetime (default: 24h)

	OTPTTL             time.Duration // Optional: email code lifetime (default: 300s)
	OTPMin             int           // Optional: smallest code (default: 1000)
	OTPMax             int           // Optional: largest code (default: 9999)
	OTPConsumeOnVerify bool          // Optional: delete a code after a successful verify (default: false)

	PasswordAlgorithm string // Optional: bcrypt or argon2id (default: bcrypt)
	BcryptCost        int    // Optional: bcrypt cost (default: 12)
	Argon2Time        int    // Optional: argon2id iterations (default: 2)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired OTP purge interval (default: 1m)

	RateLimits httpx.RateLimitProfiles // RATELIMIT_{STRICT,MODERATE,PUBLIC}_* overrides
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var env envParser
	cfg := Config{
		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),

		KVDriver:    strings.ToLower(getEnvOrDefault("AUTH_KV_DRIVER", KVDriverSQLite)),
		RedisURL:    os.Getenv("AUTH_REDIS_URL"),
		RedisPrefix: getEnvOrDefault("AUTH_REDIS_PREFIX", "signet:"),

		SigningSecret:    os.Getenv("AUTH_SIGNING_SECRET"),
		SigningAlgorithm: strings.ToUpper(getEnvOrDefault("AUTH_SIGNING_ALG", jwtx.AlgorithmHS256)),
		TokenTTL:         env.durationOrDefault("AUTH_TOKEN_TTL", jwtx.DefaultSessionTTL),

		OTPTTL:             env.durationOrDefault("AUTH_OTP_TTL", service.DefaultOTPTTL),
		OTPMin:             env.intOrDefault("AUTH_OTP_MIN", service.DefaultOTPMin),
		OTPMax:             env.intOrDefault("AUTH_OTP_MAX", service.DefaultOTPMax),
		OTPConsumeOnVerify: env.boolOrDefault("AUTH_OTP_CONSUME_ON_VERIFY", false),

		PasswordAlgorithm: strings.ToLower(getEnvOrDefault("AUTH_PASSWORD_ALGORITHM", cryptox.AlgorithmBcrypt)),
		BcryptCost:        env.intOrDefault("AUTH_BCRYPT_COST", cryptox.DefaultBcryptCost),
		Argon2Time:        env.intOrDefault("AUTH_ARGON2_TIME", cryptox.DefaultArgon2Time),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 env.intOrDefault("PORT", 8080),
		ShutdownGracePeriod:  env.durationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: env.durationOrDefault("AUTH_HOUSEKEEPING_INTERVAL", time.Minute),

		RateLimits: httpx.RateLimitProfilesFromEnv(os.LookupEnv),
	}

	if env.err != nil {
		return Config{}, env.err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsDev reports whether the service runs in the development environment.
func (c Config) IsDev() bool { return c.Env == "dev" }

// Validate checks settings that can be judged without opening anything.
// Algorithm names and the bcrypt cost are checked by the hasher.
func (c Config) Validate() error {
	switch c.KVDriver {
	case KVDriverSQLite, KVDriverMemory:
	case KVDriverRedis:
		if c.RedisURL == "" {
			return invalid("AUTH_REDIS_URL", c.RedisURL, "AUTH_REDIS_URL is required when AUTH_KV_DRIVER=redis")
		}
	default:
		return invalid("AUTH_KV_DRIVER", c.KVDriver, "AUTH_KV_DRIVER must be sqlite, memory or redis")
	}

	if c.SigningSecret == "" && !c.IsDev() {
		return invalid("AUTH_SIGNING_SECRET", "", "AUTH_SIGNING_SECRET is required outside dev")
	}
	if c.TokenTTL <= 0 {
		return invalid("AUTH_TOKEN_TTL", c.TokenTTL, "AUTH_TOKEN_TTL must be positive")
	}
	if c.OTPTTL <= 0 {
		return invalid("AUTH_OTP_TTL", c.OTPTTL, "AUTH_OTP_TTL must be positive")
	}
	if c.OTPMin < 0 || c.OTPMax < c.OTPMin {
		return invalid("AUTH_OTP_MIN", c.OTPMin, "AUTH_OTP_MIN must be non-negative and not above AUTH_OTP_MAX")
	}
	if c.Argon2Time < 1 || c.Argon2Time > cryptox.MaxArgon2Time {
		return invalid("AUTH_ARGON2_TIME", c.Argon2Time,
			fmt.Sprintf("AUTH_ARGON2_TIME must be between 1 and %d", cryptox.MaxArgon2Time))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return invalid("PORT", c.Port, "PORT must be between 1 and 65535")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func invalid(key string, value any, msg string) error {
	return oops.
		Code("CONFIG_INVALID").
		With("key", key).
		With("value", value).
		Errorf("%s", msg)
}

// envParser reads typed settings and remembers the first value that does
// not parse. Unset keys take their default.
type envParser struct {
	err error
}

func (p *envParser) fail(key, raw, want string) {
	if p.err == nil {
		p.err = invalid(key, raw, fmt.Sprintf("%s must be %s", key, want))
	}
}

func (p *envParser) intOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		p.fail(key, value, "an integer")
		return defaultValue
	}
	return intValue
}

func (p *envParser) boolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		p.fail(key, value, "a boolean (true or false)")
		return defaultValue
	}
	return b
}

func (p *envParser) durationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "24h", "5m", "300s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	p.fail(key, value, `a duration such as "90s" or a number of seconds`)
	return defaultValue
}
