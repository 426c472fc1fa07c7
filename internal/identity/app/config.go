package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting, populated once at startup from the
// environment and passed into constructors. Nothing mutates it afterwards.
type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT" envDefault:"8080"`

	// Token signing. The secret must be at least 32 bytes.
	Issuer     string        `env:"IDENTITY_ISSUER" envDefault:"skyfleet-identity"`
	JWTSecret  string        `env:"IDENTITY_JWT_SECRET,required"`
	AccessTTL  time.Duration `env:"IDENTITY_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"IDENTITY_REFRESH_TTL" envDefault:"168h"`

	// Optional process-wide pepper mixed into password hashes.
	PasswordPepper string `env:"IDENTITY_PASSWORD_PEPPER"`

	DatabaseFile string `env:"IDENTITY_DATABASE_FILE" envDefault:"identity.db"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// AppURL is the public frontend base used in reset links.
	AppURL string `env:"IDENTITY_APP_URL" envDefault:"http://localhost:3000"`

	// SMTP relay. When Host is empty, reset links go to the log instead.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM" envDefault:"no-reply@skyfleet.io"`

	ResetTokenTTL   time.Duration `env:"IDENTITY_RESET_TOKEN_TTL" envDefault:"1h"`
	MFAChallengeTTL time.Duration `env:"IDENTITY_MFA_CHALLENGE_TTL" envDefault:"5m"`

	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig parses the environment into a Config.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
