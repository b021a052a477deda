package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	MailDriverSMTP = "smtp"
	MailDriverLog  = "log"
)

type Config struct {
	HTTPAddr           string        `env:"HTTP_ADDR" env-default:":8080"`
	LogLevel           string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat          string        `env:"LOG_FORMAT" env-default:"json"`
	ServiceName        string        `env:"SERVICE_NAME" env-default:"notification-service"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"15s"`
	MaxBodyBytes       int64         `env:"MAX_BODY_BYTES" env-default:"5242880"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"*"`

	MailDriver   string        `env:"MAIL_DRIVER" env-default:"smtp"`
	SMTPHost     string        `env:"SMTP_HOST"`
	SMTPPort     int           `env:"SMTP_PORT" env-default:"587"`
	SMTPUser     string        `env:"SMTP_USER"`
	SMTPPass     string        `env:"SMTP_PASS"`
	SMTPFrom     string        `env:"SMTP_FROM"`
	SMTPFromName string        `env:"SMTP_FROM_NAME" env-default:"InfoEvent"`
	SMTPSecurity string        `env:"SMTP_SECURITY" env-default:"starttls"`
	SMTPTimeout  time.Duration `env:"SMTP_TIMEOUT" env-default:"10s"`

	BreakerThreshold int           `env:"MAIL_BREAKER_THRESHOLD" env-default:"5"`
	BreakerCooldown  time.Duration `env:"MAIL_BREAKER_COOLDOWN" env-default:"30s"`
	BreakerHalfOpen  int           `env:"MAIL_BREAKER_HALF_OPEN" env-default:"1"`

	RedisAddr      string        `env:"REDIS_ADDR"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" env-default:"24h"`

	NATSURL   string `env:"NATS_URL"`
	NATSQueue string `env:"NATS_QUEUE" env-default:"notification-service"`

	DispatchTimeout time.Duration `env:"DISPATCH_TIMEOUT" env-default:"30s"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

func Load() (*Config, error) {
	var cfg Config

	err := cleanenv.ReadEnv(&cfg)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return &cfg, nil
}

// Validate checks combinations the env tags cannot express.
func (c *Config) Validate() error {
	switch c.MailDriver {
	case MailDriverLog:
	case MailDriverSMTP:
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when MAIL_DRIVER=smtp")
		}
		if c.SMTPFrom == "" {
			return fmt.Errorf("SMTP_FROM is required when MAIL_DRIVER=smtp")
		}
		switch c.SMTPSecurity {
		case "starttls", "tls", "none":
		default:
			return fmt.Errorf("unsupported SMTP_SECURITY %q", c.SMTPSecurity)
		}
	default:
		return fmt.Errorf("unsupported MAIL_DRIVER %q", c.MailDriver)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive")
	}
	return nil
}
