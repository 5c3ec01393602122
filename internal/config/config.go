package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const maxNotifyWorkers = 10

var DefaultEnvFiles = []string{".env", ".env.local"}

type HTTPOptions struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	BodyLimit       string        `env:"HTTP_BODY_LIMIT" envDefault:"10M"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

type DatabaseOptions struct {
	URL string `env:"DATABASE_URL"`
}

func (d *DatabaseOptions) Validate() error {
	if strings.TrimSpace(d.URL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	return nil
}

type RedisOptions struct {
	Addr           string        `env:"REDIS_ADDR"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB" envDefault:"0"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_KEY_TTL" envDefault:"24h"`
}

func (r *RedisOptions) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

func (r *RedisOptions) Validate() error {
	if r.DB < 0 {
		return fmt.Errorf("REDIS_DB must be non-negative, got %d", r.DB)
	}
	if r.Enabled() && r.IdempotencyTTL <= 0 {
		return fmt.Errorf("IDEMPOTENCY_KEY_TTL must be positive, got %s", r.IdempotencyTTL)
	}
	return nil
}

type KafkaOptions struct {
	Brokers      []string `env:"KAFKA_BROKERS" envSeparator:","`
	WelcomeTopic string   `env:"KAFKA_WELCOME_TOPIC" envDefault:"club.member.welcome"`
}

func (k *KafkaOptions) Enabled() bool {
	return len(k.Brokers) > 0
}

func (k *KafkaOptions) Validate() error {
	if k.Enabled() && strings.TrimSpace(k.WelcomeTopic) == "" {
		return errors.New("KAFKA_WELCOME_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

type WorkerOptions struct {
	NotifyWorkers     int           `env:"NOTIFY_WORKERS" envDefault:"4"`
	PollInterval      time.Duration `env:"NOTIFY_POLL_INTERVAL" envDefault:"500ms"`
	LeaseDuration     time.Duration `env:"NOTIFY_LEASE_DURATION" envDefault:"60s"`
	NotifyMaxAttempts int           `env:"NOTIFY_MAX_ATTEMPTS" envDefault:"5"`
}

// Workers caps the notification pool the same way regardless of input.
func (w *WorkerOptions) Workers() int {
	if w.NotifyWorkers <= 0 {
		return 4
	}
	if w.NotifyWorkers > maxNotifyWorkers {
		return maxNotifyWorkers
	}
	return w.NotifyWorkers
}

func (w *WorkerOptions) Validate() error {
	if w.PollInterval <= 0 {
		return fmt.Errorf("NOTIFY_POLL_INTERVAL must be positive, got %s", w.PollInterval)
	}
	if w.LeaseDuration <= 0 {
		return fmt.Errorf("NOTIFY_LEASE_DURATION must be positive, got %s", w.LeaseDuration)
	}
	if w.NotifyMaxAttempts <= 0 {
		return fmt.Errorf("NOTIFY_MAX_ATTEMPTS must be positive, got %d", w.NotifyMaxAttempts)
	}
	return nil
}

type ImportOptions struct {
	APIURL          string        `env:"MEMBER_IMPORT_API_URL" envDefault:"http://localhost:8080"`
	CallTimeout     time.Duration `env:"MEMBER_IMPORT_CALL_TIMEOUT" envDefault:"30s"`
	MaxRetries      int           `env:"MEMBER_IMPORT_MAX_RETRIES" envDefault:"3"`
	InitialInterval time.Duration `env:"MEMBER_IMPORT_RETRY_INITIAL" envDefault:"500ms"`
	MaxInterval     time.Duration `env:"MEMBER_IMPORT_RETRY_MAX" envDefault:"5s"`
	MaxFileBytes    int64         `env:"MEMBER_IMPORT_MAX_FILE_BYTES" envDefault:"10485760"`
}

func (i *ImportOptions) Validate() error {
	u, err := url.Parse(i.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("MEMBER_IMPORT_API_URL must be an absolute url, got %q", i.APIURL)
	}
	if i.CallTimeout <= 0 {
		return fmt.Errorf("MEMBER_IMPORT_CALL_TIMEOUT must be positive, got %s", i.CallTimeout)
	}
	if i.MaxRetries < 0 {
		return fmt.Errorf("MEMBER_IMPORT_MAX_RETRIES must be non-negative, got %d", i.MaxRetries)
	}
	if i.MaxFileBytes <= 0 {
		return fmt.Errorf("MEMBER_IMPORT_MAX_FILE_BYTES must be positive, got %d", i.MaxFileBytes)
	}
	return nil
}

type RateLimitOptions struct {
	Enabled bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	Rate    string `env:"RATE_LIMIT_RATE" envDefault:"60-M"`
}

type LogOptions struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type Config struct {
	HTTP      HTTPOptions
	Database  DatabaseOptions
	Redis     RedisOptions
	Kafka     KafkaOptions
	Worker    WorkerOptions
	Import    ImportOptions
	RateLimit RateLimitOptions
	Log       LogOptions
}

// Load reads the env files that exist, then the process environment.
// Variables already set in the environment win over file values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate covers what every binary needs.
func (c *Config) Validate() error {
	if err := c.Import.Validate(); err != nil {
		return fmt.Errorf("import configuration error: %w", err)
	}
	return nil
}

// ValidateServer adds the checks only the API server needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database configuration error: %w", err)
	}
	if err := c.Redis.Validate(); err != nil {
		return fmt.Errorf("redis configuration error: %w", err)
	}
	if err := c.Kafka.Validate(); err != nil {
		return fmt.Errorf("kafka configuration error: %w", err)
	}
	if err := c.Worker.Validate(); err != nil {
		return fmt.Errorf("worker configuration error: %w", err)
	}
	return nil
}

func loadEnvFiles(envFiles []string) error {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}
