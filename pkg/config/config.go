package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	App struct {
		Env        string `env:"APP_ENV" env-default:"development" yaml:"env"`
		Port       int    `env:"APP_PORT" env-default:"8080" yaml:"port"`
		SentryUrl  string `env:"SENTRY_URL" yaml:"sentry_url"`
		InstanceID string `env:"APP_INSTANCE_ID" yaml:"instance_id"`
		LogLevel   string `env:"APP_LOG_LEVEL" env-default:"info" yaml:"log_level"`
	} `yaml:"app"`
	Storage struct {
		Driver     string `env:"STORAGE_DRIVER" env-default:"postgres" yaml:"driver"`
		SqlitePath string `env:"STORAGE_SQLITE_PATH" env-default:"./data/crosspost.db" yaml:"sqlite_path"`
	} `yaml:"storage"`
	Postgres struct {
		Port    int    `env:"POSTGRES_PORT" env-default:"5432" yaml:"port"`
		Host    string `env:"POSTGRES_HOST" env-default:"localhost" yaml:"host"`
		User    string `env:"POSTGRES_USER" yaml:"user"`
		Pass    string `env:"POSTGRES_PASS" yaml:"pass"`
		Name    string `env:"POSTGRES_NAME" yaml:"name"`
		SslMode string `env:"POSTGRES_SSL_MODE" env-default:"disable" yaml:"ssl_mode"`
	} `yaml:"postgres"`
	Dispatch struct {
		MaxAttempts     int           `env:"DISPATCH_MAX_ATTEMPTS" env-default:"3" yaml:"max_attempts"`
		BackoffBase     time.Duration `env:"DISPATCH_BACKOFF_BASE" env-default:"30s" yaml:"backoff_base"`
		BackoffFactor   float64       `env:"DISPATCH_BACKOFF_FACTOR" env-default:"2" yaml:"backoff_factor"`
		BackoffMax      time.Duration `env:"DISPATCH_BACKOFF_MAX" env-default:"30m" yaml:"backoff_max"`
		ProviderTimeout time.Duration `env:"DISPATCH_PROVIDER_TIMEOUT" env-default:"30s" yaml:"provider_timeout"`
		Workers         int           `env:"DISPATCH_WORKERS" env-default:"16" yaml:"workers"`
		ScheduleGrace   time.Duration `env:"DISPATCH_SCHEDULE_GRACE" env-default:"5m" yaml:"schedule_grace"`
	} `yaml:"dispatch"`
	Scheduler struct {
		Interval           time.Duration `env:"SCHEDULER_INTERVAL" env-default:"60s" yaml:"interval"`
		StuckThreshold     time.Duration `env:"SCHEDULER_STUCK_THRESHOLD" env-default:"10m" yaml:"stuck_threshold"`
		BatchSize          int           `env:"SCHEDULER_BATCH_SIZE" env-default:"100" yaml:"batch_size"`
		Concurrency        int           `env:"SCHEDULER_CONCURRENCY" env-default:"4" yaml:"concurrency"`
		Timezone           string        `env:"SCHEDULER_TIMEZONE" env-default:"UTC" yaml:"timezone"`
		CancelledRetention time.Duration `env:"SCHEDULER_CANCELLED_RETENTION" env-default:"720h" yaml:"cancelled_retention"`
	} `yaml:"scheduler"`
	Telegram struct {
		Token      string `env:"TELEGRAM_TOKEN" yaml:"token"`
		AlertChat  int64  `env:"TELEGRAM_ALERT_CHAT" yaml:"alert_chat"`
		AlertLevel string `env:"TELEGRAM_ALERT_LEVEL" env-default:"partial" yaml:"alert_level"`
	} `yaml:"telegram"`
	Sandbox struct {
		Platforms string `env:"SANDBOX_PLATFORMS" yaml:"platforms"`
	} `yaml:"sandbox"`
	RateLimit struct {
		Requests int           `env:"RATE_LIMIT_REQUESTS" env-default:"30" yaml:"requests"`
		Per      time.Duration `env:"RATE_LIMIT_PER" env-default:"1m" yaml:"per"`
		Burst    int           `env:"RATE_LIMIT_BURST" env-default:"10" yaml:"burst"`
	} `yaml:"rate_limit"`
}

var (
	once    sync.Once
	cfg     *Config
	loadErr error
)

// New reads the configuration once per process. When CONFIG_PATH points at a
// YAML file it is read first and environment variables override it.
func New() (*Config, error) {
	once.Do(func() {
		cfg, loadErr = Load(os.Getenv("CONFIG_PATH"))
	})
	return cfg, loadErr
}

// Load reads a fresh configuration without touching the process-wide copy.
func Load(path string) (*Config, error) {
	c := &Config{}
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, c)
	} else {
		err = cleanenv.ReadEnv(c)
	}
	if err != nil {
		help, _ := cleanenv.GetDescription(c, nil)
		return nil, fmt.Errorf("failed to read configuration: %w\n%s", err, help)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Dispatch.MaxAttempts < 1 {
		return fmt.Errorf("DISPATCH_MAX_ATTEMPTS must be >= 1")
	}
	if c.Dispatch.BackoffFactor < 1 {
		return fmt.Errorf("DISPATCH_BACKOFF_FACTOR must be >= 1")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL must be positive")
	}
	return nil
}

func (c *Config) GetDSN() string {
	return fmt.Sprintf("dbname=%s user=%s password=%s host=%s port=%d sslmode=%s",
		c.Postgres.Name, c.Postgres.User, c.Postgres.Pass, c.Postgres.Host, c.Postgres.Port, c.Postgres.SslMode,
	)
}

func (c *Config) GetURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Postgres.User, c.Postgres.Pass, c.Postgres.Host, c.Postgres.Port, c.Postgres.Name, c.Postgres.SslMode,
	)
}

// SandboxPlatforms lists the platforms served by the deterministic sandbox provider.
func (c *Config) SandboxPlatforms() []string {
	var out []string
	for _, p := range strings.Split(c.Sandbox.Platforms, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// InstanceName identifies this process in post claims. It falls back to
// hostname-pid when APP_INSTANCE_ID is unset.
func (c *Config) InstanceName() string {
	if c.App.InstanceID != "" {
		return c.App.InstanceID
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "crosspost"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
