package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v9"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`
	Env  string `env:"APP_ENV" envDefault:"dev"`

	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"`
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
	SQLitePath             string `env:"SQLITE_PATH" envDefault:"scrap.db"`

	ExpirationWindow    time.Duration `env:"EXPIRATION_WINDOW" envDefault:"168h"`
	SweepInterval       time.Duration `env:"SWEEP_INTERVAL" envDefault:"0s"`
	SweepTimeout        time.Duration `env:"SWEEP_TIMEOUT" envDefault:"10s"`
	ResetPriceOnRelease bool          `env:"RESET_PRICE_ON_RELEASE" envDefault:"false"`

	EventWorkers   int `env:"EVENT_WORKERS" envDefault:"2"`
	EventQueueSize int `env:"EVENT_QUEUE_SIZE" envDefault:"256"`

	FirebaseProjectID       string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCredentialsFile string `env:"FIREBASE_CREDENTIALS_FILE"`

	StorageBucket string        `env:"STORAGE_BUCKET"`
	SignedURLTTL  time.Duration `env:"SIGNED_URL_TTL" envDefault:"15m"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	AdminUIDs []string `env:"ADMIN_UIDS" envSeparator:","`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql":
		if c.DBUser == "" || c.DBName == "" || (c.DBHost == "" && c.InstanceConnectionName == "") {
			return errors.New("DB_USER, DB_NAME and DB_HOST (or INSTANCE_CONNECTION_NAME) are required for mysql")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for sqlite")
		}
	default:
		return errors.New("DB_DRIVER must be mysql or sqlite")
	}
	if c.ExpirationWindow <= 0 {
		return errors.New("EXPIRATION_WINDOW must be positive")
	}
	if c.EventWorkers <= 0 {
		c.EventWorkers = 1
	}
	if c.EventQueueSize <= 0 {
		c.EventQueueSize = 1
	}
	return nil
}
