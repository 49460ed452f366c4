package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL     string        `env:"DATABASE_URL,required,notEmpty"`
	Port            string        `env:"PORT" envDefault:"8080"`
	APIPrefix       string        `env:"API_PREFIX"`
	CORSOrigins     string        `env:"CORS_ALLOW_ORIGINS" envDefault:"*"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	NATSURL         string        `env:"NATS_URL"`

	Backup       Backup       `envPrefix:"BACKUP_"`
	ProPresenter ProPresenter `envPrefix:"PROPRESENTER_"`
}

// Backup controls JSONL snapshots of the song request table.
type Backup struct {
	Dir           string `env:"DIR" envDefault:"./backups"`
	Every         int    `env:"EVERY" envDefault:"100"` // 0 disables threshold snapshots
	RetentionDays int    `env:"RETENTION_DAYS" envDefault:"7"`
	Daily         bool   `env:"DAILY" envDefault:"true"`

	S3Bucket   string `env:"S3_BUCKET"` // enables S3 uploads when set
	S3Region   string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint string `env:"S3_ENDPOINT"` // custom endpoint for MinIO and friends
	S3Prefix   string `env:"S3_PREFIX" envDefault:"songrequests/"`
}

type ProPresenter struct {
	Enabled bool   `env:"ENABLED"`
	Host    string `env:"HOST"`
	Port    string `env:"PORT" envDefault:"4031"` // ProPresenter REST API default port
}

// Load reads an optional .env file and then parses the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.Backup.Every < 0 {
		return fmt.Errorf("BACKUP_EVERY must not be negative")
	}
	if c.Backup.RetentionDays < 1 {
		return fmt.Errorf("BACKUP_RETENTION_DAYS must be at least 1")
	}
	if c.ProPresenter.Enabled && c.ProPresenter.Host == "" {
		return fmt.Errorf("PROPRESENTER_HOST is required when PROPRESENTER_ENABLED=true")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}
