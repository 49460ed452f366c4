package config

import (
	"strings"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

func parseMap(t *testing.T, vars map[string]string) (*Config, error) {
	t.Helper()
	return parse(env.Options{Environment: vars})
}

func TestParse_Defaults(t *testing.T) {
	c, err := parseMap(t, map[string]string{"DATABASE_URL": "sqlite://songs.db"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.DatabaseURL != "sqlite://songs.db" {
		t.Errorf("DatabaseURL = %q", c.DatabaseURL)
	}
	if c.Port != "8080" {
		t.Errorf("Port = %q, want 8080", c.Port)
	}
	if c.Addr() != ":8080" {
		t.Errorf("Addr() = %q, want :8080", c.Addr())
	}
	if c.APIPrefix != "" {
		t.Errorf("APIPrefix = %q, want empty", c.APIPrefix)
	}
	if c.CORSOrigins != "*" {
		t.Errorf("CORSOrigins = %q, want *", c.CORSOrigins)
	}
	if c.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", c.ShutdownTimeout)
	}
	if c.Backup.Dir != "./backups" || c.Backup.Every != 100 || c.Backup.RetentionDays != 7 || !c.Backup.Daily {
		t.Errorf("unexpected backup defaults: %+v", c.Backup)
	}
	if c.Backup.S3Region != "us-east-1" || c.Backup.S3Prefix != "songrequests/" {
		t.Errorf("unexpected S3 defaults: %+v", c.Backup)
	}
	if c.ProPresenter.Enabled || c.ProPresenter.Port != "4031" {
		t.Errorf("unexpected ProPresenter defaults: %+v", c.ProPresenter)
	}
}

func TestParse_Overrides(t *testing.T) {
	c, err := parseMap(t, map[string]string{
		"DATABASE_URL":         "postgres://localhost/songs",
		"PORT":                 "9000",
		"API_PREFIX":           "/api",
		"SHUTDOWN_TIMEOUT":     "3s",
		"NATS_URL":             "nats://localhost:4222",
		"BACKUP_EVERY":         "0",
		"BACKUP_DAILY":         "false",
		"BACKUP_S3_BUCKET":     "snapshots",
		"PROPRESENTER_ENABLED": "true",
		"PROPRESENTER_HOST":    "10.0.0.5",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Addr() != ":9000" || c.APIPrefix != "/api" || c.ShutdownTimeout != 3*time.Second {
		t.Errorf("unexpected server config: %+v", c)
	}
	if c.NATSURL != "nats://localhost:4222" {
		t.Errorf("NATSURL = %q", c.NATSURL)
	}
	if c.Backup.Every != 0 || c.Backup.Daily || c.Backup.S3Bucket != "snapshots" {
		t.Errorf("unexpected backup config: %+v", c.Backup)
	}
	if !c.ProPresenter.Enabled || c.ProPresenter.Host != "10.0.0.5" {
		t.Errorf("unexpected ProPresenter config: %+v", c.ProPresenter)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"missing database url", map[string]string{}, "DATABASE_URL"},
		{"bad duration", map[string]string{"DATABASE_URL": "x", "SHUTDOWN_TIMEOUT": "soon"}, "soon"},
		{"negative threshold", map[string]string{"DATABASE_URL": "x", "BACKUP_EVERY": "-1"}, "BACKUP_EVERY"},
		{"zero retention", map[string]string{"DATABASE_URL": "x", "BACKUP_RETENTION_DAYS": "0"}, "BACKUP_RETENTION_DAYS"},
		{"propresenter without host", map[string]string{"DATABASE_URL": "x", "PROPRESENTER_ENABLED": "true"}, "PROPRESENTER_HOST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMap(t, tt.vars)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
