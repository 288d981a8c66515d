package config

import (
	"os"
	"path/filepath"
	"testing"

	"styledecor/internal/models"
)

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	t.Setenv("TEST_JWT_SECRET", "s3cret")

	yamlContent := `
app:
  name: styledecor
database:
  path: "test.db"
auth:
  jwt_secret: "${TEST_JWT_SECRET}"
  admin_emails: ["Boss@Example.com"]
payment:
  stripe_secret_key: "sk_test_123"
  domain_url: "https://decor.example.com/"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("expected expanded jwt secret, got %q", cfg.Auth.JWTSecret)
	}
	if cfg.Database.Driver != DriverSQLite {
		t.Errorf("expected default driver sqlite, got %s", cfg.Database.Driver)
	}
	if cfg.Auth.Issuer != "styledecor" {
		t.Errorf("expected issuer to default to app name, got %s", cfg.Auth.Issuer)
	}
	if !cfg.Auth.IsAdminEmail("boss@example.com") {
		t.Errorf("expected admin email match to ignore case")
	}
	if got := cfg.Payment.SuccessURL(); got != "https://decor.example.com/payment-success?session_id={CHECKOUT_SESSION_ID}" {
		t.Errorf("unexpected success url %s", got)
	}
	if got := cfg.Payment.CancelURL(); got != "https://decor.example.com/payment-failed" {
		t.Errorf("unexpected cancel url %s", got)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			Database: DatabaseConfig{Driver: DriverSQLite, Path: "path"},
			Auth:     AuthConfig{JWTSecret: "secret"},
			Payment:  PaymentConfig{StripeSecretKey: "sk", DomainURL: "http://localhost"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: true},
		{name: "missing sqlite path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mongo" }, wantErr: true},
		{
			name: "postgres without host",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				c.Database.Postgres.DBName = "decor"
			},
			wantErr: true,
		},
		{
			name: "postgres",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				c.Database.Postgres = PostgresConfig{Host: "db", DBName: "decor"}
			},
		},
		{name: "missing stripe key", mutate: func(c *Config) { c.Payment.StripeSecretKey = "" }, wantErr: true},
		{name: "missing domain", mutate: func(c *Config) { c.Payment.DomainURL = "" }, wantErr: true},
		{name: "amqp without exchange", mutate: func(c *Config) { c.Events.AMQPURL = "amqp://localhost" }, wantErr: true},
		{name: "backup without path", mutate: func(c *Config) { c.Backup.Enabled = true }, wantErr: true},
		{
			name: "backup on postgres",
			mutate: func(c *Config) {
				c.Database.Driver = DriverPostgres
				c.Database.Postgres = PostgresConfig{Host: "db", DBName: "decor"}
				c.Backup = BackupConfig{Enabled: true, StoragePath: "backups"}
			},
			wantErr: true,
		},
		{name: "backup", mutate: func(c *Config) { c.Backup = BackupConfig{Enabled: true, StoragePath: "backups"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.API.GRPC.Port != 8081 {
		t.Errorf("expected default gRPC port 8081, got %d", cfg.API.GRPC.Port)
	}
	if cfg.API.HTTP.Port != 8080 {
		t.Errorf("expected default HTTP port 8080, got %d", cfg.API.HTTP.Port)
	}
	if cfg.Payment.Currency != models.DefaultCurrency {
		t.Errorf("expected default currency %s, got %s", models.DefaultCurrency, cfg.Payment.Currency)
	}
	if cfg.Checkout.RateLimit != models.CheckoutRateLimit {
		t.Errorf("expected default checkout limit %d, got %d", models.CheckoutRateLimit, cfg.Checkout.RateLimit)
	}
	if cfg.Checkout.RateWindow().Seconds() != models.CheckoutRateWindow {
		t.Errorf("unexpected checkout window %s", cfg.Checkout.RateWindow())
	}
	if cfg.Database.Postgres.Port != 5432 {
		t.Errorf("expected default postgres port, got %d", cfg.Database.Postgres.Port)
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "decor", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=decor sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN() = %s, want %s", got, want)
	}
}

func TestBackupInterval(t *testing.T) {
	if got := (BackupConfig{Interval: "6h"}).IntervalDuration(); got.Hours() != 6 {
		t.Errorf("expected 6h, got %s", got)
	}
	if got := (BackupConfig{Interval: "soon"}).IntervalDuration(); got.Hours() != 24 {
		t.Errorf("expected fallback to 24h, got %s", got)
	}
}
