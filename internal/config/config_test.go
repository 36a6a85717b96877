package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"AUTH_JWT_SECRET": "s3cret",
	}))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Server.GetServerAddr() != "0.0.0.0:8080" {
		t.Errorf("addr = %s", cfg.Server.GetServerAddr())
	}
	if cfg.Database.Driver != "sqlite" || cfg.Database.DSN != "./data/runpool.db" {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("token ttl = %v", cfg.Auth.TokenTTL)
	}
	if cfg.Campaign.SendTimeout != 10*time.Second || cfg.Campaign.Rate != 5 {
		t.Errorf("campaign = %+v", cfg.Campaign)
	}
	if cfg.App.IsProduction() {
		t.Error("default environment should not be production")
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"AUTH_JWT_SECRET":           "s3cret",
		"SERVER_PUBLIC_URL":         "https://runpool.app/",
		"DB_DRIVER":                 "postgres",
		"DB_DSN":                    "postgres://runpool@localhost/runpool?sslmode=disable",
		"STRIPE_WEBHOOK_SECRET":     "whsec_1",
		"CAMPAIGN_SCHEDULER_SECRET": "cron",
		"CAMPAIGN_SEND_TIMEOUT":     "3s",
		"APP_ENVIRONMENT":           "production",
		"SMTP_HOST":                 "smtp.runpool.app",
	}))
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if got := cfg.Server.URL("/groups/g1"); got != "https://runpool.app/groups/g1" {
		t.Errorf("URL = %s", got)
	}
	if cfg.Database.Driver != "postgres" || cfg.Stripe.WebhookSecret != "whsec_1" || cfg.Campaign.SchedulerSecret != "cron" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Campaign.SendTimeout != 3*time.Second {
		t.Errorf("send timeout = %v", cfg.Campaign.SendTimeout)
	}
	if !cfg.App.IsProduction() {
		t.Error("expected production")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"missing jwt secret", map[string]string{}, "AUTH_JWT_SECRET"},
		{"unknown driver", map[string]string{"AUTH_JWT_SECRET": "x", "DB_DRIVER": "mysql"}, "DB_DRIVER"},
		{"zero rate", map[string]string{"AUTH_JWT_SECRET": "x", "CAMPAIGN_RATE": "0"}, "CAMPAIGN_RATE"},
		{"production without smtp", map[string]string{"AUTH_JWT_SECRET": "x", "APP_ENVIRONMENT": "production"}, "SMTP_HOST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(tt.env))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDatabase(t *testing.T) {
	cfg, err := LoadDatabase(context.Background(), envconfig.MapLookuper(map[string]string{
		"DB_DRIVER": "postgres",
		"DB_DSN":    "postgres://runpool@localhost/runpool?sslmode=disable",
		// Server settings are not needed and not validated.
		"AUTH_JWT_SECRET": "",
	}))
	if err != nil {
		t.Fatalf("LoadDatabase failed: %v", err)
	}
	if cfg.Driver != "postgres" || !strings.HasPrefix(cfg.DSN, "postgres://") {
		t.Errorf("database = %+v", cfg)
	}
	if cfg.MaxOpenConns != 25 {
		t.Errorf("max open conns = %d", cfg.MaxOpenConns)
	}
}
