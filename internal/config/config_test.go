package config

import (
	"os"
	"testing"
)

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	os.Setenv("STORAGE_PROFILE", "postgres")
	os.Unsetenv("DATABASE_URL")
	defer os.Unsetenv("STORAGE_PROFILE")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when DATABASE_URL is missing for postgres profile")
	}
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("STORAGE_PROFILE")
	os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}

	if cfg.StorageProfile != "memory" {
		t.Errorf("expected default storage profile 'memory', got %s", cfg.StorageProfile)
	}

	if cfg.DBMaxConns != 20 {
		t.Errorf("expected default max conns 20, got %d", cfg.DBMaxConns)
	}

	if cfg.RequestTimeout != 30 {
		t.Errorf("expected default request timeout 30, got %d", cfg.RequestTimeout)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_ResolvedAuthMode(t *testing.T) {
	c := &Config{Env: "development"}
	if got := c.ResolvedAuthMode(); got != "development" {
		t.Errorf("expected development mode, got %s", got)
	}

	c = &Config{Env: "production"}
	if got := c.ResolvedAuthMode(); got != "token" {
		t.Errorf("expected token mode, got %s", got)
	}

	c = &Config{Env: "production", AuthMode: "development"}
	if got := c.ResolvedAuthMode(); got != "development" {
		t.Errorf("expected explicit mode to win, got %s", got)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name:    "development defaults are valid",
			cfg:     &Config{Env: "development", StorageProfile: "memory"},
			wantErr: false,
		},
		{
			name:    "token mode without secret",
			cfg:     &Config{Env: "staging", StorageProfile: "memory"},
			wantErr: true,
		},
		{
			name:    "token mode with secret",
			cfg:     &Config{Env: "staging", StorageProfile: "memory", AuthSecret: "s3cret"},
			wantErr: false,
		},
		{
			name:    "dev auth mode forbidden in production",
			cfg:     &Config{Env: "production", AuthMode: "development", StorageProfile: "postgres"},
			wantErr: true,
		},
		{
			name:    "memory profile forbidden in production",
			cfg:     &Config{Env: "production", StorageProfile: "memory", AuthSecret: "s3cret"},
			wantErr: true,
		},
		{
			name:    "unknown storage profile",
			cfg:     &Config{Env: "development", StorageProfile: "sqlite"},
			wantErr: true,
		},
		{
			name:    "production postgres with secret",
			cfg:     &Config{Env: "production", StorageProfile: "postgres", AuthSecret: "s3cret", DatabaseURL: "postgres://x"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
