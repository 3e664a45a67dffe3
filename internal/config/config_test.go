// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	os.Clearenv()
	setEnv(t, "STUDIO_JWT_SECRET", testSecret)
	setEnv(t, "STUDIO_ADMIN_PASSWORD_HASH", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBDriver != DriverSQLite {
		t.Errorf("DBDriver = %q, want %q", cfg.DBDriver, DriverSQLite)
	}
	if cfg.DBPath != "./data/studio.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/studio.db")
	}
	if cfg.ServerAddr() != "localhost:8080" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "localhost:8080")
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}
	if cfg.RelayTimeout != 10*time.Second {
		t.Errorf("RelayTimeout = %v, want 10s", cfg.RelayTimeout)
	}
	if cfg.AlertWindow != 30*time.Second {
		t.Errorf("AlertWindow = %v, want 30s", cfg.AlertWindow)
	}
	if cfg.ImageBackend != ImageBackendLocal {
		t.Errorf("ImageBackend = %q, want %q", cfg.ImageBackend, ImageBackendLocal)
	}
	if cfg.UseRedis() || cfg.RelayEnabled() || cfg.GeoIPEnabled() {
		t.Error("optional integrations should be disabled by default")
	}
	if cfg.StoreDSN() != cfg.DBPath {
		t.Errorf("StoreDSN() = %q, want DB path", cfg.StoreDSN())
	}
}

func TestLoad_CustomValues(t *testing.T) {
	setRequired(t)
	setEnv(t, "STUDIO_DB_DRIVER", "postgres")
	setEnv(t, "STUDIO_DB_DSN", "postgres://u:p@localhost/studio")
	setEnv(t, "STUDIO_SERVER_HOST", "0.0.0.0")
	setEnv(t, "STUDIO_SERVER_PORT", "3000")
	setEnv(t, "STUDIO_ENV", "production")
	setEnv(t, "STUDIO_RELAY_URL", "https://relay.example.com/send")
	setEnv(t, "STUDIO_RELAY_TIMEOUT", "3s")
	setEnv(t, "STUDIO_TRUSTED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.StoreDSN() != "postgres://u:p@localhost/studio" {
		t.Errorf("StoreDSN() = %q", cfg.StoreDSN())
	}
	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q", cfg.ServerAddr())
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if !cfg.RelayEnabled() {
		t.Error("RelayEnabled() = false, want true")
	}
	if cfg.RelayTimeout != 3*time.Second {
		t.Errorf("RelayTimeout = %v, want 3s", cfg.RelayTimeout)
	}
	if len(cfg.TrustedOrigins) != 2 {
		t.Errorf("TrustedOrigins = %v, want 2 entries", cfg.TrustedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "short secret",
			env:     map[string]string{"STUDIO_JWT_SECRET": "short"},
			wantErr: "at least",
		},
		{
			name:    "weak secret",
			env:     map[string]string{"STUDIO_JWT_SECRET": "change-me-to-32-byte-secret-key!"},
			wantErr: "known default",
		},
		{
			name:    "unknown driver",
			env:     map[string]string{"STUDIO_DB_DRIVER": "mongo"},
			wantErr: "STUDIO_DB_DRIVER",
		},
		{
			name:    "postgres without dsn",
			env:     map[string]string{"STUDIO_DB_DRIVER": "postgres"},
			wantErr: "STUDIO_DB_DSN",
		},
		{
			name:    "s3 without credentials",
			env:     map[string]string{"STUDIO_IMAGE_BACKEND": "s3"},
			wantErr: "STUDIO_S3_ENDPOINT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				setEnv(t, k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Clearenv()
	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error without required variables")
	}
}

func TestHasMinimumEntropy(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"abcDEF123", true},
		{"abc-def-123", true},
		{"ABCDEF", false},
	}
	for _, tt := range tests {
		if got := hasMinimumEntropy(tt.in); got != tt.want {
			t.Errorf("hasMinimumEntropy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
