package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func cleanupEnv() {
	for _, key := range GetEnvVars() {
		_ = os.Unsetenv(key)
	}
}

func TestLoadValidConfig(t *testing.T) {
	cleanupEnv()
	_ = os.Setenv("PORT", "8002")
	_ = os.Setenv("ADDRESS", "127.0.0.1")
	_ = os.Setenv("ENV", "dev")
	_ = os.Setenv("LOG_LEVEL", "info")
	_ = os.Setenv("DATA_DIR", "/tmp/rx")
	_ = os.Setenv("AUTOSAVE_INTERVAL", "5s")
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8002" {
		t.Errorf("Expected port 8002, got %s", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected env dev, got %s", cfg.Env)
	}
	if cfg.DataDir != "/tmp/rx" {
		t.Errorf("Expected data dir /tmp/rx, got %s", cfg.DataDir)
	}
	if cfg.AutosaveInterval != 5*time.Second {
		t.Errorf("Expected autosave interval 5s, got %s", cfg.AutosaveInterval)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	cleanupEnv()
	defer cleanupEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected default port 8000, got %s", cfg.Port)
	}
	if cfg.Address != "127.0.0.1" {
		t.Errorf("Expected default address 127.0.0.1, got %s", cfg.Address)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Expected default env dev, got %s", cfg.Env)
	}
	if cfg.AutosaveInterval != 2500*time.Millisecond {
		t.Errorf("Expected default autosave 2.5s, got %s", cfg.AutosaveInterval)
	}
	if cfg.SuggestDebounce != 90*time.Millisecond {
		t.Errorf("Expected default debounce 90ms, got %s", cfg.SuggestDebounce)
	}
	if cfg.MedicinesFile != "" || cfg.MedicinesURL != "" {
		t.Error("Expected no dataset source by default")
	}
}

func TestInvalidValues(t *testing.T) {
	testCases := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{"non numeric port", "PORT", "abc", "PORT must be a valid number"},
		{"port zero", "PORT", "0", "PORT must be between 1 and 65535"},
		{"port too high", "PORT", "65536", "PORT must be between 1 and 65535"},
		{"privileged port", "PORT", "80", "PORT 80 is privileged"},
		{"public address", "ADDRESS", "8.8.8.8", "is a public IP"},
		{"bad address", "ADDRESS", "not-an-ip", "must be a valid IP address"},
		{"bad env", "ENV", "qa", "ENV must be one of"},
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL must be one of"},
		{"huge request body", "MAX_REQUEST_BODY", "209715200", "too large"},
		{"too many weeks", "LOG_RETENTION_WEEKS", "60", "too large"},
		{"tiny log file", "MAX_LOG_FILE_SIZE", "10", "too small"},
		{"autosave too fast", "AUTOSAVE_INTERVAL", "10", "AUTOSAVE_INTERVAL"},
		{"ftp dataset url", "MEDICINES_URL", "ftp://example.org/meds.json", "MEDICINES_URL"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanupEnv()
			defer cleanupEnv()
			_ = os.Setenv(tc.key, tc.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.expected) {
				t.Errorf("Expected error containing %q, got %v", tc.expected, err)
			}
		})
	}
}

func TestValidAddresses(t *testing.T) {
	for _, addr := range []string{"127.0.0.1", "::1", "localhost", "192.168.1.20", "10.0.0.5"} {
		if err := validateAddress(addr); err != nil {
			t.Errorf("validateAddress(%q) unexpected error: %v", addr, err)
		}
	}
}

func TestDurationParsing(t *testing.T) {
	defer cleanupEnv()

	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"2500", 2500 * time.Millisecond},
		{"3s", 3 * time.Second},
		{"150ms", 150 * time.Millisecond},
		{"garbage", time.Second},
	}

	for _, tt := range tests {
		_ = os.Setenv("TEST_DURATION", tt.value)
		if got := getDurationEnvWithDefault("TEST_DURATION", time.Second); got != tt.expected {
			t.Errorf("getDurationEnvWithDefault(%q) = %s, want %s", tt.value, got, tt.expected)
		}
	}
	_ = os.Unsetenv("TEST_DURATION")
}
