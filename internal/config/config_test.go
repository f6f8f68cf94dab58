// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host     string
		expected bool
	}{
		{"", true},
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"vote.localhost", true},
		{"sub.domain.localhost", true},
		{"example.com", false},
		{"www.example.com", false},
		{"192.168.1.1", false},
		{"localhost.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsLocalhost(tt.host))
		})
	}
}

func TestShouldUseTLS(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		host     string
		expected bool
	}{
		{"off mode", "off", "example.com", false},
		{"acme mode", "acme", "localhost", true},
		{"manual mode", "manual", "localhost", true},
		{"auto mode with localhost", "auto", "localhost", false},
		{"auto mode with remote host", "auto", "example.com", true},
		{"empty mode with localhost", "", "localhost", false},
		{"empty mode with remote host", "", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shouldUseTLS(tt.mode, tt.host))
		})
	}
}

func TestBuildBaseURL(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *Config
		expected string
	}{
		{
			name: "localhost HTTP default port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 80},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost",
		},
		{
			name: "localhost HTTP custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "localhost", Port: 8080},
				TLS:    TLSConfig{Mode: "off"},
			},
			expected: "http://localhost:8080",
		},
		{
			name: "remote host with auto TLS",
			cfg: &Config{
				Server: ServerConfig{Host: "vote.example.com", Port: 443},
				TLS:    TLSConfig{Mode: "auto"},
			},
			expected: "https://vote.example.com",
		},
		{
			name: "manual TLS custom port",
			cfg: &Config{
				Server: ServerConfig{Host: "vote.example.com", Port: 8443},
				TLS:    TLSConfig{Mode: "manual"},
			},
			expected: "https://vote.example.com:8443",
		},
		{
			name: "ACME mode forces port 443",
			cfg: &Config{
				Server: ServerConfig{Host: "vote.example.com", Port: 8080},
				TLS:    TLSConfig{Mode: "acme"},
			},
			expected: "https://vote.example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildBaseURL(tt.cfg))
		})
	}
}

func TestSMTPConfig_Enabled(t *testing.T) {
	assert.False(t, SMTPConfig{}.Enabled())
	assert.True(t, SMTPConfig{Host: "smtp.example.com"}.Enabled())
}

func TestFile(t *testing.T) {
	t.Setenv("ELECTOBOT_CONFIG", "")
	assert.Equal(t, DefaultFile, File())

	t.Setenv("ELECTOBOT_CONFIG", "/etc/electobot.toml")
	assert.Equal(t, "/etc/electobot.toml", File())
}

func TestFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range Flags() {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	for _, name := range []string{
		"host", "port", "base-url", "log-level", "database-dsn", "tls-mode",
		"smtp-host", "smtp-from", "default-email-pattern",
	} {
		assert.True(t, flagNames[name], "should have %s flag", name)
	}
}

func runWithFlags(t *testing.T, args []string, check func(cfg *Config)) {
	t.Helper()
	app := &cli.Command{
		Name:  "test",
		Flags: Flags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			check(NewFromCLI(cmd))
			return nil
		},
	}
	require.NoError(t, app.Run(context.Background(), append([]string{"test"}, args...)))
}

func TestNewFromCLI(t *testing.T) {
	t.Setenv("ELECTOBOT_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	runWithFlags(t, nil, func(cfg *Config) {
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "http://localhost:8080", cfg.Server.BaseURL)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.Equal(t, "text", cfg.Log.Format)
		assert.Equal(t, "./data/electobot.db", cfg.Database.DSN)
		assert.Equal(t, 587, cfg.SMTP.Port)
		assert.True(t, cfg.SMTP.TLS)
		assert.False(t, cfg.SMTP.Enabled())
		assert.Equal(t, ".*", cfg.Registration.DefaultEmailPattern)
	})
}

func TestNewFromCLI_WithCustomValues(t *testing.T) {
	t.Setenv("ELECTOBOT_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	args := []string{
		"--host", "0.0.0.0",
		"--port", "9000",
		"--base-url", "https://vote.example.com/",
		"--log-level", "debug",
		"--database-dsn", "./data/test.db",
		"--smtp-host", "smtp.example.com",
		"--default-email-pattern", `.*@example\.com`,
	}
	runWithFlags(t, args, func(cfg *Config) {
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, "https://vote.example.com", cfg.Server.BaseURL)
		assert.Equal(t, "debug", cfg.Log.Level)
		assert.Equal(t, "./data/test.db", cfg.Database.DSN)
		assert.True(t, cfg.SMTP.Enabled())
		assert.Equal(t, `.*@example\.com`, cfg.Registration.DefaultEmailPattern)
	})
}

func TestNewFromCLI_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = 9090

[smtp]
host = "mail.example.com"
from = "vote@example.com"

[registration]
default_email_pattern = ".*@example\\.org"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ELECTOBOT_CONFIG", path)

	runWithFlags(t, []string{"--tls-mode", "off"}, func(cfg *Config) {
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "mail.example.com", cfg.SMTP.Host)
		assert.Equal(t, "vote@example.com", cfg.SMTP.From)
		assert.Equal(t, `.*@example\.org`, cfg.Registration.DefaultEmailPattern)
	})
}

func TestNewFromCLI_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nport = 9090\n"), 0o600))
	t.Setenv("ELECTOBOT_CONFIG", path)
	t.Setenv("PORT", "7070")

	runWithFlags(t, nil, func(cfg *Config) {
		assert.Equal(t, 7070, cfg.Server.Port)
	})
}
