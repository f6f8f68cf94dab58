// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config

import (
	"fmt"
	"os"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	"github.com/urfave/cli-altsrc/v3/toml"
	"github.com/urfave/cli/v3"
)

// DefaultFile is read for settings not given as flags or environment variables.
const DefaultFile = "config.toml"

type Config struct { //nolint:govet // fieldalignment not critical for config structs
	Server       ServerConfig
	Log          LogConfig
	Database     DatabaseConfig
	TLS          TLSConfig
	SMTP         SMTPConfig
	Registration RegistrationConfig
}

type TLSConfig struct {
	Mode     string // auto, acme, manual, off
	CertDir  string // Directory for the ACME certificate cache
	Email    string // ACME email for Let's Encrypt
	CertFile string // Path to certificate file (manual mode)
	KeyFile  string // Path to private key file (manual mode)
}

type ServerConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host        string
	Port        int
	BaseURL     string
	MaxBodySize int // in MB
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // text, json
}

type DatabaseConfig struct {
	DSN string
}

// SMTPConfig configures outgoing mail. Mail is only sent when Host is set.
type SMTPConfig struct { //nolint:govet // fieldalignment not critical for config structs
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	TLS      bool
}

// Enabled reports whether an SMTP server is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type RegistrationConfig struct {
	// DefaultEmailPattern applies to events without their own pattern.
	DefaultEmailPattern string
}

func NewFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Server: ServerConfig{
			Host:        cmd.String("host"),
			Port:        int(cmd.Int("port")),
			BaseURL:     cmd.String("base-url"),
			MaxBodySize: int(cmd.Int("max-body-size")),
		},
		Log: LogConfig{
			Level:  cmd.String("log-level"),
			Format: cmd.String("log-format"),
		},
		Database: DatabaseConfig{
			DSN: cmd.String("database-dsn"),
		},
		TLS: TLSConfig{
			Mode:     cmd.String("tls-mode"),
			CertDir:  cmd.String("tls-cert-dir"),
			Email:    cmd.String("tls-email"),
			CertFile: cmd.String("tls-cert-file"),
			KeyFile:  cmd.String("tls-key-file"),
		},
		SMTP: SMTPConfig{
			Host:     cmd.String("smtp-host"),
			Port:     int(cmd.Int("smtp-port")),
			Username: cmd.String("smtp-username"),
			Password: cmd.String("smtp-password"),
			From:     cmd.String("smtp-from"),
			FromName: cmd.String("smtp-from-name"),
			TLS:      cmd.Bool("smtp-tls"),
		},
		Registration: RegistrationConfig{
			DefaultEmailPattern: cmd.String("default-email-pattern"),
		},
	}

	if cfg.Server.BaseURL == "" {
		cfg.Server.BaseURL = buildBaseURL(cfg)
	}
	cfg.Server.BaseURL = strings.TrimSuffix(cfg.Server.BaseURL, "/")

	return cfg
}

func buildBaseURL(cfg *Config) string {
	host := cfg.Server.Host
	port := cfg.Server.Port
	mode := strings.ToLower(cfg.TLS.Mode)

	scheme := "http"
	if shouldUseTLS(mode, host) {
		scheme = "https"
	}

	// ACME mode always uses port 443
	if mode == "acme" {
		return fmt.Sprintf("https://%s", host)
	}

	// Hide default ports in URL
	if (scheme == "http" && port == 80) || (scheme == "https" && port == 443) {
		return fmt.Sprintf("%s://%s", scheme, host)
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

func shouldUseTLS(mode, host string) bool {
	switch mode {
	case "off":
		return false
	case "acme", "manual":
		return true
	default: // "auto" or empty
		return !IsLocalhost(host)
	}
}

// IsLocalhost checks if the host is a localhost address.
func IsLocalhost(host string) bool {
	switch host {
	case "", "localhost", "127.0.0.1", "::1":
		return true
	}
	// Check for *.localhost subdomains (e.g., vote.localhost)
	return strings.HasSuffix(host, ".localhost")
}

// File returns the path of the TOML configuration file, taken from the
// ELECTOBOT_CONFIG environment variable when set.
func File() string {
	if path := os.Getenv("ELECTOBOT_CONFIG"); path != "" {
		return path
	}
	return DefaultFile
}

func sources(envKey, tomlKey string, src altsrc.Sourcer) cli.ValueSourceChain {
	return cli.NewValueSourceChain(cli.EnvVar(envKey), toml.TOML(tomlKey, src))
}

// Flags returns the global flags. Values are looked up on the command line,
// then in the environment, then in the configuration file.
func Flags() []cli.Flag {
	configFile := altsrc.StringSourcer(File())

	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Value:   "localhost",
			Usage:   "Host to bind to",
			Sources: sources("HOST", "server.host", configFile),
		},
		&cli.IntFlag{
			Name:    "port",
			Value:   8080,
			Usage:   "Port to listen on",
			Sources: sources("PORT", "server.port", configFile),
		},
		&cli.StringFlag{
			Name:    "base-url",
			Usage:   "Base URL used in voting and registration links",
			Sources: sources("BASE_URL", "server.base_url", configFile),
		},
		&cli.IntFlag{
			Name:    "max-body-size",
			Value:   1,
			Usage:   "Maximum request body size in MB",
			Sources: sources("MAX_BODY_SIZE", "server.max_body_size", configFile),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Value:   "info",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: sources("LOG_LEVEL", "log.level", configFile),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Value:   "text",
			Usage:   "Log format (text, json)",
			Sources: sources("LOG_FORMAT", "log.format", configFile),
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Value:   "./data/electobot.db",
			Usage:   "Database DSN",
			Sources: sources("DATABASE_DSN", "database.dsn", configFile),
		},
		&cli.StringFlag{
			Name:    "tls-mode",
			Value:   "auto",
			Usage:   "TLS mode (auto, acme, manual, off)",
			Sources: sources("TLS_MODE", "tls.mode", configFile),
		},
		&cli.StringFlag{
			Name:    "tls-cert-dir",
			Value:   "./data/certs",
			Usage:   "Directory for cached ACME certificates",
			Sources: sources("TLS_CERT_DIR", "tls.cert_dir", configFile),
		},
		&cli.StringFlag{
			Name:    "tls-email",
			Usage:   "Email for ACME/Let's Encrypt registration",
			Sources: sources("TLS_EMAIL", "tls.email", configFile),
		},
		&cli.StringFlag{
			Name:    "tls-cert-file",
			Usage:   "Path to TLS certificate file (manual mode)",
			Sources: sources("TLS_CERT_FILE", "tls.cert_file", configFile),
		},
		&cli.StringFlag{
			Name:    "tls-key-file",
			Usage:   "Path to TLS private key file (manual mode)",
			Sources: sources("TLS_KEY_FILE", "tls.key_file", configFile),
		},
		// SMTP flags
		&cli.StringFlag{
			Name:    "smtp-host",
			Usage:   "SMTP server host (voting links are only logged when empty)",
			Sources: sources("SMTP_HOST", "smtp.host", configFile),
		},
		&cli.IntFlag{
			Name:    "smtp-port",
			Value:   587,
			Usage:   "SMTP server port",
			Sources: sources("SMTP_PORT", "smtp.port", configFile),
		},
		&cli.StringFlag{
			Name:    "smtp-username",
			Usage:   "SMTP username",
			Sources: sources("SMTP_USERNAME", "smtp.username", configFile),
		},
		&cli.StringFlag{
			Name:    "smtp-password",
			Usage:   "SMTP password",
			Sources: sources("SMTP_PASSWORD", "smtp.password", configFile),
		},
		&cli.StringFlag{
			Name:    "smtp-from",
			Usage:   "Sender address for voting links",
			Sources: sources("SMTP_FROM", "smtp.from", configFile),
		},
		&cli.StringFlag{
			Name:    "smtp-from-name",
			Value:   "electobot",
			Usage:   "Sender name for voting links",
			Sources: sources("SMTP_FROM_NAME", "smtp.from_name", configFile),
		},
		&cli.BoolFlag{
			Name:    "smtp-tls",
			Value:   true,
			Usage:   "Require TLS for SMTP",
			Sources: sources("SMTP_TLS", "smtp.tls", configFile),
		},
		// Registration flags
		&cli.StringFlag{
			Name:    "default-email-pattern",
			Value:   ".*",
			Usage:   "Regular expression voter emails must match when an event sets none",
			Sources: sources("DEFAULT_EMAIL_PATTERN", "registration.default_email_pattern", configFile),
		},
	}
}
