// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/oliverandrich/electobot/internal/config"
	"golang.org/x/crypto/acme/autocert"
)

// TLSMode represents the resolved TLS mode.
type TLSMode string

const (
	TLSModeOff    TLSMode = "off"
	TLSModeACME   TLSMode = "acme"
	TLSModeManual TLSMode = "manual"
)

// TLSResult contains the resolved TLS configuration.
type TLSResult struct {
	TLSConfig   *tls.Config
	CertManager *autocert.Manager // nil unless ACME mode
	HTTPHandler http.Handler      // HTTP to HTTPS redirect (ACME only)
	Mode        TLSMode
}

// portCheck reports whether a port can be bound. Tests replace it.
var portCheck = isPortAvailable

// SetupTLS configures TLS based on the configuration.
func SetupTLS(cfg *config.Config) (*TLSResult, error) {
	switch mode := resolveTLSMode(cfg); mode {
	case TLSModeOff:
		slog.Info("TLS mode: off")
		return &TLSResult{Mode: TLSModeOff}, nil

	case TLSModeACME:
		// Validate ACME requirements
		if err := validateACME(cfg); err != nil {
			return nil, err
		}
		slog.Info("TLS mode: acme (Let's Encrypt)",
			"host", cfg.Server.Host,
			"email", cfg.TLS.Email,
		)
		return setupACME(cfg)

	case TLSModeManual:
		slog.Info("TLS mode: manual",
			"cert", cfg.TLS.CertFile,
			"key", cfg.TLS.KeyFile,
		)
		return setupManual(cfg)

	default:
		return nil, fmt.Errorf("unknown TLS mode: %s", mode)
	}
}

// resolveTLSMode determines the TLS mode from the configuration. In auto mode
// a public host without certificates or ACME prerequisites is served over
// plain HTTP, expecting a TLS-terminating proxy in front.
func resolveTLSMode(cfg *config.Config) TLSMode {
	// Explicit mode takes precedence
	switch mode := strings.ToLower(cfg.TLS.Mode); mode {
	case "off":
		return TLSModeOff
	case "acme":
		return TLSModeACME
	case "manual":
		return TLSModeManual
	case "auto", "":
		// Fall through to auto-detection
	default:
		slog.Warn("unknown TLS mode, using auto", "mode", mode)
	}

	// Auto-detection logic
	if config.IsLocalhost(cfg.Server.Host) {
		return TLSModeOff
	}

	// If cert files are provided, use manual mode
	if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
		return TLSModeManual
	}

	// Let's Encrypt when the host, email and ports allow it
	if canUseACME(cfg) {
		return TLSModeACME
	}

	slog.Warn("no certificate available, serving plain HTTP; terminate TLS in a reverse proxy",
		"host", cfg.Server.Host)
	return TLSModeOff
}

// validateACME checks requirements when ACME mode is explicitly selected.
func validateACME(cfg *config.Config) error {
	// Warn if configured port is not 443
	if cfg.Server.Port != 443 {
		slog.Warn("ACME mode uses port 443, configured port will be ignored",
			"configured_port", cfg.Server.Port,
		)
	}

	// Validate email is provided
	if cfg.TLS.Email == "" {
		return fmt.Errorf("ACME mode requires TLS_EMAIL to be set")
	}

	// Check if port 80 is available (required for HTTP-01 challenge)
	if !portCheck(80) {
		return fmt.Errorf("ACME mode requires port 80 for HTTP-01 challenge (port in use)")
	}

	// Check if port 443 is available
	if !portCheck(443) {
		return fmt.Errorf("ACME mode requires port 443 for HTTPS (port in use)")
	}
	return nil
}

// canUseACME checks if ACME mode is available (for auto-detection).
func canUseACME(cfg *config.Config) bool {
	host := cfg.Server.Host

	switch {
	// Must not be localhost
	case config.IsLocalhost(host):
		return false
	// Must not be an IP address (Let's Encrypt doesn't issue certs for IPs)
	case net.ParseIP(host) != nil:
		slog.Debug("ACME disabled: host is an IP address")
		return false
	// Must have ACME email configured
	case cfg.TLS.Email == "":
		slog.Debug("ACME disabled: no email configured")
		return false
	// Port 80 must be available for the HTTP-01 challenge
	case !portCheck(80):
		slog.Debug("ACME disabled: port 80 not available")
		return false
	// Port 443 must be available
	case !portCheck(443):
		slog.Debug("ACME disabled: port 443 not available")
		return false
	}
	return true
}

// isPortAvailable checks if a port is available for binding.
func isPortAvailable(port int) bool {
	lc := &net.ListenConfig{}
	ln, err := lc.Listen(context.Background(), "tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = ln.Close()
	return true
}

// setupACME configures Let's Encrypt with autocert.
func setupACME(cfg *config.Config) (*TLSResult, error) {
	certDir := filepath.Join(cfg.TLS.CertDir, "acme")
	if err := os.MkdirAll(certDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create ACME cert directory: %w", err)
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Email:      cfg.TLS.Email,
		Cache:      autocert.DirCache(certDir),
		HostPolicy: autocert.HostWhitelist(cfg.Server.Host),
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	return &TLSResult{
		Mode:        TLSModeACME,
		TLSConfig:   tlsConfig,
		CertManager: manager,
		HTTPHandler: manager.HTTPHandler(nil),
	}, nil
}

// setupManual loads user-provided certificate files.
func setupManual(cfg *config.Config) (*TLSResult, error) {
	certFile := cfg.TLS.CertFile
	keyFile := cfg.TLS.KeyFile

	// Validate that both files are provided
	if certFile == "" || keyFile == "" {
		return nil, fmt.Errorf("manual TLS mode requires both cert-file and key-file")
	}

	// Load certificate
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	slog.Info("certificate loaded", "sha256", fingerprint(&cert))

	return &TLSResult{
		Mode: TLSModeManual,
		TLSConfig: &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		},
	}, nil
}

// fingerprint returns the colon-separated SHA256 fingerprint of the leaf certificate.
func fingerprint(cert *tls.Certificate) string {
	if len(cert.Certificate) == 0 {
		return ""
	}
	sum := sha256.Sum256(cert.Certificate[0])

	// Format as colon-separated hex string
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}
