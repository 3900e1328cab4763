// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, mailer) via constructors.
  - Zero Hidden State: No global variables are used to store config.

Token lifetimes are policy and live in code, not here.
*/
package config

import (
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the RecipeHub API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value store (Redis) for single-use reset and verification tokens
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`
	JWTIssuer      string `env:"JWT_ISSUER" envDefault:"recipehub.app"`

	// BcryptCost is clamped to bcrypt's supported range by sec.NewHasher.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// SessionJanitorInterval is how often expired session rows are purged. Zero disables it.
	SessionJanitorInterval time.Duration `env:"SESSION_JANITOR_INTERVAL" envDefault:"1h"`

	// Transactional email (Resend). An empty key logs mails instead of sending them.
	ResendAPIKey    string `env:"RESEND_API_KEY"`
	MailFromAddress string `env:"MAIL_FROM_ADDRESS" envDefault:"no-reply@recipehub.app"`
	MailFromName    string `env:"MAIL_FROM_NAME"    envDefault:"RecipeHub"`

	// AppBaseURL prefixes the links sent in reset and verification emails.
	AppBaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:3000"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`

	// TrustedProxies lists the addresses or CIDRs of reverse proxies whose
	// X-Real-IP and X-Forwarded-For headers are believed. Empty trusts none.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`

	trustedProxies []netip.Prefix
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {
	return parse(env.Options{})
}

func parse(options env.Options) (*Config, error) {
	cfg := &Config{}

	// Fails if any field marked 'required' is missing
	if err := env.ParseWithOptions(cfg, options); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	prefixes, err := parseProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("config: TRUSTED_PROXIES: %w", err)
	}
	cfg.trustedProxies = prefixes

	return cfg, nil
}

// parseProxies accepts CIDRs and bare addresses. A bare address is a
// single-host prefix.
func parseProxies(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}

		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// TrustedProxyPrefixes returns the parsed TrustedProxies. It is empty for a
// Config that was not produced by [Load].
func (c *Config) TrustedProxyPrefixes() []netip.Prefix {
	return c.trustedProxies
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
