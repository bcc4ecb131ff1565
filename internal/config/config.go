// Package config loads service settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port        string
	PostgresURL string
	DBSchema    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CartTTL       time.Duration

	KafkaBrokers     []string
	OrderEventsTopic string
	EmailServiceURL  string
	OTLPEndpoint     string
	ServiceVersion   string

	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary key lookup.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:             get("PORT", "8080"),
		PostgresURL:      get("POSTGRES_URL", ""),
		DBSchema:         get("DB_SCHEMA", "storefront"),
		RedisAddr:        get("REDIS_ADDR", ""),
		RedisPassword:    get("REDIS_PASSWORD", ""),
		OrderEventsTopic: get("ORDER_EVENTS_TOPIC", "order.events"),
		EmailServiceURL:  get("EMAIL_SERVICE_URL", ""),
		OTLPEndpoint:     get("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceVersion:   get("SERVICE_VERSION", "0.1.0"),
	}

	if brokers := get("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	var err error
	if cfg.RedisDB, err = strconv.Atoi(get("REDIS_DB", "0")); err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}
	if cfg.CartTTL, err = time.ParseDuration(get("CART_TTL", "72h")); err != nil {
		return nil, fmt.Errorf("parse CART_TTL: %w", err)
	}
	if cfg.FreeShippingThreshold, err = parseMoney(get("FREE_SHIPPING_THRESHOLD", "150.00")); err != nil {
		return nil, fmt.Errorf("parse FREE_SHIPPING_THRESHOLD: %w", err)
	}
	if cfg.FlatShippingFee, err = parseMoney(get("FLAT_SHIPPING_FEE", "12.99")); err != nil {
		return nil, fmt.Errorf("parse FLAT_SHIPPING_FEE: %w", err)
	}
	if cfg.TaxRate, err = parseMoney(get("TAX_RATE", "0.07")); err != nil {
		return nil, fmt.Errorf("parse TAX_RATE: %w", err)
	}

	return cfg, nil
}

// RequirePostgres reports a missing POSTGRES_URL.
func (c *Config) RequirePostgres() error {
	if c.PostgresURL == "" {
		return errors.New("POSTGRES_URL environment variable is required")
	}
	return nil
}

// PostgresDSN returns PostgresURL with search_path pinned to DBSchema, so every
// pooled connection resolves unqualified table names the same way.
func (c *Config) PostgresDSN() (string, error) {
	u, err := url.Parse(c.PostgresURL)
	if err != nil {
		return "", fmt.Errorf("parse POSTGRES_URL: %w", err)
	}
	q := u.Query()
	if q.Get("search_path") == "" {
		q.Set("search_path", c.DBSchema)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func parseMoney(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", raw)
	}
	return d, nil
}
