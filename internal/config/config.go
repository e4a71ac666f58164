package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"studiorent/internal/refund"
)

const (
	defaultAddr          = ":8080"
	defaultSlotLockOut   = "24h"
	defaultRentalLockOut = "24h"
	defaultTaxRate       = "0.10"
	defaultJWTSecret     = "change-me-jwt-secret"
	defaultJWTTTL        = "24h"
)

// Config is the runtime configuration of the reservation engine. Refund
// tables for slots and rentals are deliberately independent: the two
// policies differ in both granularity and thresholds.
type Config struct {
	Addr        string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	TaxRate float64

	SlotRefund   refund.Policy
	RentalRefund refund.Policy
}

func Load() (*Config, error) {
	cfg := &Config{
		Addr:        getEnv("ADDR", defaultAddr),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret)),
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	cfg.TaxRate, err = parseFloatEnv("TAX_RATE", defaultTaxRate)
	if err != nil {
		return nil, err
	}
	if cfg.TaxRate < 0 || cfg.TaxRate >= 1 {
		return nil, fmt.Errorf("TAX_RATE must be in [0, 1)")
	}

	cfg.SlotRefund = refund.DefaultSlotPolicy()
	cfg.SlotRefund.LockOut, err = parseDurationEnv("SLOT_CANCEL_LOCKOUT", defaultSlotLockOut)
	if err != nil {
		return nil, err
	}

	cfg.RentalRefund = refund.DefaultRentalPolicy()
	cfg.RentalRefund.LockOut, err = parseDurationEnv("RENTAL_CANCEL_LOCKOUT", defaultRentalLockOut)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseFloatEnv(name, fallback string) (float64, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return f, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
