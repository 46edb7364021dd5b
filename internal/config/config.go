// Package config loads runtime configuration from environment
// variables with validated defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the escrow service.
type Config struct {
	Port     int
	LogLevel string

	// Oracle settings.
	FeedAEndpoint string // collateral/USD feed; empty selects the built-in static feed
	FeedBEndpoint string // stable/USD feed; empty selects the built-in static feed
	FeedAPIKey    string
	MaxPriceAge   time.Duration
	FeedTimeout   time.Duration

	// Asset pair the service escrows.
	CollateralSymbol       string
	CollateralNativeSymbol string
	CollateralDecimals     int
	StableSymbol           string
	StableDecimals         int
	EscrowAccount          string

	RefundSweepInterval time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	maxPriceAge, err := getDuration("MAX_PRICE_AGE", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_PRICE_AGE: %w", err)
	}

	feedTimeout, err := getDuration("FEED_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_TIMEOUT: %w", err)
	}

	collateralDecimals, err := getInt("COLLATERAL_DECIMALS", 18)
	if err != nil {
		return nil, fmt.Errorf("invalid COLLATERAL_DECIMALS: %w", err)
	}
	stableDecimals, err := getInt("STABLE_DECIMALS", 18)
	if err != nil {
		return nil, fmt.Errorf("invalid STABLE_DECIMALS: %w", err)
	}
	if err := validDecimals("COLLATERAL_DECIMALS", collateralDecimals); err != nil {
		return nil, err
	}
	if err := validDecimals("STABLE_DECIMALS", stableDecimals); err != nil {
		return nil, err
	}

	refundSweepInterval, err := getDuration("REFUND_SWEEP_INTERVAL", 1*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid REFUND_SWEEP_INTERVAL: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:                   port,
		LogLevel:               logLevel,
		FeedAEndpoint:          getStr("FEED_A_ENDPOINT", ""),
		FeedBEndpoint:          getStr("FEED_B_ENDPOINT", ""),
		FeedAPIKey:             getStr("FEED_API_KEY", ""),
		MaxPriceAge:            maxPriceAge,
		FeedTimeout:            feedTimeout,
		CollateralSymbol:       getStr("COLLATERAL_SYMBOL", "WBNB"),
		CollateralNativeSymbol: getStr("COLLATERAL_NATIVE_SYMBOL", "BNB"),
		CollateralDecimals:     collateralDecimals,
		StableSymbol:           getStr("STABLE_SYMBOL", "USDT"),
		StableDecimals:         stableDecimals,
		EscrowAccount:          getStr("ESCROW_ACCOUNT", "escrow"),
		RefundSweepInterval:    refundSweepInterval,
		ReadTimeout:            readTimeout,
		WriteTimeout:           writeTimeout,
		IdleTimeout:            idleTimeout,
		ShutdownTimeout:        shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func validDecimals(key string, v int) error {
	if v < 0 || v > 36 {
		return fmt.Errorf("invalid %s: %d, must be between 0 and 36", key, v)
	}
	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
