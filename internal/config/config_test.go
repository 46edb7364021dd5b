package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "FEED_A_ENDPOINT", "FEED_B_ENDPOINT",
		"FEED_API_KEY", "MAX_PRICE_AGE", "FEED_TIMEOUT",
		"COLLATERAL_SYMBOL", "COLLATERAL_NATIVE_SYMBOL", "COLLATERAL_DECIMALS",
		"STABLE_SYMBOL", "STABLE_DECIMALS", "ESCROW_ACCOUNT",
		"REFUND_SWEEP_INTERVAL", "READ_TIMEOUT", "WRITE_TIMEOUT",
		"IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.FeedAEndpoint != "" {
		t.Errorf("FeedAEndpoint = %q, want empty", cfg.FeedAEndpoint)
	}
	if cfg.MaxPriceAge != 5*time.Minute {
		t.Errorf("MaxPriceAge = %v, want 5m", cfg.MaxPriceAge)
	}
	if cfg.FeedTimeout != 5*time.Second {
		t.Errorf("FeedTimeout = %v, want 5s", cfg.FeedTimeout)
	}
	if cfg.CollateralSymbol != "WBNB" {
		t.Errorf("CollateralSymbol = %q, want %q", cfg.CollateralSymbol, "WBNB")
	}
	if cfg.CollateralNativeSymbol != "BNB" {
		t.Errorf("CollateralNativeSymbol = %q, want %q", cfg.CollateralNativeSymbol, "BNB")
	}
	if cfg.CollateralDecimals != 18 {
		t.Errorf("CollateralDecimals = %d, want 18", cfg.CollateralDecimals)
	}
	if cfg.StableSymbol != "USDT" {
		t.Errorf("StableSymbol = %q, want %q", cfg.StableSymbol, "USDT")
	}
	if cfg.StableDecimals != 18 {
		t.Errorf("StableDecimals = %d, want 18", cfg.StableDecimals)
	}
	if cfg.EscrowAccount != "escrow" {
		t.Errorf("EscrowAccount = %q, want %q", cfg.EscrowAccount, "escrow")
	}
	if cfg.RefundSweepInterval != 1*time.Second {
		t.Errorf("RefundSweepInterval = %v, want 1s", cfg.RefundSweepInterval)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout = %v, want 60s", cfg.IdleTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FEED_A_ENDPOINT", "https://oracle.example/bnb-usd")
	t.Setenv("FEED_B_ENDPOINT", "https://oracle.example/usdt-usd")
	t.Setenv("FEED_API_KEY", "k")
	t.Setenv("MAX_PRICE_AGE", "30s")
	t.Setenv("FEED_TIMEOUT", "2s")
	t.Setenv("COLLATERAL_SYMBOL", "WETH")
	t.Setenv("COLLATERAL_NATIVE_SYMBOL", "ETH")
	t.Setenv("COLLATERAL_DECIMALS", "18")
	t.Setenv("STABLE_SYMBOL", "USDC")
	t.Setenv("STABLE_DECIMALS", "6")
	t.Setenv("ESCROW_ACCOUNT", "vault")
	t.Setenv("REFUND_SWEEP_INTERVAL", "500ms")
	t.Setenv("SHUTDOWN_TIMEOUT", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.FeedAEndpoint != "https://oracle.example/bnb-usd" {
		t.Errorf("FeedAEndpoint = %q", cfg.FeedAEndpoint)
	}
	if cfg.MaxPriceAge != 30*time.Second {
		t.Errorf("MaxPriceAge = %v, want 30s", cfg.MaxPriceAge)
	}
	if cfg.CollateralSymbol != "WETH" || cfg.CollateralNativeSymbol != "ETH" {
		t.Errorf("collateral pair = %q/%q, want WETH/ETH", cfg.CollateralSymbol, cfg.CollateralNativeSymbol)
	}
	if cfg.StableSymbol != "USDC" || cfg.StableDecimals != 6 {
		t.Errorf("stable = %q/%d, want USDC/6", cfg.StableSymbol, cfg.StableDecimals)
	}
	if cfg.EscrowAccount != "vault" {
		t.Errorf("EscrowAccount = %q, want %q", cfg.EscrowAccount, "vault")
	}
	if cfg.RefundSweepInterval != 500*time.Millisecond {
		t.Errorf("RefundSweepInterval = %v, want 500ms", cfg.RefundSweepInterval)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 15s", cfg.ShutdownTimeout)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid LOG_LEVEL")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	for _, key := range []string{
		"MAX_PRICE_AGE", "FEED_TIMEOUT", "REFUND_SWEEP_INTERVAL",
		"READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, "5x")

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for invalid %s", key)
			}
		})
	}
}

func TestLoad_InvalidDecimals(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"COLLATERAL_DECIMALS", "-1"},
		{"COLLATERAL_DECIMALS", "37"},
		{"STABLE_DECIMALS", "99"},
		{"STABLE_DECIMALS", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}
