package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
environment: test
engine:
  symbol: "BINANCE:BTCUSDT"
backend:
  type: clickhouse
stream:
  websocket_url: "wss://example.test/ws"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.BuyThreshold != 70 {
		t.Fatalf("expected default buy threshold 70, got %v", cfg.Engine.BuyThreshold)
	}
	if cfg.Engine.SlowInterval != 120*time.Second || cfg.Engine.FastInterval != time.Second {
		t.Fatalf("unexpected default cadences: slow=%v fast=%v", cfg.Engine.SlowInterval, cfg.Engine.FastInterval)
	}
	if cfg.Engine.ReliabilityAlpha != 0.1 {
		t.Fatalf("expected default alpha 0.1, got %v", cfg.Engine.ReliabilityAlpha)
	}
	if cfg.Engine.WeightMin != 0.2 || cfg.Engine.WeightMax != 2.0 {
		t.Fatalf("unexpected weight bounds [%v,%v]", cfg.Engine.WeightMin, cfg.Engine.WeightMax)
	}
	if cfg.Risk.MaxLeverage != 50 {
		t.Fatalf("expected default max leverage 50, got %v", cfg.Risk.MaxLeverage)
	}
	if cfg.Stream.PingInterval != 30*time.Second {
		t.Fatalf("expected default ping interval, got %v", cfg.Stream.PingInterval)
	}
}

func TestLoadExplicitValuesKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalYAML+`
  reconnect_delay: 2s
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Stream.ReconnectDelay != 2*time.Second {
		t.Fatalf("expected explicit reconnect delay kept, got %v", cfg.Stream.ReconnectDelay)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateBackendType(t *testing.T) {
	bad := strings.Replace(minimalYAML, "type: clickhouse", "type: postgres", 1)
	if _, err := Load(writeConfig(t, bad)); err == nil || !strings.Contains(err.Error(), "backend.type") {
		t.Fatalf("expected backend.type error, got %v", err)
	}
}

func TestValidateMissingSymbol(t *testing.T) {
	bad := strings.Replace(minimalYAML, `symbol: "BINANCE:BTCUSDT"`, `symbol: ""`, 1)
	if _, err := Load(writeConfig(t, bad)); err == nil || !strings.Contains(err.Error(), "engine.symbol") {
		t.Fatalf("expected engine.symbol error, got %v", err)
	}
}

func TestValidateCadenceOrdering(t *testing.T) {
	bad := strings.Replace(minimalYAML, `symbol: "BINANCE:BTCUSDT"`, `symbol: "BINANCE:BTCUSDT"
  slow_interval: 1s
  fast_interval: 5s`, 1)
	if _, err := Load(writeConfig(t, bad)); err == nil || !strings.Contains(err.Error(), "fast_interval") {
		t.Fatalf("expected cadence error, got %v", err)
	}
}

func TestValidateThresholdRange(t *testing.T) {
	bad := strings.Replace(minimalYAML, `symbol: "BINANCE:BTCUSDT"`, `symbol: "BINANCE:BTCUSDT"
  buy_threshold: 40`, 1)
	if _, err := Load(writeConfig(t, bad)); err == nil || !strings.Contains(err.Error(), "buy_threshold") {
		t.Fatalf("expected threshold error, got %v", err)
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SYMBOL", "BINANCE:ETHUSDT")
	t.Setenv("BACKEND", "kafka")
	t.Setenv("BUY_THRESHOLD", "75")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "redis.test:6380")

	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Engine.Symbol != "BINANCE:ETHUSDT" {
		t.Fatalf("SYMBOL override missed: %s", cfg.Engine.Symbol)
	}
	if cfg.Backend.Type != "kafka" {
		t.Fatalf("BACKEND override missed: %s", cfg.Backend.Type)
	}
	if cfg.Engine.BuyThreshold != 75 {
		t.Fatalf("BUY_THRESHOLD override missed: %v", cfg.Engine.BuyThreshold)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("KAFKA_BROKERS override missed: %v", cfg.Kafka.Brokers)
	}
	if cfg.Redis.Addr != "redis.test:6380" {
		t.Fatalf("REDIS_ADDR override missed: %s", cfg.Redis.Addr)
	}
}

func TestLoadWithEnvBadFloatIgnored(t *testing.T) {
	t.Setenv("BUY_THRESHOLD", "not-a-number")
	cfg, err := LoadWithEnv(writeConfig(t, minimalYAML))
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if cfg.Engine.BuyThreshold != 70 {
		t.Fatalf("malformed override must fall back to default, got %v", cfg.Engine.BuyThreshold)
	}
}
