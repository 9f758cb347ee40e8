package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleYAML = `
server:
  port: "9090"
log:
  level: debug
redis:
  addr: localhost:6379
  ttl: 30m
bank:
  ttl: 5m
  week: 12
oracle:
  url: http://oracle.local/judge
  timeout: 20s
game:
  finalization: external
kafka:
  brokers: ["k1:9092", "k2:9092"]
  topic: twist-events
`

func TestLoadYAML(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "REDIS_ADDR", "GAME_FINALIZATION", "KAFKA_BROKERS", "KAFKA_TOPIC", "BANK_WEEK"} {
		t.Setenv(key, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" || cfg.Log.Level != "debug" || cfg.Redis.Addr != "localhost:6379" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Bank.Week != 12 || cfg.Game.Finalization != "external" {
		t.Fatalf("unexpected bank/game config: %+v", cfg)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Topic != "twist-events" {
		t.Fatalf("unexpected kafka config: %+v", cfg.Kafka)
	}
	if d := TTLDuration(cfg.Oracle.Timeout, time.Second); d != 20*time.Second {
		t.Fatalf("expected 20s oracle timeout, got %v", d)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("BANK_WEEK", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load without file: %v", err)
	}
	if cfg.Redis.Addr != "redis:6380" || cfg.Bank.Week != 3 {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "b:2" {
		t.Fatalf("unexpected brokers: %v", cfg.Kafka.Brokers)
	}
}

func TestTTLDurationFallback(t *testing.T) {
	if d := TTLDuration("", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback for empty, got %v", d)
	}
	if d := TTLDuration("soon", time.Minute); d != time.Minute {
		t.Fatalf("expected fallback for invalid, got %v", d)
	}
}
