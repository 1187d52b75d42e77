package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Address != ":8080" {
		t.Fatalf("address = %q", cfg.Server.Address)
	}
	if cfg.Store.Backend != "memory" || cfg.Store.Retention() != time.Hour {
		t.Fatalf("store defaults = %+v", cfg.Store)
	}
	if cfg.Generation.MinWords != 1000 || cfg.Generation.MaxWords != 1500 {
		t.Fatalf("generation bounds = %+v", cfg.Generation)
	}
	if cfg.Backends.Scorer != BackendDeepSeek || cfg.Backends.Writer != BackendOpenAI {
		t.Fatalf("backend routing = %+v", cfg.Backends)
	}
	if cfg.Backends.DeepSeek.ScoreScale != 5 || cfg.Backends.OpenAI.ScoreScale != 100 {
		t.Fatalf("score scales = %+v", cfg.Backends)
	}
	if cfg.Timeouts.Transcribe() != 10*time.Minute {
		t.Fatalf("transcribe ceiling = %v", cfg.Timeouts.Transcribe())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("DEEPSEEK_API_KEY", "ds-test")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("TUBESCRIBE_ADDR", ":9090")

	cfg := Load()

	if cfg.Backends.OpenAI.APIKey != "sk-test" {
		t.Fatalf("openai key = %q", cfg.Backends.OpenAI.APIKey)
	}
	if cfg.Transcribe.APIKey != "sk-test" {
		t.Fatal("transcribe key should inherit the OpenAI key")
	}
	if cfg.Backends.DeepSeek.APIKey != "ds-test" {
		t.Fatalf("deepseek key = %q", cfg.Backends.DeepSeek.APIKey)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.Redis.Addr != "redis:6379" {
		t.Fatalf("redis override not applied: %+v", cfg.Store)
	}
	if cfg.Server.Address != ":9090" {
		t.Fatalf("address = %q", cfg.Server.Address)
	}
}

func TestFileMergeKeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("generation:\n  maxWords: 2000\nbackends:\n  writer: deepseek\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TUBESCRIBE_CONFIG", path)

	cfg := Load()

	if cfg.Generation.MaxWords != 2000 {
		t.Fatalf("maxWords = %d", cfg.Generation.MaxWords)
	}
	if cfg.Generation.MinWords != 1000 {
		t.Fatalf("minWords default lost: %d", cfg.Generation.MinWords)
	}
	if cfg.Backends.Writer != BackendDeepSeek {
		t.Fatalf("writer routing = %q", cfg.Backends.Writer)
	}
	if cfg.Backends.Scorer != BackendDeepSeek {
		t.Fatalf("scorer default lost: %q", cfg.Backends.Scorer)
	}
}

func TestUnreadableFileFallsBackToDefaults(t *testing.T) {
	t.Setenv("TUBESCRIBE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.Server.Address != ":8080" {
		t.Fatalf("defaults lost: %+v", cfg.Server)
	}
}
