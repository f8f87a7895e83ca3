package main

import (
	"testing"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)

	if cfg.LLMProvider != "gemini" {
		t.Errorf("got provider %q", cfg.LLMProvider)
	}
	if cfg.LLMBatchSize != 10 || cfg.LLMRequestsPerMinute != 10 {
		t.Errorf("got batch=%d rpm=%d", cfg.LLMBatchSize, cfg.LLMRequestsPerMinute)
	}
	if cfg.ClassifyConfidence != 0.5 || cfg.ExtractConfidence != 0.5 {
		t.Errorf("got thresholds %f / %f", cfg.ClassifyConfidence, cfg.ExtractConfidence)
	}
	if cfg.StoreBackend != "sqlite" || cfg.DBPath != "./statussync.db" {
		t.Errorf("got backend=%q db=%q", cfg.StoreBackend, cfg.DBPath)
	}
	if cfg.RunWindowDays != 7 {
		t.Errorf("got window %d", cfg.RunWindowDays)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{LLMProvider: "anthropic", LLMBatchSize: 25, StoreBackend: "sheets"}
	applyDefaults(&cfg)

	if cfg.LLMProvider != "anthropic" || cfg.LLMBatchSize != 25 || cfg.StoreBackend != "sheets" {
		t.Errorf("defaults overwrote explicit values: %+v", cfg)
	}
}

func TestEnvOverride(t *testing.T) {
	cfg := Config{LLMProvider: "gemini"}
	t.Setenv("LLM_PROVIDER", "anthropic")
	envOverride(&cfg.LLMProvider, "LLM_PROVIDER")
	if cfg.LLMProvider != "anthropic" {
		t.Errorf("got %q", cfg.LLMProvider)
	}
}

func TestEnvOverrideEmptyLeavesValue(t *testing.T) {
	cfg := Config{DBPath: "./custom.db"}
	t.Setenv("DB_PATH", "")
	envOverride(&cfg.DBPath, "DB_PATH")
	if cfg.DBPath != "./custom.db" {
		t.Errorf("got %q", cfg.DBPath)
	}
}

func TestEnvOverrideIntAndFloat(t *testing.T) {
	cfg := Config{}
	t.Setenv("LLM_BATCH_SIZE", "5")
	t.Setenv("CLASSIFY_CONFIDENCE_THRESHOLD", "0.75")
	envOverrideInt(&cfg.LLMBatchSize, "LLM_BATCH_SIZE")
	envOverrideFloat(&cfg.ClassifyConfidence, "CLASSIFY_CONFIDENCE_THRESHOLD")
	if cfg.LLMBatchSize != 5 || cfg.ClassifyConfidence != 0.75 {
		t.Errorf("got batch=%d threshold=%f", cfg.LLMBatchSize, cfg.ClassifyConfidence)
	}
}
