package config

import (
	"os"
	"testing"
)

func TestConfigLoad_Defaults(t *testing.T) {
	t.Setenv("KEEPSTACK_HOME", t.TempDir())
	_ = os.Unsetenv("KEEPSTACK_DOC_DRIVER")
	_ = os.Unsetenv("KEEPSTACK_POSTGRES_DSN")
	_ = os.Unsetenv("KEEPSTACK_QUOTA_WARN_THRESHOLD")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.SyncQuotaBytes != 102400 || cfg.LocalQuotaBytes != 5242880 {
		t.Fatalf("unexpected default quotas: %+v", cfg)
	}
	if cfg.QuotaWarnThreshold != 0.8 {
		t.Fatalf("unexpected default warn threshold: %v", cfg.QuotaWarnThreshold)
	}
	if cfg.KeywordWeight != 0.6 || cfg.SubstringWeight != 0.4 {
		t.Fatalf("unexpected default relevance weights: %+v", cfg)
	}
	if cfg.HistoryCap != 50 || cfg.MaxPageSize != 100 || cfg.MinTokenLength != 3 {
		t.Fatalf("unexpected default search tuning: %+v", cfg)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	t.Setenv("KEEPSTACK_HOME", t.TempDir())
	t.Setenv("KEEPSTACK_HISTORY_CAP", "10")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HistoryCap != 10 {
		t.Fatalf("history cap env override failed, got %d", cfg.HistoryCap)
	}
}
