// ABOUTME: Tests for configuration loading
// ABOUTME: Covers defaults, flag overrides and environment overrides
package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
)

func loadForTest(t *testing.T, args []string) PlayerCfg {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	_, cfg := load(fs, args)
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := loadForTest(t, nil)

	if cfg.Level != "info" {
		t.Errorf("level = %q, expected info", cfg.Level)
	}
	if cfg.MaxSleepMS != 3000 {
		t.Errorf("max_sleep_ms = %d, expected 3000", cfg.MaxSleepMS)
	}
	if cfg.CacheAhead != 30 || cfg.CacheBehind != 10 {
		t.Errorf("cache window = %d/%d, expected 30/10", cfg.CacheAhead, cfg.CacheBehind)
	}
	if cfg.Source != "" {
		t.Errorf("source = %q, expected empty (demo stream)", cfg.Source)
	}
	if cfg.SynthFPS != 24 || cfg.SynthSeconds != 10 {
		t.Errorf("demo stream = %dfps %ds, expected 24fps 10s", cfg.SynthFPS, cfg.SynthSeconds)
	}
	if cfg.EnableDiag {
		t.Error("diagnostics server should be off by default")
	}
}

func TestFlagsOverrideDefaults(t *testing.T) {
	cfg := loadForTest(t, []string{
		"--source", "song.mp3",
		"--max_sleep_ms", "500",
		"--silent",
		"--enable_diag",
		"--diag_addr", ":9000",
	})

	if cfg.Source != "song.mp3" {
		t.Errorf("source = %q, expected song.mp3", cfg.Source)
	}
	if cfg.MaxSleepMS != 500 {
		t.Errorf("max_sleep_ms = %d, expected 500", cfg.MaxSleepMS)
	}
	if !cfg.Silent {
		t.Error("silent flag not applied")
	}
	if !cfg.EnableDiag || cfg.DiagAddr != ":9000" {
		t.Errorf("diag = %v %q, expected enabled at :9000", cfg.EnableDiag, cfg.DiagAddr)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	os.Setenv("CACHE_AHEAD", "64")
	defer os.Unsetenv("CACHE_AHEAD")

	cfg := loadForTest(t, nil)
	if cfg.CacheAhead != 64 {
		t.Errorf("cache_ahead = %d, expected 64 from environment", cfg.CacheAhead)
	}
}
