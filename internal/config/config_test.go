package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogPageSize != 100 {
		t.Errorf("LogPageSize = %d, want 100", cfg.LogPageSize)
	}
	if cfg.FeedSize != 50 {
		t.Errorf("FeedSize = %d, want 50", cfg.FeedSize)
	}
	if cfg.MaxFileBytes != 2097152 {
		t.Errorf("MaxFileBytes = %d, want 2097152", cfg.MaxFileBytes)
	}
	if cfg.LogLength != 0 {
		t.Errorf("LogLength = %d, want 0", cfg.LogLength)
	}
	if !cfg.Highlight {
		t.Errorf("Highlight = false, want true")
	}
}

func TestLoadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "name: myrepo\nclone_url: https://example.com/myrepo.git\nlog_page_size: 25\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "myrepo" {
		t.Errorf("Name = %q, want myrepo", cfg.Name)
	}
	if cfg.CloneURL != "https://example.com/myrepo.git" {
		t.Errorf("CloneURL = %q", cfg.CloneURL)
	}
	if cfg.LogPageSize != 25 {
		t.Errorf("LogPageSize = %d, want 25", cfg.LogPageSize)
	}
	// Untouched keys keep their defaults.
	if cfg.FeedSize != 50 {
		t.Errorf("FeedSize = %d, want 50", cfg.FeedSize)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GITSTATIC_LOG_PAGE_SIZE", "7")
	t.Setenv("GITSTATIC_OWNER", "alice")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogPageSize != 7 {
		t.Errorf("LogPageSize = %d, want 7", cfg.LogPageSize)
	}
	if cfg.Owner != "alice" {
		t.Errorf("Owner = %q, want alice", cfg.Owner)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("GITSTATIC_LOG_PAGE_SIZE", "0")
	if _, err := Load(""); err == nil {
		t.Errorf("zero log_page_size accepted")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{LogPageSize: 100, FeedSize: 50, MaxFileBytes: 1024}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cases := map[string]Config{
		"negative log_length": {LogPageSize: 100, LogLength: -1, FeedSize: 50, MaxFileBytes: 1024},
		"zero feed_size":      {LogPageSize: 100, FeedSize: 0, MaxFileBytes: 1024},
		"zero max_file_bytes": {LogPageSize: 100, FeedSize: 50, MaxFileBytes: 0},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s accepted", name)
		}
	}
}

func TestPoolSize(t *testing.T) {
	t.Parallel()

	cfg := Config{Workers: 4}
	if got := cfg.PoolSize(); got != 4 {
		t.Errorf("PoolSize = %d, want 4", got)
	}
	cfg.Workers = 0
	if got := cfg.PoolSize(); got <= 0 {
		t.Errorf("default PoolSize = %d, want positive", got)
	}
}
