package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MD2NOTION_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8090" || cfg.WorkerCount != 4 || cfg.MaxNestingDepth != 64 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if !cfg.PDFFallbackPdftotext || cfg.EquationNumbers {
		t.Errorf("unexpected bool defaults %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MD2NOTION_CONFIG", "")
	t.Setenv("PORT", "9000")
	t.Setenv("NOTION_TOKEN", "tok")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("JOB_TTL", "10m")
	t.Setenv("EQUATION_NUMBERS", "true")
	t.Setenv("MAX_CONCURRENT_APPEND", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" || cfg.NotionToken != "tok" || cfg.WorkerCount != 8 {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.JobTTL != 10*time.Minute || !cfg.EquationNumbers {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.MaxConcurrentAppend != 3 {
		t.Errorf("invalid int should keep default, got %d", cfg.MaxConcurrentAppend)
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "md2notion.yaml")
	yml := "port: \"7000\"\nnotion_parent_page_id: parent-1\nworker_count: 2\nnotion_timeout: 5s\nworker_count_typo: 1\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MD2NOTION_CONFIG", path)
	t.Setenv("WORKER_COUNT", "6")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7000" || cfg.NotionParentPageID != "parent-1" {
		t.Errorf("yaml not applied: %+v", cfg)
	}
	if cfg.NotionTimeout != 5*time.Second {
		t.Errorf("yaml duration not applied: %v", cfg.NotionTimeout)
	}
	if cfg.WorkerCount != 6 {
		t.Errorf("env should override yaml, got %d", cfg.WorkerCount)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: [unclosed"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MD2NOTION_CONFIG", path)
	if _, err := Load(); err == nil {
		t.Error("expected error for malformed yaml")
	}

	t.Setenv("MD2NOTION_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_ClampsNonPositive(t *testing.T) {
	t.Setenv("MD2NOTION_CONFIG", "")
	t.Setenv("WORKER_COUNT", "0")
	t.Setenv("MAX_NESTING_DEPTH", "-1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkerCount != 4 || cfg.MaxNestingDepth != 64 {
		t.Errorf("expected clamped values, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without api key")
	}
	cfg.APIKey = "k"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without notion token")
	}
	cfg.NotionToken = "t"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
