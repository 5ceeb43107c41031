package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth for the HTTP API
	APIKey string `yaml:"api_key"`

	// Notion connection
	NotionToken        string        `yaml:"notion_token"`
	NotionBaseURL      string        `yaml:"notion_base_url"`
	NotionVersion      string        `yaml:"notion_version"`
	NotionParentPageID string        `yaml:"notion_parent_page_id"`
	NotionTimeout      time.Duration `yaml:"notion_timeout"`

	// Worker pool
	WorkerCount         int `yaml:"worker_count"`
	MaxQueueSize        int `yaml:"max_queue_size"`
	MaxConcurrentAppend int `yaml:"max_concurrent_append"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// Conversion
	MaxNestingDepth int  `yaml:"max_nesting_depth"`
	EquationNumbers bool `yaml:"equation_numbers"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		NotionBaseURL:        "https://api.notion.com",
		NotionVersion:        "2022-06-28",
		NotionTimeout:        30 * time.Second,
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxConcurrentAppend:  3,
		MaxUploadBytes:       52428800, // 50MB
		JobTTL:               1 * time.Hour,
		MaxNestingDepth:      64,
		PDFFallbackPdftotext: true,
	}
}

// Load starts from Defaults, applies the YAML file named by MD2NOTION_CONFIG
// if set, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()
	if path := os.Getenv("MD2NOTION_CONFIG"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("MD2NOTION_API_KEY", cfg.APIKey)

	cfg.NotionToken = envOr("NOTION_TOKEN", cfg.NotionToken)
	cfg.NotionBaseURL = envOr("NOTION_BASE_URL", cfg.NotionBaseURL)
	cfg.NotionVersion = envOr("NOTION_VERSION", cfg.NotionVersion)
	cfg.NotionParentPageID = envOr("NOTION_PARENT_PAGE_ID", cfg.NotionParentPageID)
	cfg.NotionTimeout = envDuration("NOTION_TIMEOUT", cfg.NotionTimeout)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxConcurrentAppend = envInt("MAX_CONCURRENT_APPEND", cfg.MaxConcurrentAppend)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.MaxNestingDepth = envInt("MAX_NESTING_DEPTH", cfg.MaxNestingDepth)
	cfg.EquationNumbers = envBool("EQUATION_NUMBERS", cfg.EquationNumbers)
	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)

	cfg.clamp()
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// clamp resets nonsensical values to their defaults.
func (c *Config) clamp() {
	d := Defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxConcurrentAppend <= 0 {
		c.MaxConcurrentAppend = d.MaxConcurrentAppend
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.NotionTimeout <= 0 {
		c.NotionTimeout = d.NotionTimeout
	}
	if c.MaxNestingDepth <= 0 {
		c.MaxNestingDepth = d.MaxNestingDepth
	}
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("MD2NOTION_API_KEY is required")
	}
	if c.NotionToken == "" {
		return fmt.Errorf("NOTION_TOKEN is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
