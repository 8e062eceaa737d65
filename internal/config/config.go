package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logger"
	"gopkg.in/yaml.v3"
)

type Config struct {
	LogConfig   logger.LogConfig  `json:"log_config"`
	Port        int               `json:"port"`
	JWTSecret   string            `json:"jwt_secret"`
	Admins      []string          `json:"admins"`
	CORSOrigins []string          `json:"cors_origins"`
	Database    DatabaseConfig    `json:"database"`
	AI          AIConfig          `json:"ai"`
	Transport   TransportConfig   `json:"transport"`
	Document    DocumentConfig    `json:"document"`
	Curation    CurationConfig    `json:"curation"`
	Posting     PostingConfig     `json:"posting"`
	History     HistoryConfig     `json:"history"`
	ParamsCache ParamsCacheConfig `json:"params_cache"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AIProviderConfig struct {
	Name  string      `json:"name"`
	Model string      `json:"model"`
	Data  interface{} `json:"data"`
}

type AIConfig struct {
	Providers      []AIProviderConfig `json:"providers"`
	TimeoutSec     int                `json:"timeout_sec"`
	PromptTemplate string             `json:"prompt_template"`
	Raw            bool               `json:"raw"`
}

type TransportConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	UseSSL    bool   `json:"use_ssl"`
}

type DocumentConfig struct {
	Source       string   `json:"source"`
	Path         string   `json:"path"`
	Format       string   `json:"format"`
	SkipPages    int      `json:"skip_pages"`
	PageSelector string   `json:"page_selector"`
	S3           S3Config `json:"s3"`
}

type CurationConfig struct {
	MinLength        int      `json:"min_length"`
	ExtraCodeMarkers []string `json:"extra_code_markers"`
	ExtraPublishers  []string `json:"extra_publishers"`
}

type PostingConfig struct {
	MinIntervalSec    int    `json:"min_interval_sec"`
	MaxIntervalSec    int    `json:"max_interval_sec"`
	RestartAfterHours int    `json:"restart_after_hours"`
	RestartCheckSpec  string `json:"restart_check_spec"`
	ReplyCooldownSec  int    `json:"reply_cooldown_sec"`
}

type HistoryConfig struct {
	KeepDays    int    `json:"keep_days"`
	CleanupSpec string `json:"cleanup_spec"`
}

type ParamsCacheConfig struct {
	Size   int `json:"size"`
	TTLSec int `json:"ttl_sec"`
}

func (c AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

func (c PostingConfig) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalSec) * time.Second
}

func (c PostingConfig) MaxInterval() time.Duration {
	return time.Duration(c.MaxIntervalSec) * time.Second
}

func (c PostingConfig) ReplyCooldown() time.Duration {
	return time.Duration(c.ReplyCooldownSec) * time.Second
}

func (c PostingConfig) RestartAfter() time.Duration {
	return time.Duration(c.RestartAfterHours) * time.Hour
}

func (c HistoryConfig) KeepFor() time.Duration {
	return time.Duration(c.KeepDays) * 24 * time.Hour
}

func (c ParamsCacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// Load reads a JSON or YAML config file, applies environment overrides and
// defaults, and checks the document section. Checks that only matter to the
// long-running service live in Validate.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	cfg, err := decode(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := validateDocument(cfg.Document); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(raw []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var tree interface{}
		if err := yaml.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("decode yaml config: %w", err)
		}
		bridged, err := json.Marshal(tree)
		if err != nil {
			return nil, fmt.Errorf("convert yaml config: %w", err)
		}
		raw = bridged
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("BOOKBOT_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("BOOKBOT_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.AI.TimeoutSec <= 0 {
		cfg.AI.TimeoutSec = 60
	}
	if cfg.Transport.Type == "" {
		cfg.Transport.Type = "log"
	}
	if cfg.Document.Source == "" {
		cfg.Document.Source = "local"
	}
	if cfg.Document.Format == "" {
		cfg.Document.Format = formatFromPath(cfg.Document.Path)
	}
	if cfg.Document.S3.Region == "" {
		cfg.Document.S3.Region = "us-east-1"
	}
	if cfg.Posting.MinIntervalSec <= 0 {
		cfg.Posting.MinIntervalSec = 300
	}
	if cfg.Posting.MaxIntervalSec <= 0 {
		cfg.Posting.MaxIntervalSec = 780
	}
	if cfg.Posting.MaxIntervalSec < cfg.Posting.MinIntervalSec {
		cfg.Posting.MaxIntervalSec = cfg.Posting.MinIntervalSec
	}
	if cfg.Posting.RestartCheckSpec == "" {
		cfg.Posting.RestartCheckSpec = "@every 1m"
	}
	if cfg.Posting.ReplyCooldownSec <= 0 {
		cfg.Posting.ReplyCooldownSec = 5
	}
	if cfg.History.KeepDays <= 0 {
		cfg.History.KeepDays = 30
	}
	if cfg.History.CleanupSpec == "" {
		cfg.History.CleanupSpec = "@every 1h"
	}
	if cfg.ParamsCache.Size <= 0 {
		cfg.ParamsCache.Size = 256
	}
	if cfg.ParamsCache.TTLSec <= 0 {
		cfg.ParamsCache.TTLSec = 600
	}
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "markdown"
	case ".html", ".htm":
		return "html"
	default:
		return "text"
	}
}

func validateDocument(doc DocumentConfig) error {
	if doc.Path == "" {
		return fmt.Errorf("document.path is required")
	}
	if doc.SkipPages < 0 {
		return fmt.Errorf("document.skip_pages must not be negative")
	}
	switch doc.Format {
	case "text", "markdown", "html":
	default:
		return fmt.Errorf("document.format must be text, markdown or html")
	}
	switch doc.Source {
	case "local":
	case "s3":
		if doc.S3.Bucket == "" {
			return fmt.Errorf("document.s3.bucket is required for s3 source")
		}
	default:
		return fmt.Errorf("document.source must be local or s3")
	}
	return nil
}

// Validate checks what the posting service needs on top of Load.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if len(c.Admins) == 0 {
		return fmt.Errorf("admins is required")
	}
	if c.Database.DSN == "" && c.Database.Host == "" {
		return fmt.Errorf("database.dsn or database.host is required")
	}
	if len(c.AI.Providers) == 0 {
		return fmt.Errorf("ai.providers is required")
	}
	for i, p := range c.AI.Providers {
		if p.Name == "" {
			return fmt.Errorf("ai.providers[%d].name is required", i)
		}
	}
	return nil
}
