package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Paths  PathsConfig  `yaml:"paths"`
	LLM    LLMConfig    `yaml:"llm"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// PathsConfig holds the data directories. Data keeps the JSON documents
// (employees, settings, cell map), Excel the workbooks, Archive the
// rotated-out workbooks.
type PathsConfig struct {
	Data    string `yaml:"data"`
	Excel   string `yaml:"excel"`
	Archive string `yaml:"archive"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

func Load(configFile string) *Config {
	c := &Config{
		Server: ServerConfig{Port: 8090},
		Log:    LogConfig{Level: "info", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Paths:  PathsConfig{Data: "data", Excel: "excel", Archive: filepath.Join("excel", "archive")},
		LLM:    LLMConfig{Model: "qwen-plus"},
	}

	paths := []string{"etc/config-dev.yaml", "/etc/hodiny/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	envOverride(&c.Paths.Data, "HODINY_DATA_PATH")
	envOverride(&c.Paths.Excel, "HODINY_EXCEL_PATH")
	envOverride(&c.Paths.Archive, "HODINY_ARCHIVE_PATH")
	envOverride(&c.LLM.BaseURL, "LLM_BASE_URL")
	envOverride(&c.LLM.APIKey, "LLM_API_KEY")
	envOverride(&c.LLM.Model, "LLM_MODEL")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverrideInt(&c.Server.Port, "PORT")

	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

// EnsureDirs creates the configured directories if they are missing.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.Data, c.Paths.Excel, c.Paths.Archive} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}
	return nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
