package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Memory  MemoryConfig  `mapstructure:"memory"`
	Reports ReportsConfig `mapstructure:"reports"`
	Log     LogConfig     `mapstructure:"log"`
}

// LLMConfig holds the generative text service configuration. Any
// OpenAI-compatible endpoint works (OpenAI, Gemini or Ollama gateways).
type LLMConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	// Timeout bounds every single generation call. Generation is not
	// idempotent, so timeouts surface as errors and are never retried.
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// DBConfig holds the MySQL connection settings.
type DBConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	Name           string        `mapstructure:"name"`
	PoolSize       int           `mapstructure:"pool_size"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
}

// DSN renders the go-sql-driver/mysql connection string.
func (c DBConfig) DSN() string {
	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&timeout=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, timeout)
}

// MemoryConfig selects and bounds the conversation memory backend.
type MemoryConfig struct {
	// Backend is "memory" or "sqlite".
	Backend     string        `mapstructure:"backend"`
	DBPath      string        `mapstructure:"db_path"`
	MaxSessions int           `mapstructure:"max_sessions"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"`
}

// ReportsConfig controls where generated artifacts (xlsx, csv, pdf) land.
type ReportsConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	// Format selects the report artifact format, "xlsx" or "csv".
	Format string `mapstructure:"format"`
	// BrochureLinkBase, when set, makes brochure requests answer with an
	// admin-panel download link instead of a locally rendered PDF.
	BrochureLinkBase string `mapstructure:"brochure_link_base"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads the configuration from config.yaml, or from the file named by
// the CONFIG_PATH environment variable when set.
func Load() (*Config, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("db.pool_size", 10)
	viper.SetDefault("db.connect_timeout", 30*time.Second)
	viper.SetDefault("db.query_timeout", 30*time.Second)
	viper.SetDefault("memory.backend", "memory")
	viper.SetDefault("memory.max_sessions", 1000)
	viper.SetDefault("memory.session_ttl", 12*time.Hour)
	viper.SetDefault("reports.output_dir", "reports")
	viper.SetDefault("reports.format", "xlsx")
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
