// Package config handles configuration loading for the agentchain
// server. It supports XDG config paths, project-level overrides, and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the agentchain server.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Model        ModelConfig        `mapstructure:"model"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Code         CodeConfig         `mapstructure:"code"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ModelConfig holds LLM backend settings.
type ModelConfig struct {
	// Provider selects the backend: anthropic, openai, ollama or mock.
	Provider string `mapstructure:"provider"`
	// APIKey authenticates against anthropic or openai.
	APIKey string `mapstructure:"api_key"`
	// Name overrides the provider's default model.
	Name string `mapstructure:"name"`
	// OllamaHost is the ollama server base URL.
	OllamaHost string `mapstructure:"ollama_host"`
}

// OrchestratorConfig holds chain execution settings.
type OrchestratorConfig struct {
	EntryAgent   string        `mapstructure:"entry_agent"`
	AgentTimeout time.Duration `mapstructure:"agent_timeout"`
	MaxHistory   int           `mapstructure:"max_history"`
}

// CodeConfig holds code execution settings.
type CodeConfig struct {
	// Enabled toggles real snippet execution. Off by default: running
	// model-generated code is opt-in.
	Enabled bool `mapstructure:"enabled"`
	// Interpreter is the command used to run snippets.
	Interpreter string `mapstructure:"interpreter"`
}

// StorageConfig holds session and upload persistence settings.
type StorageConfig struct {
	// Backend selects the session store: memory or sqlite.
	Backend string `mapstructure:"backend"`
	// SQLitePath is the database file used when backend is sqlite.
	SQLitePath string `mapstructure:"sqlite_path"`
	// UploadDir is where uploaded files are written. Empty keeps
	// uploads in memory, which only suits agents that never open the
	// files from disk.
	UploadDir string `mapstructure:"upload_dir"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from XDG paths, project overrides, and
// environment variables. Precedence (highest to lowest):
// 1. Environment variables (AGENTCHAIN_*, ANTHROPIC_API_KEY, OPENAI_API_KEY)
// 2. Project config (.agentchain.yaml in current directory or parent)
// 3. User config (~/.config/agentchain/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
				return nil, fmt.Errorf("merging project config: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("AGENTCHAIN")
	v.BindEnv("server.addr", "AGENTCHAIN_ADDR")
	v.BindEnv("model.provider", "AGENTCHAIN_PROVIDER")
	v.BindEnv("model.name", "AGENTCHAIN_MODEL")
	v.BindEnv("model.ollama_host", "OLLAMA_HOST")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Model.APIKey = os.ExpandEnv(cfg.Model.APIKey)
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = apiKeyFromEnv(cfg.Model.Provider)
	}

	return cfg, nil
}

// LoadFromPath loads configuration from a specific file (for testing).
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	cfg.Model.APIKey = os.ExpandEnv(cfg.Model.APIKey)
	if cfg.Model.APIKey == "" {
		cfg.Model.APIKey = apiKeyFromEnv(cfg.Model.Provider)
	}

	return cfg, nil
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	switch c.Model.Provider {
	case "anthropic", "openai":
		if c.Model.APIKey == "" {
			return fmt.Errorf("provider %s requires an API key", c.Model.Provider)
		}
	case "ollama", "mock":
	default:
		return fmt.Errorf("unknown model provider %q", c.Model.Provider)
	}

	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("sqlite backend requires storage.sqlite_path")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Orchestrator.EntryAgent == "" {
		return fmt.Errorf("orchestrator.entry_agent must not be empty")
	}
	if c.Orchestrator.MaxHistory < 0 {
		return fmt.Errorf("orchestrator.max_history must not be negative")
	}

	return nil
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")

	v.SetDefault("model.provider", "mock")
	v.SetDefault("model.api_key", "")
	v.SetDefault("model.name", "")
	v.SetDefault("model.ollama_host", "http://localhost:11434")

	v.SetDefault("orchestrator.entry_agent", "CodeInterpreter")
	v.SetDefault("orchestrator.agent_timeout", "2m")
	v.SetDefault("orchestrator.max_history", 1000)

	v.SetDefault("code.enabled", false)
	v.SetDefault("code.interpreter", "python3")

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.sqlite_path", "")
	v.SetDefault("storage.upload_dir", "uploads")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// apiKeyFromEnv falls back to the provider's conventional variable.
func apiKeyFromEnv(provider string) string {
	switch provider {
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	default:
		return ""
	}
}

// getUserConfigDir returns the XDG config directory for agentchain.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "agentchain")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "agentchain")
	}
	return filepath.Join(home, ".config", "agentchain")
}

// findProjectConfig searches for .agentchain.yaml in the current
// directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".agentchain.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8000"},
		Model: ModelConfig{
			Provider:   "mock",
			OllamaHost: "http://localhost:11434",
		},
		Orchestrator: OrchestratorConfig{
			EntryAgent:   "CodeInterpreter",
			AgentTimeout: 2 * time.Minute,
			MaxHistory:   1000,
		},
		Code: CodeConfig{
			Enabled:     false,
			Interpreter: "python3",
		},
		Storage: StorageConfig{Backend: "memory", UploadDir: "uploads"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}
