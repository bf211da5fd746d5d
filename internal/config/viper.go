// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	CSV struct {
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
		Encoding  string `mapstructure:"encoding" yaml:"encoding"`
	} `mapstructure:"csv" yaml:"csv"`

	LLM struct {
		Backend        string `mapstructure:"backend" yaml:"backend"`
		MaxConcurrency int    `mapstructure:"max_concurrency" yaml:"max_concurrency"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`

		OpenAI struct {
			APIKey   string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
			Model    string `mapstructure:"model" yaml:"model"`
			Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
		} `mapstructure:"openai" yaml:"openai"`

		Gemini struct {
			APIKey string `mapstructure:"api_key" yaml:"-"`
			Model  string `mapstructure:"model" yaml:"model"`
		} `mapstructure:"gemini" yaml:"gemini"`

		Ollama struct {
			Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
			Model    string `mapstructure:"model" yaml:"model"`
		} `mapstructure:"ollama" yaml:"ollama"`

		Anthropic struct {
			APIKey    string `mapstructure:"api_key" yaml:"-"`
			Model     string `mapstructure:"model" yaml:"model"`
			MaxTokens int    `mapstructure:"max_tokens" yaml:"max_tokens"`
		} `mapstructure:"anthropic" yaml:"anthropic"`
	} `mapstructure:"llm" yaml:"llm"`

	Cases struct {
		MissingFieldPolicy string `mapstructure:"missing_field_policy" yaml:"missing_field_policy"`
	} `mapstructure:"cases" yaml:"cases"`

	Taxonomy struct {
		Directory string `mapstructure:"directory" yaml:"directory"`
	} `mapstructure:"taxonomy" yaml:"taxonomy"`

	Server struct {
		Address        string   `mapstructure:"address" yaml:"address"`
		AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
		MaxUploadMB    int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	} `mapstructure:"server" yaml:"server"`
}

const envPrefix = "CASECAT"

// Supported values for enumerated settings.
var (
	validBackends = []string{"openai", "gemini", "ollama", "anthropic"}
	validPolicies = []string{"skip", "keep"}
)

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	return InitializeConfigFromFile("")
}

// InitializeConfigFromFile behaves like InitializeConfig but reads the given
// file instead of searching the default locations when path is not empty.
func InitializeConfigFromFile(path string) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("$HOME/.case-categorizer")
		v.AddConfigPath(".case-categorizer")
		v.AddConfigPath(".")
	}

	// 3. Environment variables
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional unless given explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if path != "" {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// 5. Provider credentials come from their conventional variables
	if err := bindProviderEnv(v); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func bindProviderEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"log.level":             {envPrefix + "_LOG_LEVEL", "LOG_LEVEL"},
		"llm.openai.api_key":    {envPrefix + "_LLM_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"llm.gemini.api_key":    {envPrefix + "_LLM_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"llm.anthropic.api_key": {envPrefix + "_LLM_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"},
		"llm.ollama.endpoint":   {envPrefix + "_LLM_OLLAMA_ENDPOINT", "OLLAMA_HOST"},
	}
	for key, vars := range bindings {
		args := append([]string{key}, vars...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s environment variables: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// CSV defaults
	v.SetDefault("csv.delimiter", ",")
	v.SetDefault("csv.encoding", "utf-8")

	// LLM defaults
	v.SetDefault("llm.backend", "openai")
	v.SetDefault("llm.max_concurrency", 4)
	v.SetDefault("llm.timeout_seconds", 60)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("llm.gemini.model", "gemini-1.5-flash")
	v.SetDefault("llm.ollama.endpoint", "http://localhost:11434")
	v.SetDefault("llm.ollama.model", "llama3")
	v.SetDefault("llm.anthropic.model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.anthropic.max_tokens", 1024)

	// Case defaults
	v.SetDefault("cases.missing_field_policy", "skip")

	// Taxonomy defaults
	v.SetDefault("taxonomy.directory", "")

	// Server defaults
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173", "http://127.0.0.1:5173"})
	v.SetDefault("server.max_upload_mb", 32)
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate CSV delimiter
	if len(config.CSV.Delimiter) != 1 {
		return fmt.Errorf("CSV delimiter must be a single character, got: %s", config.CSV.Delimiter)
	}

	// Validate LLM configuration
	config.LLM.Backend = strings.ToLower(strings.TrimSpace(config.LLM.Backend))
	if !contains(validBackends, config.LLM.Backend) {
		return fmt.Errorf("llm.backend must be one of %s, got: %s", strings.Join(validBackends, ", "), config.LLM.Backend)
	}

	if config.LLM.MaxConcurrency < 1 || config.LLM.MaxConcurrency > 64 {
		return fmt.Errorf("llm.max_concurrency must be between 1 and 64, got: %d", config.LLM.MaxConcurrency)
	}

	if config.LLM.TimeoutSeconds < 1 || config.LLM.TimeoutSeconds > 600 {
		return fmt.Errorf("llm.timeout_seconds must be between 1 and 600, got: %d", config.LLM.TimeoutSeconds)
	}

	// Validate missing-field policy
	config.Cases.MissingFieldPolicy = strings.ToLower(strings.TrimSpace(config.Cases.MissingFieldPolicy))
	if !contains(validPolicies, config.Cases.MissingFieldPolicy) {
		return fmt.Errorf("cases.missing_field_policy must be 'skip' or 'keep', got: %s", config.Cases.MissingFieldPolicy)
	}

	if config.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb must be positive, got: %d", config.Server.MaxUploadMB)
	}

	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	// Parse and set log level
	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Configure log format
	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
