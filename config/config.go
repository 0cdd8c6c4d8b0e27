// Package config loads the codecrew configuration from defaults, a yaml file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/bububa/codecrew/llm"
	"github.com/bububa/codecrew/repo"
	"github.com/bububa/codecrew/repomap"
)

const (
	// Name is the config file name without extension
	Name = "codecrew"
	// EnvPrefix prefixes the environment variables of every key, e.g. CODECREW_LOG_LEVEL
	EnvPrefix = "CODECREW"
	// DotEnvFile is loaded from the working directory
	DotEnvFile = ".env"
)

const (
	DefaultAgentsModel       = "starling-lm:7b-alpha-q8_0"
	DefaultAgentsTemperature = 0.6
)

// Config is the codecrew configuration
type Config struct {
	Agents  AgentsConfig  `mapstructure:"agents" yaml:"agents"`
	Aider   AiderConfig   `mapstructure:"aider" yaml:"aider"`
	RepoMap RepoMapConfig `mapstructure:"repomap" yaml:"repomap"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
	Verbose bool          `mapstructure:"verbose" yaml:"verbose"`
}

// AgentsConfig is the backend of the crew agents
type AgentsConfig struct {
	llm.ProviderConfig `mapstructure:",squash" yaml:",inline"`
	Model              string  `mapstructure:"model" yaml:"model" validate:"required"`
	Temperature        float32 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens          int     `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gte=0"`
	MaxIter            int     `mapstructure:"max_iter" yaml:"max_iter" validate:"gte=0"`
}

// AiderConfig is the backend of the edit and ranking tools
type AiderConfig struct {
	llm.ProviderConfig `mapstructure:",squash" yaml:",inline"`
	Model              string  `mapstructure:"model" yaml:"model" validate:"required"`
	Temperature        float32 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	IgnoreFile         string  `mapstructure:"ignore_file" yaml:"ignore_file"`
	DryRun             bool    `mapstructure:"dry_run" yaml:"dry_run"`
}

type RepoMapConfig struct {
	MapTokens int  `mapstructure:"map_tokens" yaml:"map_tokens" validate:"gte=0"`
	Cache     bool `mapstructure:"cache" yaml:"cache"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Load reads the configuration.
// Precedence, highest first: environment, .env, the config file, defaults.
// Without path, codecrew.yaml is looked up in the working directory then in the user config dir.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	} else {
		v.SetConfigName(Name)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, Name))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}
	if err := bindEnv(v); err != nil {
		return nil, err
	}
	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads a dotenv file without overriding the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := gotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("agents.provider", llm.ProviderOllama)
	v.SetDefault("agents.base_url", llm.DefaultOllamaBaseURL)
	v.SetDefault("agents.model", DefaultAgentsModel)
	v.SetDefault("agents.temperature", DefaultAgentsTemperature)
	v.SetDefault("agents.max_tokens", 0)
	v.SetDefault("agents.max_iter", 15)
	v.SetDefault("aider.provider", llm.ProviderOpenAI)
	v.SetDefault("aider.base_url", llm.DefaultOpenAIBaseURL)
	v.SetDefault("aider.model", repomap.DefaultModel)
	v.SetDefault("aider.temperature", 0)
	v.SetDefault("aider.ignore_file", repo.DefaultIgnoreFile)
	v.SetDefault("aider.dry_run", false)
	v.SetDefault("repomap.map_tokens", repomap.DefaultMaxMapTokens)
	v.SetDefault("repomap.cache", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("verbose", true)
}

// bindEnv maps CODECREW_<KEY> for every key, and the aider variables where the first set one wins
func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindings := map[string][]string{
		"aider.api_key":  {"AIDER_OPENAI_API_KEY", "OPENAI_API_KEY"},
		"aider.model":    {"AIDER_MODEL"},
		"aider.base_url": {"AIDER_OPENAI_API_BASE_URL", "OPENAI_API_BASE_URL"},
		"agents.api_key": {"CODECREW_AGENTS_API_KEY"},
	}
	for key, names := range bindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}
