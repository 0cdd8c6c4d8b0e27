package llm

import (
	"fmt"

	"github.com/bububa/instructor-go/pkg/instructor"
	cohereClient "github.com/cohere-ai/cohere-go/v2/client"
	cohereOption "github.com/cohere-ai/cohere-go/v2/option"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
)

const (
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
	ProviderCohere    = "cohere"
)

const (
	// DefaultOllamaBaseURL is the OpenAI compatible endpoint of a local Ollama server
	DefaultOllamaBaseURL = "http://localhost:11434/v1"
	// DefaultOpenAIBaseURL is the public OpenAI endpoint
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultMaxRetries is the number of instructor retries when a reply fails to decode
	DefaultMaxRetries = 3
)

// ProviderConfig describes how to reach a language model backend
type ProviderConfig struct {
	Provider   string `mapstructure:"provider" yaml:"provider" validate:"omitempty,oneof=openai ollama anthropic cohere"`
	APIKey     string `mapstructure:"api_key" yaml:"-"`
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries"`
}

// NewInstructor builds the instructor client for a provider
func NewInstructor(cfg ProviderConfig) (instructor.Instructor, error) {
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	switch cfg.Provider {
	case ProviderAnthropic:
		opts := make([]anthropic.ClientOption, 0, 1)
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		clt := anthropic.NewClient(cfg.APIKey, opts...)
		return instructor.FromAnthropic(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(retries), instructor.WithValidation()), nil
	case ProviderCohere:
		opts := make([]cohereOption.RequestOption, 0, 2)
		opts = append(opts, cohereOption.WithToken(cfg.APIKey))
		if cfg.BaseURL != "" {
			opts = append(opts, cohereOption.WithBaseURL(cfg.BaseURL))
		}
		clt := cohereClient.NewClient(opts...)
		return instructor.FromCohere(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(retries), instructor.WithValidation()), nil
	case ProviderOllama, ProviderOpenAI, "":
		apiKey := cfg.APIKey
		baseURL := cfg.BaseURL
		if cfg.Provider == ProviderOllama {
			if apiKey == "" {
				// ollama ignores the key but the client always sends one
				apiKey = ProviderOllama
			}
			if baseURL == "" {
				baseURL = DefaultOllamaBaseURL
			}
		}
		openaiCfg := openai.DefaultConfig(apiKey)
		if baseURL != "" {
			openaiCfg.BaseURL = baseURL
		}
		clt := openai.NewClientWithConfig(openaiCfg)
		return instructor.FromOpenAI(clt, instructor.WithMode(instructor.ModeJSON), instructor.WithMaxRetries(retries), instructor.WithValidation()), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// NewClient returns a Client for the configured provider
func NewClient(cfg ProviderConfig) (Client, error) {
	clt, err := NewInstructor(cfg)
	if err != nil {
		return nil, err
	}
	return NewInstructorClient(clt), nil
}
