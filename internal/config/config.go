package config

import (
	"fmt"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/at-ishikawa/quizgate/internal/inference"
	"github.com/at-ishikawa/quizgate/internal/inference/gemini"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Gemini GeminiConfig `mapstructure:"gemini"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	CORS            CORSConfig    `mapstructure:"cors"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"required,min=1,dive,origin"`
}

type GeminiConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url" validate:"required,url"`
	Model           string        `mapstructure:"model" validate:"required"`
	Timeout         time.Duration `mapstructure:"timeout" validate:"gt=0"`
	Temperature     float32       `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens" validate:"min=1"`
}

// HasUsableAPIKey reports whether the key is set and is not the sample placeholder.
func (c GeminiConfig) HasUsableAPIKey() bool {
	key := strings.TrimSpace(c.APIKey)
	return key != "" && key != inference.PlaceholderAPIKey
}

// Settings converts the config into client settings.
func (c GeminiConfig) Settings() gemini.Settings {
	return gemini.Settings{
		BaseURL:         c.BaseURL,
		Model:           c.Model,
		Timeout:         c.Timeout,
		Temperature:     c.Temperature,
		MaxOutputTokens: c.MaxOutputTokens,
	}
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/quizgate")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.max_body_bytes", 1<<20)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.base_url", gemini.DefaultBaseURL)
	v.SetDefault("gemini.model", gemini.DefaultModel)
	v.SetDefault("gemini.timeout", gemini.DefaultTimeout)
	v.SetDefault("gemini.temperature", 0.0)
	v.SetDefault("gemini.max_output_tokens", gemini.DefaultMaxOutputTokens)
	v.SetDefault("log.level", "info")

	envBindings := []struct {
		key string
		env string
	}{
		{"server.port", "PORT"},
		{"gemini.api_key", "GEMINI_API_KEY"},
		{"gemini.base_url", "GEMINI_BASE_URL"},
		{"gemini.model", "GEMINI_MODEL"},
		{"log.level", "LOG_LEVEL"},
	}
	for _, binding := range envBindings {
		if err := v.BindEnv(binding.key, binding.env); err != nil {
			return nil, fmt.Errorf("failed to bind %s environment variable: %w", binding.env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}
	cfg.Gemini.APIKey = strings.TrimSpace(cfg.Gemini.APIKey)

	if err := loader.validator.Struct(cfg); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}
