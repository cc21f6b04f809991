// Package config loads application configuration from environment variables
// with sensible development defaults. Provider credentials are optional at
// load time: a missing generation or vision key degrades that feature at
// call time instead of preventing startup.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server configuration
	ServerHost string `mapstructure:"server_host"`
	ServerPort string `mapstructure:"server_port"`

	// Database configuration
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBUser     string `mapstructure:"db_user"`
	DBPassword string `mapstructure:"db_password"`
	DBName     string `mapstructure:"db_name"`
	DBSSLMode  string `mapstructure:"db_ssl_mode"`

	// Redis configuration
	RedisHost     string `mapstructure:"redis_host"`
	RedisPort     string `mapstructure:"redis_port"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisURL      string `mapstructure:"redis_url"`

	// JWT configuration
	JWTSecret string `mapstructure:"jwt_secret"`

	// Recipe generation provider
	LLMAPIKey      string  `mapstructure:"llm_api_key"`
	LLMAPIURL      string  `mapstructure:"llm_api_url"`
	LLMModel       string  `mapstructure:"llm_model"`
	LLMTemperature float64 `mapstructure:"llm_temperature"`
	LLMMaxTokens   int     `mapstructure:"llm_max_tokens"`

	// Dish analysis provider
	VisionAPIKey string `mapstructure:"vision_api_key"`
	VisionAPIURL string `mapstructure:"vision_api_url"`
	VisionModel  string `mapstructure:"vision_model"`

	// Photo archive
	S3Bucket  string `mapstructure:"s3_bucket"`
	AWSRegion string `mapstructure:"aws_region"`

	// Generation quotas per plan, per calendar month
	FreePlanMonthlyLimit int `mapstructure:"free_plan_monthly_limit"`
	ProPlanMonthlyLimit  int `mapstructure:"pro_plan_monthly_limit"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", "8080")

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_name", "platewise")
	v.SetDefault("db_ssl_mode", "disable")

	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", "6379")
	v.SetDefault("redis_db", 0)

	v.SetDefault("llm_api_url", "https://api.deepseek.com/v1/chat/completions")
	v.SetDefault("llm_model", "deepseek-chat")
	v.SetDefault("llm_temperature", 0.9)
	v.SetDefault("llm_max_tokens", 4000)

	v.SetDefault("vision_api_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("vision_model", "gpt-4o-mini")

	v.SetDefault("aws_region", "us-east-1")
	v.SetDefault("s3_bucket", "platewise-dish-photos")

	v.SetDefault("free_plan_monthly_limit", 10)
	v.SetDefault("pro_plan_monthly_limit", 200)

	// Bind the keys we read so AutomaticEnv picks them up without a file.
	for _, key := range []string{
		"server_host", "server_port",
		"db_host", "db_port", "db_user", "db_password", "db_name", "db_ssl_mode",
		"redis_host", "redis_port", "redis_password", "redis_db", "redis_url",
		"jwt_secret",
		"llm_api_key", "llm_api_url", "llm_model", "llm_temperature", "llm_max_tokens",
		"vision_api_key", "vision_api_url", "vision_model",
		"s3_bucket", "aws_region",
		"free_plan_monthly_limit", "pro_plan_monthly_limit",
	} {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN renders the Postgres connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// HasLLMCredential reports whether the generation provider is usable.
func (c *Config) HasLLMCredential() bool { return c.LLMAPIKey != "" }

// HasVisionCredential reports whether the dish analyzer is usable.
func (c *Config) HasVisionCredential() bool { return c.VisionAPIKey != "" }

// MonthlyLimitFor returns the generation quota for a plan.
func (c *Config) MonthlyLimitFor(plan string) int {
	if plan == "pro" {
		return c.ProPlanMonthlyLimit
	}
	return c.FreePlanMonthlyLimit
}
