/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables,
 * providing a centralized and straightforward way to manage application
 * settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the monetization-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort                string `mapstructure:"SERVER_PORT"`
	DatabaseURL               string `mapstructure:"DATABASE_URL"`
	RedisURL                  string `mapstructure:"REDIS_URL"`
	RedisKeyPrefix            string `mapstructure:"REDIS_KEY_PREFIX"`
	RabbitMQURL               string `mapstructure:"RABBITMQ_URL"`
	PlatformAPIBaseURL        string `mapstructure:"PLATFORM_API_BASE_URL"`
	JWTSecret                 string `mapstructure:"JWT_SECRET"`
	ResolveRateLimitPerMinute int    `mapstructure:"RESOLVE_RATE_LIMIT_PER_MINUTE"`
	WithdrawalIdemTTLMinutes  int    `mapstructure:"WITHDRAWAL_IDEMPOTENCY_TTL_MINUTES"`
	SessionSweepSchedule      string `mapstructure:"SESSION_SWEEP_SCHEDULE"`
	SessionMaxIdleMinutes     int    `mapstructure:"SESSION_MAX_IDLE_MINUTES"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("REDIS_KEY_PREFIX", "monetization")
	viper.SetDefault("RESOLVE_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("WITHDRAWAL_IDEMPOTENCY_TTL_MINUTES", 1440)
	viper.SetDefault("SESSION_SWEEP_SCHEDULE", "*/10 * * * *")
	viper.SetDefault("SESSION_MAX_IDLE_MINUTES", 30)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_KEY_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("PLATFORM_API_BASE_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("RESOLVE_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("WITHDRAWAL_IDEMPOTENCY_TTL_MINUTES")
	_ = viper.BindEnv("SESSION_SWEEP_SCHEDULE")
	_ = viper.BindEnv("SESSION_MAX_IDLE_MINUTES")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	config.PlatformAPIBaseURL = strings.TrimRight(strings.TrimSpace(config.PlatformAPIBaseURL), "/")
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisKeyPrefix = strings.TrimSpace(config.RedisKeyPrefix)
	if config.RedisKeyPrefix == "" {
		config.RedisKeyPrefix = "monetization"
	}

	if config.ResolveRateLimitPerMinute < 0 {
		log.Printf("level=warn component=config msg=\"negative resolve rate limit configured; disabling\" limit=%d", config.ResolveRateLimitPerMinute)
		config.ResolveRateLimitPerMinute = 0
	}
	if config.WithdrawalIdemTTLMinutes <= 0 {
		config.WithdrawalIdemTTLMinutes = 1440
	}
	if strings.TrimSpace(config.SessionSweepSchedule) == "" {
		config.SessionSweepSchedule = "*/10 * * * *"
	}
	if config.SessionMaxIdleMinutes <= 0 {
		config.SessionMaxIdleMinutes = 30
	}

	return
}
