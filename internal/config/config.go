/**
 * @description
 * This file handles configuration management for the recurring-service.
 * It uses the 'viper' library to load settings from environment variables
 * (with an optional .env file for local development), providing defaults
 * for the sweep schedule and failure thresholds.
 */
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the recurring-service.
type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	LedgerRPCURL          string `mapstructure:"LEDGER_RPC_URL"`
	TreasurySigningKey    string `mapstructure:"TREASURY_SIGNING_KEY"`
	FrontendBaseURL       string `mapstructure:"FRONTEND_BASE_URL"`
	JWKSURL               string `mapstructure:"JWKS_URL"`
	InternalAPIKey        string `mapstructure:"INTERNAL_API_KEY"`
	SweepSchedule         string `mapstructure:"SWEEP_SCHEDULE"`
	MaxSettlementFailures int    `mapstructure:"MAX_SETTLEMENT_FAILURES"`
	SweepLockTTLSeconds   int    `mapstructure:"SWEEP_LOCK_TTL_SECONDS"`
	EventExchange         string `mapstructure:"EVENT_EXCHANGE"`
}

// LoadConfig reads configuration from environment variables from the given path.
func LoadConfig(path string) (*Config, error) {
	// Optional .env file for local development; a missing file is not an error.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("SWEEP_SCHEDULE", "@every 60s")
	viper.SetDefault("MAX_SETTLEMENT_FAILURES", 5)
	viper.SetDefault("SWEEP_LOCK_TTL_SECONDS", 120)
	viper.SetDefault("EVENT_EXCHANGE", "solpay.events")
	viper.SetDefault("FRONTEND_BASE_URL", "https://pay.solpay.app")
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("LEDGER_RPC_URL")
	_ = viper.BindEnv("TREASURY_SIGNING_KEY")
	_ = viper.BindEnv("FRONTEND_BASE_URL")
	_ = viper.BindEnv("JWKS_URL")
	_ = viper.BindEnv("INTERNAL_API_KEY")
	_ = viper.BindEnv("SWEEP_SCHEDULE")
	_ = viper.BindEnv("MAX_SETTLEMENT_FAILURES")
	_ = viper.BindEnv("SWEEP_LOCK_TTL_SECONDS")
	_ = viper.BindEnv("EVENT_EXCHANGE")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if strings.TrimSpace(config.DatabaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL must be configured")
	}
	if strings.TrimSpace(config.LedgerRPCURL) == "" {
		return nil, fmt.Errorf("LEDGER_RPC_URL must be configured")
	}
	if config.MaxSettlementFailures <= 0 {
		return nil, fmt.Errorf("MAX_SETTLEMENT_FAILURES must be positive, got %d", config.MaxSettlementFailures)
	}

	return &config, nil
}
