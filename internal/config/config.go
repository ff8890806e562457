package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything the server needs to run. Values come from the
// environment with sensible defaults for local development.
type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret string
	TokenTTL  time.Duration

	// InterestRunInterval enables the in-process interest accrual ticker when
	// set to a positive duration. Zero leaves accrual to the admin endpoint.
	InterestRunInterval time.Duration
}

func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "bank_ledger")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("INTEREST_RUN_INTERVAL", "0")

	return &Config{
		ServerPort:          v.GetString("SERVER_PORT"),
		DBHost:              v.GetString("DB_HOST"),
		DBPort:              v.GetString("DB_PORT"),
		DBUser:              v.GetString("DB_USER"),
		DBPassword:          v.GetString("DB_PASSWORD"),
		DBName:              v.GetString("DB_NAME"),
		DBSSLMode:           v.GetString("DB_SSLMODE"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		TokenTTL:            v.GetDuration("TOKEN_TTL"),
		InterestRunInterval: v.GetDuration("INTEREST_RUN_INTERVAL"),
	}
}

func (c *Config) GetDBConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}
