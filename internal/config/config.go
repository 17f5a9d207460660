package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port int
	}
	Database struct {
		Path string
	}
	Executor struct {
		Interval          time.Duration
		ActivationTimeout time.Duration
		MaxAttempts       int
		RetryDelay        time.Duration
		StaleClaimAge     time.Duration
	}
	Dialer struct {
		BaseURL   string
		APIKey    string
		RateLimit float64 // activation calls per second
	}
	Alert struct {
		Slack struct {
			Token   string
			Channel string
		}
		Email struct {
			SMTPHost    string
			SMTPPort    int
			From        string
			Password    string
			ToReceivers []string
		}
	}
	Auth struct {
		JWTSecret string
	}
}

// LoadConfig loads the configuration from config.yaml
func LoadConfig() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.path", "data/dialsched.db")
	viper.SetDefault("executor.interval", "30s")
	viper.SetDefault("executor.activationtimeout", "20s")
	viper.SetDefault("executor.maxattempts", 3)
	viper.SetDefault("executor.retrydelay", "5s")
	viper.SetDefault("executor.staleclaimage", "10m")
	viper.SetDefault("dialer.baseurl", "http://localhost:9090")
	viper.SetDefault("dialer.ratelimit", 5.0)
	viper.SetDefault("auth.jwtsecret", "change-me")

	var config Config

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, write one with the defaults
			if err := os.MkdirAll("data", 0755); err != nil {
				fmt.Printf("Warning: Failed to create data directory: %v\n", err)
			}
			if err := viper.SafeWriteConfig(); err != nil {
				fmt.Printf("Warning: Failed to write default config: %v\n", err)
			}
		} else {
			fmt.Printf("Error reading config file: %v\n", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		fmt.Printf("Error unmarshaling config: %v\n", err)
	}

	return &config
}
