package config

import (
	"log"
	"os"
	"strconv"

	"github.com/spf13/viper"
)

type Gateway struct {
	AppToken    string `mapstructure:"app-token"`
	AppSecret   string `mapstructure:"app-secret"`
	RedirectURL string `mapstructure:"redirect-url"`
}

type Broker struct {
	Host               string `mapstructure:"host"`
	Port               int    `mapstructure:"port"`
	Queue              string `mapstructure:"queue"`
	HeartbeatSecs      int    `mapstructure:"heartbeat-secs"`
	BlockedTimeoutSecs int    `mapstructure:"blocked-timeout-secs"`
}

type Server struct {
	Port string `mapstructure:"port"`
}

type Metrics struct {
	URL          string `mapstructure:"url"`
	IntervalMs   int    `mapstructure:"interval-ms"`
	CommonLabels string `mapstructure:"common-labels"`
}

type Logs struct {
	URL string `mapstructure:"url"`
}

type Config struct {
	Gateway Gateway `mapstructure:"gateway"`
	Broker  Broker  `mapstructure:"broker"`
	Server  Server  `mapstructure:"server"`
	Metrics Metrics `mapstructure:"metrics"`
	Logs    Logs    `mapstructure:"logs"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Gateway credentials come from the environment, never from the file.
	config.Gateway.AppToken = GetEnv("FLOUCI_APP_TOKEN", config.Gateway.AppToken)
	config.Gateway.AppSecret = GetEnv("FLOUCI_APP_SECRET", config.Gateway.AppSecret)
	config.Gateway.RedirectURL = GetEnv("FLOUCI_REDIRECT_URL", config.Gateway.RedirectURL)

	return &config, nil
}

func MustLoadConfig(path string) *Config {
	config, err := LoadConfig(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	return config
}

func GetEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	value := os.Getenv(key)
	parsed, err := strconv.Atoi(value)
	if err != nil || value == "" {
		return fallback
	}
	return parsed
}
