package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Fraud     FraudConfig
	Scheduler SchedulerConfig
	Notifier  NotifierConfig
	Geocoder  GeocoderConfig
	LogLevel  string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// FraudConfig holds the distance-band thresholds (km) for the classifier
type FraudConfig struct {
	ValidKm      float64
	ReviewKm     float64
	SuspiciousKm float64
}

// SchedulerConfig holds the daily-draw scheduler configuration
type SchedulerConfig struct {
	Enabled  bool
	CronSpec string
}

// NotifierConfig holds the winner-notification gateway configuration
type NotifierConfig struct {
	BaseURL string
	Mock    bool
}

// GeocoderConfig holds the shop-geocoding collaborator configuration
type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Mock      bool
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional; environment variables and defaults apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "retail-rewards")
	viper.SetDefault("Fraud.ValidKm", 50.0)
	viper.SetDefault("Fraud.ReviewKm", 100.0)
	viper.SetDefault("Fraud.SuspiciousKm", 200.0)
	viper.SetDefault("Scheduler.Enabled", true)
	viper.SetDefault("Scheduler.CronSpec", "0 0 * * *") // midnight UTC
	viper.SetDefault("Notifier.BaseURL", "http://localhost:3001")
	viper.SetDefault("Notifier.Mock", true)
	viper.SetDefault("Geocoder.BaseURL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("Geocoder.UserAgent", "retail-rewards-backend/1.0")
	viper.SetDefault("Geocoder.Mock", true)
	viper.SetDefault("LogLevel", "info")
}
