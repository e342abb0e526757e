/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables, with an
 * optional .env file, providing a centralized and straightforward way to
 * manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"encoding/base64"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the card-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort          string `mapstructure:"SERVER_PORT"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	CardCachePrefix     string `mapstructure:"CARD_CACHE_PREFIX"`
	CardCacheTTLSeconds int    `mapstructure:"CARD_CACHE_TTL_SECONDS"`
	CardEncryptionKey   string `mapstructure:"CARD_ENCRYPTION_KEY"`
	CardExpiryYears     int    `mapstructure:"CARD_EXPIRY_YEARS"`
	JWTSecret           string `mapstructure:"JWT_SECRET"`
	TokenTTLMinutes     int    `mapstructure:"TOKEN_TTL_MINUTES"`
	AdminUsername       string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword       string `mapstructure:"ADMIN_PASSWORD"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
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
	viper.SetDefault("CARD_CACHE_PREFIX", "cardsvc:cards")
	viper.SetDefault("CARD_CACHE_TTL_SECONDS", 300)
	viper.SetDefault("CARD_EXPIRY_YEARS", 5)
	viper.SetDefault("TOKEN_TTL_MINUTES", 60)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CARD_CACHE_PREFIX")
	_ = viper.BindEnv("CARD_CACHE_TTL_SECONDS")
	_ = viper.BindEnv("CARD_ENCRYPTION_KEY")
	_ = viper.BindEnv("CARD_EXPIRY_YEARS")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("ADMIN_USERNAME")
	_ = viper.BindEnv("ADMIN_PASSWORD")

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
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.CardCachePrefix = strings.TrimSpace(config.CardCachePrefix)
	if config.CardCachePrefix == "" {
		config.CardCachePrefix = "cardsvc:cards"
	}

	if config.CardCacheTTLSeconds <= 0 {
		config.CardCacheTTLSeconds = 300
	}
	if config.CardExpiryYears <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive card expiry horizon; using default\" years=%d", config.CardExpiryYears)
		config.CardExpiryYears = 5
	}
	if config.CardExpiryYears > 20 {
		log.Printf("level=warn component=config msg=\"card expiry horizon too long; capping at 20\" years=%d", config.CardExpiryYears)
		config.CardExpiryYears = 20
	}
	if config.TokenTTLMinutes <= 0 {
		config.TokenTTLMinutes = 60
	}

	return
}

// DecodeCardEncryptionKey decodes the configured base64 card encryption key.
func (c Config) DecodeCardEncryptionKey() ([]byte, error) {
	return base64.StdEncoding.DecodeString(strings.TrimSpace(c.CardEncryptionKey))
}
