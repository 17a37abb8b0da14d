// Package config loads tool configuration through Viper: config file,
// environment variables and defaults, in that order of precedence.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the tool-level settings.
type Config struct {
	LogLevel          string `mapstructure:"log_level"`
	DefaultCurve      string `mapstructure:"default_curve"`
	RSAKeySize        int    `mapstructure:"rsa_key_size"`
	RSAPublicExponent int64  `mapstructure:"rsa_public_exponent"`
	DSAKeySize        int    `mapstructure:"dsa_key_size"`
	PBKDF2Iterations  int    `mapstructure:"pbkdf2_iterations"`
}

// Load reads cryptobackend-config.yaml and the CRYPTOBACKEND_* environment.
func Load() (*Config, error) {
	viper.SetConfigName("cryptobackend-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("$HOME/.cryptobackend")
	viper.AddConfigPath("/etc/cryptobackend")

	// Set defaults
	viper.SetDefault("log_level", "info")
	viper.SetDefault("default_curve", "secp256r1")
	viper.SetDefault("rsa_key_size", 2048)
	viper.SetDefault("rsa_public_exponent", 65537)
	viper.SetDefault("dsa_key_size", 1024)
	viper.SetDefault("pbkdf2_iterations", 100000)

	// Allow environment variables
	viper.SetEnvPrefix("CRYPTOBACKEND")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
