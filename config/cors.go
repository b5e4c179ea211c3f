package config

import (
	"slices"

	"github.com/spf13/viper"

	"github.com/walletfeed/chainfeed/types"
)

const (
	DefaultCORSAllowOrigins = "*"
	DefaultCORSAllowMethods = "GET,OPTIONS"
	DefaultCORSAllowHeaders = "Origin,Content-Type,Accept"
)

type CORSConfig struct {
	Enabled          bool
	AllowOrigin      []string
	AllowMethods     []string
	AllowHeaders     []string
	AllowCredentials bool
	// MaxAge is the preflight cache lifetime in seconds; 0 omits the header.
	MaxAge int
}

func setCORSDefaults() {
	viper.SetDefault("CORS_ENABLED", false)
	viper.SetDefault("CORS_ALLOW_ORIGINS", DefaultCORSAllowOrigins)
	viper.SetDefault("CORS_ALLOW_METHODS", DefaultCORSAllowMethods)
	viper.SetDefault("CORS_ALLOW_HEADERS", DefaultCORSAllowHeaders)
	viper.SetDefault("CORS_ALLOW_CREDENTIALS", false)
	viper.SetDefault("CORS_MAX_AGE", 0)
}

func loadCORSConfig() *CORSConfig {
	return &CORSConfig{
		Enabled:          viper.GetBool("CORS_ENABLED"),
		AllowOrigin:      splitList(viper.GetString("CORS_ALLOW_ORIGINS")),
		AllowMethods:     splitList(viper.GetString("CORS_ALLOW_METHODS")),
		AllowHeaders:     splitList(viper.GetString("CORS_ALLOW_HEADERS")),
		AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
		MaxAge:           viper.GetInt("CORS_MAX_AGE"),
	}
}

func (cc CORSConfig) Wildcard() bool {
	return slices.Contains(cc.AllowOrigin, "*")
}

func (cc CORSConfig) Validate() error {
	if !cc.Enabled {
		return nil
	}
	if len(cc.AllowOrigin) == 0 {
		return types.NewValidationError("CORS_ALLOW_ORIGINS", "required when CORS is enabled")
	}
	for _, origin := range cc.AllowOrigin {
		if origin == "*" {
			continue
		}
		if err := validateHTTPURL("CORS_ALLOW_ORIGINS", origin); err != nil {
			return err
		}
	}
	if cc.AllowCredentials && cc.Wildcard() {
		return types.NewValidationError("CORS_ALLOW_CREDENTIALS", "cannot be combined with a wildcard origin")
	}
	if cc.MaxAge < 0 {
		return types.NewValidationError("CORS_MAX_AGE", "must be non-negative")
	}
	return nil
}
