package conf

import (
	"fmt"
	"os"
	"strings"

	"github.com/KNIGHTABDO/zeroqcm-sub001/internal/utils/log"
	"github.com/spf13/viper"
)

type Server struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type Log struct {
	Level string `mapstructure:"level"`
}

type Database struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

// Upstream configures the token exchange endpoint and the operator
// fallback credential used when the pool is empty.
type Upstream struct {
	ExchangeURL        string `mapstructure:"exchange_url"`
	TimeoutSeconds     int    `mapstructure:"timeout_seconds"`
	TokenMarginMinutes int    `mapstructure:"token_margin_minutes"`
	FallbackSecret     string `mapstructure:"fallback_secret"`
	FallbackLabel      string `mapstructure:"fallback_label"`
}

type Quota struct {
	// Timezone is the IANA zone name for the daily usage boundary.
	// All deployments serving one region should set their local zone.
	Timezone string `mapstructure:"timezone"`
}

type Config struct {
	Server   Server   `mapstructure:"server"`
	Log      Log      `mapstructure:"log"`
	Database Database `mapstructure:"database"`
	Upstream Upstream `mapstructure:"upstream"`
	Quota    Quota    `mapstructure:"quota"`
}

var AppConfig Config

func Load(path string) error {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath("data")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(APP_NAME)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		log.Infof("Using config file: %s", viper.ConfigFileUsed())
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Infof("Config file not found, creating default config")
			if err := os.MkdirAll("data", 0755); err != nil {
				log.Errorf("Failed to create data directory: %v", err)
			}
			if err := viper.SafeWriteConfigAs("data/config.json"); err != nil {
				log.Errorf("Failed to create default config: %v", err)
			}
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("database.type", "sqlite")
	viper.SetDefault("database.path", "data/data.db")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("upstream.exchange_url", "")
	viper.SetDefault("upstream.timeout_seconds", 3)
	viper.SetDefault("upstream.token_margin_minutes", 5)
	viper.SetDefault("upstream.fallback_secret", "")
	viper.SetDefault("upstream.fallback_label", "fallback")
	viper.SetDefault("quota.timezone", "UTC")
}
