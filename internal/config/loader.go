package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/dqaudit/dqaudit/pkg/checkpoint"
)

// configName is the config file name without extension.
const configName = ".dqaudit"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for dqaudit settings.
const envPrefix = "DQAUDIT"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	return &cfg, nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("dataset_id", "")

	viperCfg.SetDefault("source.kind", DefaultSourceKind)
	viperCfg.SetDefault("source.dir", ".")
	viperCfg.SetDefault("source.views_file", "")

	viperCfg.SetDefault("ingest.page_size", DefaultPageSize)
	viperCfg.SetDefault("ingest.gap_threshold_millis", DefaultGapThresholdMillis)
	viperCfg.SetDefault("ingest.history_workers", DefaultHistoryWorkers)
	viperCfg.SetDefault("ingest.time_budget", "0s")

	viperCfg.SetDefault("store.backend", DefaultStoreBackend)
	viperCfg.SetDefault("store.dir", DefaultDataDir())

	viperCfg.SetDefault("checkpoint.enabled", true)
	viperCfg.SetDefault("checkpoint.dir", checkpoint.DefaultDir())
	viperCfg.SetDefault("checkpoint.resume", false)
	viperCfg.SetDefault("checkpoint.clear_prev", false)

	viperCfg.SetDefault("observability.log_level", DefaultLogLevel)
	viperCfg.SetDefault("observability.log_format", DefaultLogFormat)
	viperCfg.SetDefault("observability.otlp_endpoint", "")
}
