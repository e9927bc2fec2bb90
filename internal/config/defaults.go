package config

import "github.com/spf13/viper"

// Default configuration values.
const (
	// DefaultFetchInterval is the schedule period in minutes used when
	// FETCH_INTERVAL is missing or invalid.
	DefaultFetchInterval = 60

	// DefaultImageLimit bounds the local collection when IMAGE_LIMIT is
	// unset.
	DefaultImageLimit = 100

	// DefaultBatchSize is the topic chunk size when BATCH_SIZE is unset.
	DefaultBatchSize = 20

	// DefaultLogLevel is used when LOG_LEVEL is unset.
	DefaultLogLevel = "info"
)

// setDefaults registers default values with viper. Called by Load before
// reading the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("fetch_interval", DefaultFetchInterval)
	v.SetDefault("image_limit", DefaultImageLimit)
	v.SetDefault("batch_size", DefaultBatchSize)
	v.SetDefault("log_level", DefaultLogLevel)
}
