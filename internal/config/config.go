package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. A missing file is
// not an error; defaults apply.
func Load(configDir string) error {
	// Set default values
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./tracklogs")

	viper.SetDefault("track.file", "./track.json")
	viper.SetDefault("track.srid", 4326)

	viper.SetDefault("server.address", ":8080")

	viper.SetDefault("stream.bufferSize", 1024)

	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.flushSeconds", 10)
	viper.SetDefault("history.sqlitePath", "./trackd_history.db")
	viper.SetDefault("history.saveLocal", false)
	viper.SetDefault("history.db.host", "localhost")
	viper.SetDefault("history.db.port", "5432")
	viper.SetDefault("history.db.username", "postgres")
	viper.SetDefault("history.db.password", "postgres")
	viper.SetDefault("history.db.database", "trackd")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "trackd-metrics")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("journal.outputDir", "./journal")

	viper.SetDefault("webhook.enabled", false)
	viper.SetDefault("webhook.serverUrl", "http://localhost:5000")
	viper.SetDefault("webhook.apiKey", "")

	viper.SetConfigName("trackd.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
