// Package conf loads and holds the covercache settings. Configuration is
// sourced from defaults, an optional YAML config file and COVERCACHE_*
// environment variables, in that order of precedence (lowest to highest).
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the full runtime configuration.
type Settings struct {
	Debug bool `mapstructure:"debug"`

	// Library is the music library this instance serves artwork for.
	Library struct {
		// Path is the library base path; covers are stored under
		// <path>/assets/albums and <path>/assets/artists.
		Path string `mapstructure:"path"`
	} `mapstructure:"library"`

	Database struct {
		// Path to the SQLite file holding identity and not-found records.
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`

	Providers struct {
		UserAgent string `mapstructure:"useragent"`

		CoverArtArchive struct {
			Endpoint string        `mapstructure:"endpoint"`
			Timeout  time.Duration `mapstructure:"timeout"`
		} `mapstructure:"coverartarchive"`

		Deezer struct {
			Endpoint string        `mapstructure:"endpoint"`
			Timeout  time.Duration `mapstructure:"timeout"`
		} `mapstructure:"deezer"`

		MusicBrainz struct {
			Endpoint string        `mapstructure:"endpoint"`
			Timeout  time.Duration `mapstructure:"timeout"`
			// RequestsPerSecond caps resolver traffic; MusicBrainz asks
			// for at most 1 req/s per client.
			RequestsPerSecond float64 `mapstructure:"requestspersecond"`
		} `mapstructure:"musicbrainz"`
	} `mapstructure:"providers"`

	Resolver struct {
		// ThrottleDelay is the minimum gap between consecutive provider
		// fetches, measured from completion of the previous fetch.
		ThrottleDelay time.Duration `mapstructure:"throttledelay"`
		// NotFoundTTL is how long a confirmed negative result suppresses
		// new lookups for the same key.
		NotFoundTTL time.Duration `mapstructure:"notfoundttl"`
		// ProxyErrorCooldown is the debounce window for provider-outage
		// notifications.
		ProxyErrorCooldown time.Duration `mapstructure:"proxyerrorcooldown"`
	} `mapstructure:"resolver"`

	Notify struct {
		Enabled bool `mapstructure:"enabled"`
		// URLs are shoutrrr service URLs provider-outage notifications
		// are pushed to.
		URLs    []string      `mapstructure:"urls"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"notify"`

	Log struct {
		Path       string `mapstructure:"path"`
		MaxSizeMB  int    `mapstructure:"maxsizemb"`
		MaxBackups int    `mapstructure:"maxbackups"`
		MaxAgeDays int    `mapstructure:"maxagedays"`
	} `mapstructure:"log"`
}

// AssetsDir returns the base directory covers are stored under.
func (s *Settings) AssetsDir() string {
	return filepath.Join(s.Library.Path, "assets")
}

// CoversDir returns the directory covers of the given category are stored in.
func (s *Settings) CoversDir(category string) string {
	return filepath.Join(s.AssetsDir(), category)
}

// setDefaults registers the default configuration values with viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("library.path", ".")
	v.SetDefault("database.path", "covercache.db")
	v.SetDefault("providers.useragent", "covercache/1.0 (https://github.com/fennecbyte/covercache)")
	v.SetDefault("providers.coverartarchive.endpoint", "https://coverartarchive.org")
	v.SetDefault("providers.coverartarchive.timeout", 30*time.Second)
	v.SetDefault("providers.deezer.endpoint", "https://api.deezer.com")
	v.SetDefault("providers.deezer.timeout", 30*time.Second)
	v.SetDefault("providers.musicbrainz.endpoint", "https://musicbrainz.org/ws/2")
	v.SetDefault("providers.musicbrainz.timeout", 30*time.Second)
	v.SetDefault("providers.musicbrainz.requestspersecond", 1.0)
	v.SetDefault("resolver.throttledelay", 500*time.Millisecond)
	v.SetDefault("resolver.notfoundttl", 72*time.Hour)
	v.SetDefault("resolver.proxyerrorcooldown", 30*time.Second)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.urls", []string{})
	v.SetDefault("notify.timeout", 10*time.Second)
	v.SetDefault("log.path", "")
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 3)
	v.SetDefault("log.maxagedays", 28)
}

// Load reads configuration from the given file (or the default search paths
// when configFile is empty) and returns the populated Settings.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("covercache")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "covercache"))
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			// A missing config file is fine, defaults apply.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return settings, nil
}

// Default returns Settings populated with defaults only, for tests and
// embedded use.
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	settings := &Settings{}
	// Unmarshal over pure defaults cannot fail.
	_ = v.Unmarshal(settings)
	return settings
}
