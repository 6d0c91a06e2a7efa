package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all SafetyRing configuration.
type Config struct {
	Storage      StorageConfig      `mapstructure:"storage"`
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Alert        AlertConfig        `mapstructure:"alert"`
	Channels     ChannelsConfig     `mapstructure:"channels"`
	MQTT         MQTTConfig         `mapstructure:"mqtt"`
	Connectivity ConnectivityConfig `mapstructure:"connectivity"`
	Geocoder     GeocoderConfig     `mapstructure:"geocoder"`
	Templates    TemplatesConfig    `mapstructure:"templates"`
}

// StorageConfig defines database settings.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// ServerConfig defines the HTTP API listener.
type ServerConfig struct {
	Listen       string `mapstructure:"listen"`
	ReadTimeout  string `mapstructure:"read_timeout"`
	WriteTimeout string `mapstructure:"write_timeout"`
}

// LoggingConfig defines logging settings. File enables a rotated log file
// in addition to stderr.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// AlertConfig defines countdown behavior.
type AlertConfig struct {
	Tick string `mapstructure:"tick"`
}

// ChannelsConfig defines the composers behind each messaging channel.
type ChannelsConfig struct {
	Primary PrimaryConfig `mapstructure:"primary"`
	Risky   RiskyConfig   `mapstructure:"risky"`
}

// PrimaryConfig selects the primary channel backend: "webhook" posts to an
// SMS gateway, "slack" posts to an incoming webhook.
type PrimaryConfig struct {
	Backend string `mapstructure:"backend"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
	Channel string `mapstructure:"channel"`
}

// RiskyConfig defines the Matrix bridge used as the risky channel.
type RiskyConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Homeserver  string       `mapstructure:"homeserver"`
	UserID      string       `mapstructure:"user_id"`
	AccessToken string       `mapstructure:"access_token"`
	Rooms       []RoomConfig `mapstructure:"rooms"`
}

// RoomConfig routes one recipient handle to a Matrix room. Handles must
// not be map keys: viper lowercases keys and splits them on dots.
type RoomConfig struct {
	Handle string `mapstructure:"handle"`
	Room   string `mapstructure:"room"`
}

// RoomMap returns the rooms keyed by handle. Later entries win.
func (c RiskyConfig) RoomMap() map[string]string {
	rooms := make(map[string]string, len(c.Rooms))
	for _, r := range c.Rooms {
		if r.Handle == "" || r.Room == "" {
			continue
		}
		rooms[r.Handle] = r.Room
	}
	return rooms
}

// MQTTConfig defines the ring bridge.
type MQTTConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Broker        string `mapstructure:"broker"`
	ClientID      string `mapstructure:"client_id"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	TriggerTopic  string `mapstructure:"trigger_topic"`
	LocationTopic string `mapstructure:"location_topic"`
	CommandTopic  string `mapstructure:"command_topic"`
}

// ConnectivityConfig defines the reachability probe.
type ConnectivityConfig struct {
	URL      string `mapstructure:"url"`
	Interval string `mapstructure:"interval"`
	Timeout  string `mapstructure:"timeout"`
}

// GeocoderConfig defines reverse geocoding.
type GeocoderConfig struct {
	URL       string `mapstructure:"url"`
	UserAgent string `mapstructure:"user_agent"`
	CacheTTL  string `mapstructure:"cache_ttl"`
}

// TemplatesConfig defines the initial template catalog.
type TemplatesConfig struct {
	SeedFile string `mapstructure:"seed_file"`
}

// Load reads configuration from file and environment variables.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("find home directory: %w", err)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(filepath.Join(home, ".safetyring"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Defaults
	v.SetDefault("storage.path", filepath.Join(home, ".safetyring", "safetyring.db"))
	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.max_age_days", 28)
	v.SetDefault("alert.tick", "1s")
	v.SetDefault("channels.primary.backend", "webhook")
	v.SetDefault("channels.primary.url", "")
	v.SetDefault("channels.primary.secret", "")
	v.SetDefault("channels.primary.channel", "#safety")
	v.SetDefault("channels.risky.enabled", false)
	v.SetDefault("channels.risky.homeserver", "")
	v.SetDefault("channels.risky.user_id", "")
	v.SetDefault("channels.risky.access_token", "")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "safetyring")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.trigger_topic", "safetyring/ring/trigger")
	v.SetDefault("mqtt.location_topic", "safetyring/ring/location")
	v.SetDefault("mqtt.command_topic", "safetyring/ring/cmd")
	v.SetDefault("connectivity.url", "https://clients3.google.com/generate_204")
	v.SetDefault("connectivity.interval", "15s")
	v.SetDefault("connectivity.timeout", "5s")
	v.SetDefault("geocoder.url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoder.user_agent", "SafetyRing/1.0")
	v.SetDefault("geocoder.cache_ttl", "10m")
	v.SetDefault("templates.seed_file", "")

	// Environment variables
	v.SetEnvPrefix("SR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Duration parses s, returning fallback when s is empty, malformed or not
// positive.
func Duration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
