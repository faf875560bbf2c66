// Package config provides persistent configuration for the ezan-saati CLI.
//
// Configuration is stored as JSON at ~/.config/ezan-saati/config.json
// (XDG-compliant). A .env file and EZAN_* environment variables override the
// file. The merge priority is: CLI flags > environment > config file > defaults.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	configDirName  = "ezan-saati"
	configFileName = "config.json"

	// DefaultMethod is Diyanet İşleri Başkanlığı (Turkey).
	DefaultMethod = 13
)

// ValidKeys lists all config keys that can be set via `config set`.
var ValidKeys = []string{
	"city", "country",
	"latitude", "longitude",
	"method", "school",
	"time_format",
	"language",
	"prayers",
	"notification_sound",
	"cache_dir",
	"redis_addr",
	"mqtt_broker", "mqtt_topic",
	"listen_addr",
}

// Config holds all user-configurable settings.
// Zero values mean "not set" (use defaults or auto-detect).
type Config struct {
	City              string  `json:"city,omitempty"`
	Country           string  `json:"country,omitempty"`
	Latitude          float64 `json:"latitude,omitempty"`
	Longitude         float64 `json:"longitude,omitempty"`
	Method            *int    `json:"method,omitempty"`      // pointer so we can distinguish "not set" from 0
	School            *int    `json:"school,omitempty"`      // pointer so we can distinguish "not set" from 0
	TimeFormat        string  `json:"time_format,omitempty"` // "12h" or "24h"
	Language          string  `json:"language,omitempty"`    // "en" or "tr"
	Prayers           string  `json:"prayers,omitempty"`     // comma-separated list
	NotificationSound string  `json:"notification_sound,omitempty"`
	CacheDir          string  `json:"cache_dir,omitempty"`
	RedisAddr         string  `json:"redis_addr,omitempty"`
	MQTTBroker        string  `json:"mqtt_broker,omitempty"`
	MQTTTopic         string  `json:"mqtt_topic,omitempty"`
	ListenAddr        string  `json:"listen_addr,omitempty"`

	// Credentials only come from the environment and are never written.
	RedisUsername string `json:"-"`
	RedisPassword string `json:"-"`
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	method := DefaultMethod
	school := -1
	return Config{
		Method:            &method,
		School:            &school,
		TimeFormat:        "24h",
		Language:          "en",
		NotificationSound: "default",
		MQTTTopic:         "ezan-saati",
		ListenAddr:        ":8080",
	}
}

// ApplyDefaults fills every unset field from Defaults.
func (c *Config) ApplyDefaults() {
	d := Defaults()
	if c.Method == nil {
		c.Method = d.Method
	}
	if c.School == nil {
		c.School = d.School
	}
	if c.TimeFormat == "" {
		c.TimeFormat = d.TimeFormat
	}
	if c.Language == "" {
		c.Language = d.Language
	}
	if c.NotificationSound == "" {
		c.NotificationSound = d.NotificationSound
	}
	if c.MQTTTopic == "" {
		c.MQTTTopic = d.MQTTTopic
	}
	if c.ListenAddr == "" {
		c.ListenAddr = d.ListenAddr
	}
}

// GoTimeLayout returns the Go time layout for TimeFormat.
func (c *Config) GoTimeLayout() string {
	if c.TimeFormat == "12h" {
		return "3:04 PM"
	}
	return "15:04"
}

// PrayerList splits Prayers into trimmed names, or returns def when unset.
func (c *Config) PrayerList(def []string) []string {
	if c.Prayers == "" {
		return def
	}
	names := strings.Split(c.Prayers, ",")
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	return names
}

// Dir returns the config directory path.
// It respects $XDG_CONFIG_HOME if set, otherwise uses ~/.config/.
func Dir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, configDirName), nil
}

// Path returns the full path to the config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file from disk.
// If the file does not exist, it returns an empty Config (not an error).
// If the file exists but is invalid JSON, it returns an error.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	return LoadFrom(path)
}

// LoadFrom reads the config from a specific file path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Config{}
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Save writes the config to disk, creating the directory if needed.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return c.SaveTo(path)
}

// SaveTo writes the config to a specific file path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Reset deletes the config file.
func Reset() error {
	path, err := Path()
	if err != nil {
		return err
	}

	return ResetAt(path)
}

// ResetAt deletes the config file at a specific path.
func ResetAt(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// Set sets a config key to the given value.
// It validates the key name and parses the value into the correct type.
func (c *Config) Set(key, value string) error {
	switch key {
	case "city":
		c.City = value
	case "country":
		c.Country = value
	case "latitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid latitude %q: must be a number", value)
		}
		if v < -90 || v > 90 {
			return fmt.Errorf("invalid latitude %q: must be between -90 and 90", value)
		}
		c.Latitude = v
	case "longitude":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid longitude %q: must be a number", value)
		}
		if v < -180 || v > 180 {
			return fmt.Errorf("invalid longitude %q: must be between -180 and 180", value)
		}
		c.Longitude = v
	case "method":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid method %q: must be an integer", value)
		}
		if v < 0 || v > 23 {
			return fmt.Errorf("invalid method %q: must be between 0 and 23", value)
		}
		c.Method = &v
	case "school":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid school %q: must be an integer", value)
		}
		if v != 0 && v != 1 {
			return fmt.Errorf("invalid school %q: must be 0 (Shafi) or 1 (Hanafi)", value)
		}
		c.School = &v
	case "time_format":
		if value != "12h" && value != "24h" {
			return fmt.Errorf("invalid time_format %q: must be \"12h\" or \"24h\"", value)
		}
		c.TimeFormat = value
	case "language":
		if value != "en" && value != "tr" {
			return fmt.Errorf("invalid language %q: must be \"en\" or \"tr\"", value)
		}
		c.Language = value
	case "prayers":
		names := strings.Split(value, ",")
		for _, n := range names {
			n = strings.TrimSpace(n)
			if !isValidPrayerName(n) {
				return fmt.Errorf("invalid prayer name %q in prayers list", n)
			}
		}
		c.Prayers = value
	case "notification_sound":
		if !validSounds[value] {
			return fmt.Errorf("invalid notification_sound %q: must be default, adhan or bismillah", value)
		}
		c.NotificationSound = value
	case "cache_dir":
		c.CacheDir = value
	case "redis_addr":
		c.RedisAddr = value
	case "mqtt_broker":
		if value != "" && !strings.Contains(value, "://") {
			return fmt.Errorf("invalid mqtt_broker %q: must be a URL such as tcp://host:1883", value)
		}
		c.MQTTBroker = value
	case "mqtt_topic":
		if strings.ContainsAny(value, "#+") {
			return fmt.Errorf("invalid mqtt_topic %q: wildcards are not allowed", value)
		}
		c.MQTTTopic = value
	case "listen_addr":
		c.ListenAddr = value
	default:
		return fmt.Errorf("unknown config key %q; valid keys: %s", key, strings.Join(ValidKeys, ", "))
	}

	return nil
}

// Get returns the string value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "city":
		return c.City, nil
	case "country":
		return c.Country, nil
	case "latitude":
		if c.Latitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Latitude, 'f', -1, 64), nil
	case "longitude":
		if c.Longitude == 0 {
			return "", nil
		}
		return strconv.FormatFloat(c.Longitude, 'f', -1, 64), nil
	case "method":
		if c.Method == nil {
			return "", nil
		}
		return strconv.Itoa(*c.Method), nil
	case "school":
		if c.School == nil {
			return "", nil
		}
		return strconv.Itoa(*c.School), nil
	case "time_format":
		return c.TimeFormat, nil
	case "language":
		return c.Language, nil
	case "prayers":
		return c.Prayers, nil
	case "notification_sound":
		return c.NotificationSound, nil
	case "cache_dir":
		return c.CacheDir, nil
	case "redis_addr":
		return c.RedisAddr, nil
	case "mqtt_broker":
		return c.MQTTBroker, nil
	case "mqtt_topic":
		return c.MQTTTopic, nil
	case "listen_addr":
		return c.ListenAddr, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// validPrayerNames are the prayer names the API supports.
var validPrayerNames = map[string]bool{
	"Fajr": true, "Sunrise": true, "Dhuhr": true, "Asr": true,
	"Sunset": true, "Maghrib": true, "Isha": true,
	"Imsak": true, "Midnight": true, "Firstthird": true, "Lastthird": true,
}

var validSounds = map[string]bool{"default": true, "adhan": true, "bismillah": true}

func isValidPrayerName(name string) bool {
	return validPrayerNames[name]
}

// MethodOrDefault returns the method value, falling back to the given default.
func (c *Config) MethodOrDefault(def int) int {
	if c.Method != nil {
		return *c.Method
	}
	return def
}

// SchoolOrDefault returns the school value, falling back to the given default.
func (c *Config) SchoolOrDefault(def int) int {
	if c.School != nil {
		return *c.School
	}
	return def
}
