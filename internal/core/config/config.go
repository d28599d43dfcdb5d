package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when no -config flag is given.
const DefaultPath = "ytgrab.yml"

// Retention controls cleanup of the download directory. With MaxAge empty
// the sweeper is disabled and downloaded files accumulate indefinitely.
type Retention struct {
	MaxAge        string `yaml:"max_age,omitempty"`
	SweepInterval string `yaml:"sweep_interval,omitempty"`
}

// Config is the application configuration
type Config struct {
	Host        string    `yaml:"host"`
	Port        int       `yaml:"port"`
	DownloadDir string    `yaml:"download_dir"`
	UsersFile   string    `yaml:"users_file"`
	YtdlpPath   string    `yaml:"ytdlp_path"`
	OpenBrowser bool      `yaml:"open_browser"`
	Retention   Retention `yaml:"retention,omitempty"`
}

// Default returns a config with all defaults applied
func Default() *Config {
	return &Config{
		Host:        "127.0.0.1",
		Port:        5000,
		DownloadDir: "downloads",
		UsersFile:   "users.json",
		YtdlpPath:   "yt-dlp",
		OpenBrowser: true,
		Retention: Retention{
			SweepInterval: "10m",
		},
	}
}

// Exists reports whether a config file is present at path
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads and parses the config file at path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads the config file at path, falling back to defaults
// when the file is missing or unreadable
func LoadOrDefault(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		return Default()
	}
	return cfg
}

// Save writes the config to path
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Addr returns the listen address in host:port form
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MaxAgeDuration parses the retention max_age field. Zero means retention is off.
func (r Retention) MaxAgeDuration() (time.Duration, error) {
	if r.MaxAge == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(r.MaxAge)
	if err != nil {
		return 0, fmt.Errorf("invalid retention.max_age: %w", err)
	}
	return d, nil
}

// SweepIntervalDuration parses the retention sweep_interval field,
// defaulting to 10 minutes
func (r Retention) SweepIntervalDuration() time.Duration {
	if r.SweepInterval == "" {
		return 10 * time.Minute
	}
	d, err := time.ParseDuration(r.SweepInterval)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}
