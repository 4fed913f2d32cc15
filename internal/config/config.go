package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents application configuration
type Config struct {
	Quota    QuotaConfig    `mapstructure:"quota"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Daemon   DaemonConfig   `mapstructure:"daemon"`
	State    StateConfig    `mapstructure:"state"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// QuotaConfig represents the monthly permission quota rules
type QuotaConfig struct {
	MonthlyAllowance int      `mapstructure:"monthly_allowance"` // permissions per Hijri month
	MaxMinutes       int      `mapstructure:"max_minutes"`       // max minutes per permission
	WeekendDays      []string `mapstructure:"weekend_days"`      // e.g. ["friday", "saturday"]
}

// CalendarConfig represents Hijri conversion configuration
type CalendarConfig struct {
	Type     string `mapstructure:"type"`      // "ummalqura", "aladhan" or "composite"
	APIURL   string `mapstructure:"api_url"`   // For aladhan/composite types
	CacheTTL string `mapstructure:"cache_ttl"` // API cache TTL
}

// DaemonConfig represents daemon mode configuration
type DaemonConfig struct {
	DailyTime  string `mapstructure:"daily_time"` // Time to run daily check (HH:MM, local timezone)
	LogFile    string `mapstructure:"log_file"`
	LogLevel   string `mapstructure:"log_level"`
	SystemTray bool   `mapstructure:"system_tray"` // Show system tray icon (Windows only)
}

// StateConfig represents state storage configuration
type StateConfig struct {
	MonthStateFile string `mapstructure:"month_state_file"`
}

// StorageConfig represents archive database configuration
type StorageConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.permissions-tracker")
		v.AddConfigPath("/etc/permissions-tracker")
	}

	setDefaults(v)

	// Read environment variables
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("quota.monthly_allowance", 4)
	v.SetDefault("quota.max_minutes", 120)
	v.SetDefault("quota.weekend_days", []string{"friday", "saturday"})
	v.SetDefault("calendar.type", "ummalqura")
	v.SetDefault("calendar.cache_ttl", "24h")
	v.SetDefault("state.month_state_file", "month_state.json")
	v.SetDefault("storage.database_path", "permissions.db")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate Quota config
	if c.Quota.MonthlyAllowance <= 0 {
		return fmt.Errorf("quota.monthly_allowance must be positive")
	}
	if c.Quota.MaxMinutes <= 0 {
		return fmt.Errorf("quota.max_minutes must be positive")
	}
	if len(c.Quota.WeekendDays) > 6 {
		return fmt.Errorf("quota.weekend_days cannot exclude every day of the week")
	}

	// Validate Calendar config
	switch c.Calendar.Type {
	case "", "ummalqura":
		// Bundled tables, nothing else required
	case "aladhan", "composite":
		// api_url is optional, the client falls back to the public endpoint
	default:
		return fmt.Errorf("calendar.type must be 'ummalqura', 'aladhan' or 'composite', got '%s'", c.Calendar.Type)
	}

	// Validate State config
	if c.State.MonthStateFile == "" {
		return fmt.Errorf("state.month_state_file is required")
	}

	// Validate Storage config
	if c.Storage.DatabasePath == "" {
		return fmt.Errorf("storage.database_path is required")
	}

	return nil
}

// GetCacheTTL returns calendar cache TTL duration
func (c *CalendarConfig) GetCacheTTL() time.Duration {
	if c.CacheTTL == "" {
		return 24 * time.Hour
	}
	duration, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return duration
}

// GetDailyTime returns the configured daily check time (local timezone)
// Returns hour and minute (0-23, 0-59). Default: 08:00
func (c *DaemonConfig) GetDailyTime() (hour, minute int) {
	if c.DailyTime == "" {
		return 8, 0 // Default: 08:00
	}

	var h, m int
	_, err := fmt.Sscanf(c.DailyTime, "%d:%d", &h, &m)
	if err != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 8, 0 // Fallback to default
	}
	return h, m
}
