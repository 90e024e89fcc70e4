package offline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable the device reads
const EnvPrefix = "COUNTSYNC"

// Config holds device settings
type Config struct {
	APIURL     string
	BusinessID uuid.UUID
	UserID     string
	DeviceID   string
	DBPath     string

	SyncInterval   time.Duration
	ProbeInterval  time.Duration
	ProbeTimeout   time.Duration
	RequestTimeout time.Duration
	OperationDelay time.Duration
	MaxRetries     int

	LogLevel  string
	LogFormat string
}

// Config keys, shared by flags, environment and config file
const (
	KeyAPIURL         = "api_url"
	KeyBusinessID     = "business_id"
	KeyUserID         = "user_id"
	KeyDeviceID       = "device_id"
	KeyDBPath         = "db_path"
	KeySyncInterval   = "sync_interval"
	KeyProbeInterval  = "probe_interval"
	KeyProbeTimeout   = "probe_timeout"
	KeyRequestTimeout = "request_timeout"
	KeyOperationDelay = "operation_delay"
	KeyMaxRetries     = "max_retries"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
)

// NewViper returns a viper instance with defaults and COUNTSYNC_* env binding
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	hostname, _ := os.Hostname()

	v.SetDefault(KeyAPIURL, "http://localhost:8080")
	v.SetDefault(KeyUserID, "device")
	v.SetDefault(KeyDeviceID, hostname)
	v.SetDefault(KeyDBPath, defaultDBPath())
	v.SetDefault(KeySyncInterval, DefaultSyncInterval)
	v.SetDefault(KeyProbeInterval, DefaultProbeInterval)
	v.SetDefault(KeyProbeTimeout, 5*time.Second)
	v.SetDefault(KeyRequestTimeout, 15*time.Second)
	v.SetDefault(KeyOperationDelay, DefaultOperationDelay)
	v.SetDefault(KeyMaxRetries, DefaultMaxRetries)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	return v
}

// ReadConfigFile merges path into v. A missing default config file is not an error.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("countsync")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "countsync"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// LoadConfig reads and validates the device configuration from v
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		APIURL:         v.GetString(KeyAPIURL),
		UserID:         v.GetString(KeyUserID),
		DeviceID:       v.GetString(KeyDeviceID),
		DBPath:         v.GetString(KeyDBPath),
		SyncInterval:   v.GetDuration(KeySyncInterval),
		ProbeInterval:  v.GetDuration(KeyProbeInterval),
		ProbeTimeout:   v.GetDuration(KeyProbeTimeout),
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		OperationDelay: v.GetDuration(KeyOperationDelay),
		MaxRetries:     v.GetInt(KeyMaxRetries),
		LogLevel:       v.GetString(KeyLogLevel),
		LogFormat:      v.GetString(KeyLogFormat),
	}

	raw := strings.TrimSpace(v.GetString(KeyBusinessID))
	if raw == "" {
		return Config{}, fmt.Errorf("%s is required (flag --business-id or %s_BUSINESS_ID)", KeyBusinessID, EnvPrefix)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return Config{}, fmt.Errorf("invalid %s %q", KeyBusinessID, raw)
	}
	cfg.BusinessID = id

	if cfg.APIURL == "" {
		return Config{}, fmt.Errorf("%s is required", KeyAPIURL)
	}
	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("%s is required", KeyDBPath)
	}
	if cfg.MaxRetries <= 0 {
		return Config{}, fmt.Errorf("%s must be positive", KeyMaxRetries)
	}
	if cfg.OperationDelay < 0 {
		return Config{}, fmt.Errorf("%s cannot be negative", KeyOperationDelay)
	}

	return cfg, nil
}

func defaultDBPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "countsync", "queue.db")
	}
	return "countsync.db"
}
