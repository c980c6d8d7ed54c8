package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// StorageConfig governs the temp-file store and the artwork materializer.
// It is hot-reloadable so operators can tune the sweep and the write
// concurrency without a restart.
type StorageConfig struct {
	TempDir              string `mapstructure:"tempDir"`
	ServePathPrefix      string `mapstructure:"servePathPrefix"`
	TTLHours             int    `mapstructure:"ttlHours"`
	SweepIntervalMinutes int    `mapstructure:"sweepIntervalMinutes"`
	MaxConcurrentWrites  int    `mapstructure:"maxConcurrentWrites"`
	MaxFileSizeBytes     int64  `mapstructure:"maxFileSizeBytes"`
}

func DefaultStorageConfig() StorageConfig {
	return StorageConfig{
		TempDir:              "./data/temp",
		ServePathPrefix:      "/temp-files",
		TTLHours:             24,
		SweepIntervalMinutes: 30,
		MaxConcurrentWrites:  8,
		MaxFileSizeBytes:     20 << 20,
	}
}

type StorageConfigHolder struct {
	current atomic.Value // holds StorageConfig
}

func NewStorageConfigHolder() (*StorageConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("storage")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/keepsake/config")
	v.AddConfigPath("/etc/keepsake")
	v.AddConfigPath(".")

	v.SetEnvPrefix("KEEPSAKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultStorageConfig()
		v.SetDefault("storage.tempDir", defaults.TempDir)
		v.SetDefault("storage.servePathPrefix", defaults.ServePathPrefix)
		v.SetDefault("storage.ttlHours", defaults.TTLHours)
		v.SetDefault("storage.sweepIntervalMinutes", defaults.SweepIntervalMinutes)
		v.SetDefault("storage.maxConcurrentWrites", defaults.MaxConcurrentWrites)
		v.SetDefault("storage.maxFileSizeBytes", defaults.MaxFileSizeBytes)
	}

	var cfg StorageConfig
	if err := v.UnmarshalKey("storage", &cfg); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	if err := validateStorageConfig(cfg); err != nil {
		return nil, err
	}

	holder := &StorageConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated StorageConfig
		if err := v.UnmarshalKey("storage", &updated); err != nil {
			log.Printf("[storage-config] reload failed: %v", err)
			return
		}
		updated = updated.withDefaults()
		if err := validateStorageConfig(updated); err != nil {
			log.Printf("[storage-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[storage-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticStorageConfigHolder returns a holder with a fixed config, for tests.
func NewStaticStorageConfigHolder(cfg StorageConfig) *StorageConfigHolder {
	holder := &StorageConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}

func (h *StorageConfigHolder) Current() StorageConfig {
	return h.current.Load().(StorageConfig)
}

func (c StorageConfig) withDefaults() StorageConfig {
	defaults := DefaultStorageConfig()
	if strings.TrimSpace(c.TempDir) == "" {
		c.TempDir = defaults.TempDir
	}
	if strings.TrimSpace(c.ServePathPrefix) == "" {
		c.ServePathPrefix = defaults.ServePathPrefix
	}
	if c.TTLHours <= 0 {
		c.TTLHours = defaults.TTLHours
	}
	if c.SweepIntervalMinutes <= 0 {
		c.SweepIntervalMinutes = defaults.SweepIntervalMinutes
	}
	if c.MaxConcurrentWrites <= 0 {
		c.MaxConcurrentWrites = defaults.MaxConcurrentWrites
	}
	if c.MaxFileSizeBytes <= 0 {
		c.MaxFileSizeBytes = defaults.MaxFileSizeBytes
	}
	return c
}

func validateStorageConfig(cfg StorageConfig) error {
	if !strings.HasPrefix(cfg.ServePathPrefix, "/") {
		return errors.New("storage.servePathPrefix must start with /")
	}
	if strings.Contains(cfg.TempDir, "..") {
		return errors.New("storage.tempDir must not contain ..")
	}
	return nil
}
