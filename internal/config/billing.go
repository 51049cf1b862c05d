package config

import (
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig controls the monthly billing run: how customers are
// paged and chunked, how often a failed chunk is retried, and when the
// trigger fires.
type BillingConfig struct {
	// CronSpec is the monthly trigger schedule. The default fires at
	// 02:00 on the first day of each month.
	CronSpec string `mapstructure:"cronSpec"`
	// PageSize is how many customers the reader fetches per query.
	PageSize int `mapstructure:"pageSize"`
	// ChunkSize is how many customers are processed and committed as
	// one transactional unit.
	ChunkSize int `mapstructure:"chunkSize"`
	// MaxAttempts bounds how often a failed chunk is retried before
	// the run is marked failed.
	MaxAttempts int `mapstructure:"maxAttempts"`
	// ParallelItems simulates customer bills within a chunk
	// concurrently. The writer stays serialized either way.
	ParallelItems bool `mapstructure:"parallelItems"`
	// JobTimeout caps a single job run.
	JobTimeout time.Duration `mapstructure:"jobTimeout"`
}

func DefaultBillingConfig() BillingConfig {
	return BillingConfig{
		CronSpec:      "0 2 1 * *",
		PageSize:      5,
		ChunkSize:     5,
		MaxAttempts:   3,
		ParallelItems: false,
		JobTimeout:    30 * time.Minute,
	}
}

func (c BillingConfig) withDefaults() BillingConfig {
	defaults := DefaultBillingConfig()
	if strings.TrimSpace(c.CronSpec) == "" {
		c.CronSpec = defaults.CronSpec
	}
	if c.PageSize <= 0 {
		c.PageSize = defaults.PageSize
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaults.ChunkSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	return c
}

// BillingConfigHolder serves the current billing policy and hot-reloads
// it when the config file changes.
type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder() (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/tarifa/config")
	v.AddConfigPath("/etc/tarifa")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TARIFA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &BillingConfigHolder{}

	load := func() error {
		var cfg BillingConfig
		if err := v.UnmarshalKey("billing", &cfg); err != nil {
			return err
		}
		holder.current.Store(cfg.withDefaults())
		return nil
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		holder.current.Store(DefaultBillingConfig())
		return holder, nil
	}

	if err := load(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(in fsnotify.Event) {
		if err := load(); err != nil {
			log.Printf("billing config reload failed: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *BillingConfigHolder) Current() BillingConfig {
	if h == nil {
		return DefaultBillingConfig()
	}
	if cfg, ok := h.current.Load().(BillingConfig); ok {
		return cfg
	}
	return DefaultBillingConfig()
}

// StaticBillingConfig returns a holder pinned to cfg, for tests.
func StaticBillingConfig(cfg BillingConfig) *BillingConfigHolder {
	holder := &BillingConfigHolder{}
	holder.current.Store(cfg.withDefaults())
	return holder
}
