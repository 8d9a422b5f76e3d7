// Package config loads the core trading engine's configuration from
// YAML plus environment overrides via viper, watches the config file
// for changes with fsnotify, and hands each reload to registered
// callbacks. Values are swapped atomically so the hot path never takes
// a lock to read the current configuration.
package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// MarketDataConfig configures the feed ingest layer (spec §4.2).
type MarketDataConfig struct {
	BinaryFeedAddr string        `yaml:"binary_feed_addr"`
	JSONFeedAddr   string        `yaml:"json_feed_addr"`
	RingCapacity   int           `yaml:"ring_capacity" default:"4096"`
	DecimalFactor  uint32        `yaml:"decimal_factor" default:"10000"`
	SnapshotPoll   time.Duration `yaml:"snapshot_poll" default:"5s"`
}

// PaperExchangeConfig configures the simulator (spec §4.3).
type PaperExchangeConfig struct {
	SlippageBps        uint32 `yaml:"slippage_bps" default:"10"`
	CommissionBps      uint32 `yaml:"commission_bps" default:"5"`
	PriceScale         uint32 `yaml:"price_scale" default:"10000"`
	QueuePositionModel bool   `yaml:"queue_position_model" default:"true"`
}

// RiskConfig configures the pre-trade risk manager and rate limiter
// (spec §4.4).
type RiskConfig struct {
	InitialCapital     int64   `yaml:"initial_capital" default:"1000000"`
	DailyLossPct       float64 `yaml:"daily_loss_pct" default:"0.03"`
	MaxDrawdownPct     float64 `yaml:"max_drawdown_pct" default:"0.1"`
	MaxNotionalPct     float64 `yaml:"max_notional_pct" default:"0.5"`
	MaxOrderSize       uint32  `yaml:"max_order_size" default:"1000"`
	MaxAggregatePos    int64   `yaml:"max_aggregate_position" default:"10000"`
	GlobalPerSecond    int64   `yaml:"global_per_second" default:"5000"`
	PerTraderPerSecond int64   `yaml:"per_trader_per_second" default:"200"`
	MaxActiveOrders    int64   `yaml:"max_active_orders" default:"500"`
	RateLimitEnabled   bool    `yaml:"rate_limit_enabled" default:"true"`
}

// HaltConfig configures the halt/flatten controller (spec §4.6).
type HaltConfig struct {
	MaxRetries int `yaml:"max_retries" default:"3"`
	// PoolWarningFreeFraction fires an alert-only callback once an order
	// or level pool's free fraction drops to or below this value,
	// without halting (spec §4.2 "Pool discipline": "A warning threshold
	// (default 10% free) fires a callback without halting").
	PoolWarningFreeFraction float64 `yaml:"pool_warning_free_fraction" default:"0.10"`
	// PoolCriticalFreeFraction halts the engine once a pool's free
	// fraction drops to or below this value (spec §4.2: "on approaching
	// the critical threshold (default 1% free), PoolCritical").
	PoolCriticalFreeFraction float64 `yaml:"pool_critical_free_fraction" default:"0.01"`
}

// SharedMemoryConfig names the shared-memory paths spec §6 lists.
type SharedMemoryConfig struct {
	ConfigPath        string `yaml:"config_path" default:"/trader_config"`
	PaperConfigPath   string `yaml:"paper_config_path" default:"/trader_paper_config"`
	EventLogPath      string `yaml:"event_log_path" default:"/trader_event_log"`
	SymbolConfigsPath string `yaml:"symbol_configs_path" default:"/trader_symbol_configs"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" default:"info"`
	Development bool   `yaml:"development" default:"false"`
}

// MetricsConfig configures the Prometheus exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Addr    string `yaml:"addr" default:":9090"`
}

// Config is the root configuration document.
type Config struct {
	Environment string              `yaml:"environment" default:"development"`
	MarketData  MarketDataConfig    `yaml:"market_data"`
	Paper       PaperExchangeConfig `yaml:"paper"`
	Risk        RiskConfig          `yaml:"risk"`
	Halt        HaltConfig          `yaml:"halt"`
	SharedMem   SharedMemoryConfig  `yaml:"shared_memory"`
	Logging     LoggingConfig       `yaml:"logging"`
	Metrics     MetricsConfig       `yaml:"metrics"`
}

// ReloadFunc is notified with the newly loaded configuration every time
// the file changes on disk.
type ReloadFunc func(*Config)

// Manager owns a viper instance, an fsnotify watcher on the config
// file's directory, and the current Config, stored so readers never
// block a writer mid-reload.
type Manager struct {
	v          *viper.Viper
	configPath string

	current atomic.Value // *Config

	watcher    *fsnotify.Watcher
	reloadChan chan struct{}

	callbacks []ReloadFunc
	cbMu      sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager loads configPath immediately and starts watching its
// directory for subsequent writes.
func NewManager(configPath string) (*Manager, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		v:          viper.New(),
		configPath: configPath,
		watcher:    watcher,
		reloadChan: make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
	}

	m.v.SetConfigFile(configPath)
	m.v.SetEnvPrefix("TRADSYS")
	m.v.AutomaticEnv()
	m.setDefaults()

	if err := m.load(); err != nil {
		cancel()
		watcher.Close()
		return nil, err
	}

	if err := m.watcher.Add(filepath.Dir(configPath)); err != nil {
		cancel()
		watcher.Close()
		return nil, fmt.Errorf("config: watch directory: %w", err)
	}
	m.wg.Add(1)
	go m.watchLoop()

	return m, nil
}

func (m *Manager) setDefaults() {
	m.v.SetDefault("environment", "development")

	m.v.SetDefault("market_data.ring_capacity", 4096)
	m.v.SetDefault("market_data.decimal_factor", 10000)
	m.v.SetDefault("market_data.snapshot_poll", "5s")

	m.v.SetDefault("paper.slippage_bps", 10)
	m.v.SetDefault("paper.commission_bps", 5)
	m.v.SetDefault("paper.price_scale", 10000)
	m.v.SetDefault("paper.queue_position_model", true)

	m.v.SetDefault("risk.initial_capital", 1_000_000)
	m.v.SetDefault("risk.daily_loss_pct", 0.03)
	m.v.SetDefault("risk.max_drawdown_pct", 0.1)
	m.v.SetDefault("risk.max_notional_pct", 0.5)
	m.v.SetDefault("risk.max_order_size", 1000)
	m.v.SetDefault("risk.max_aggregate_position", 10000)
	m.v.SetDefault("risk.global_per_second", 5000)
	m.v.SetDefault("risk.per_trader_per_second", 200)
	m.v.SetDefault("risk.max_active_orders", 500)
	m.v.SetDefault("risk.rate_limit_enabled", true)

	m.v.SetDefault("halt.max_retries", 3)
	m.v.SetDefault("halt.pool_warning_free_fraction", 0.10)
	m.v.SetDefault("halt.pool_critical_free_fraction", 0.01)

	m.v.SetDefault("shared_memory.config_path", "/trader_config")
	m.v.SetDefault("shared_memory.paper_config_path", "/trader_paper_config")
	m.v.SetDefault("shared_memory.event_log_path", "/trader_event_log")
	m.v.SetDefault("shared_memory.symbol_configs_path", "/trader_symbol_configs")

	m.v.SetDefault("logging.level", "info")
	m.v.SetDefault("logging.development", false)

	m.v.SetDefault("metrics.enabled", true)
	m.v.SetDefault("metrics.addr", ":9090")
}

func (m *Manager) load() error {
	if err := m.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("config: read %s: %w", m.configPath, err)
		}
	}

	// viper's own Unmarshal matches mapstructure names and ignores the
	// yaml tags above, so the merged settings are re-encoded as YAML and
	// decoded through those tags instead.
	raw, err := yaml.Marshal(m.v.AllSettings())
	if err != nil {
		return fmt.Errorf("config: encode settings: %w", err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: unmarshal: %w", err)
	}

	m.current.Store(cfg)
	m.notify(cfg)
	return nil
}

func (m *Manager) notify(cfg *Config) {
	m.cbMu.RLock()
	defer m.cbMu.RUnlock()
	for _, cb := range m.callbacks {
		cb(cfg)
	}
}

// OnReload registers fn to be called with every subsequently loaded
// Config, including the one already loaded by NewManager.
func (m *Manager) OnReload(fn ReloadFunc) {
	m.cbMu.Lock()
	m.callbacks = append(m.callbacks, fn)
	m.cbMu.Unlock()
	fn(m.Current())
}

// Current returns the most recently loaded configuration.
func (m *Manager) Current() *Config {
	return m.current.Load().(*Config)
}

func (m *Manager) watchLoop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(m.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			select {
			case m.reloadChan <- struct{}{}:
			default:
			}
		case _, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
		case <-m.reloadChan:
			time.Sleep(100 * time.Millisecond)
			_ = m.load()
		}
	}
}

// Close stops the watcher goroutine and releases its resources.
func (m *Manager) Close() error {
	m.cancel()
	err := m.watcher.Close()
	m.wg.Wait()
	return err
}
