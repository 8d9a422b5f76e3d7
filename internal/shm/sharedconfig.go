package shm

import "time"

// SharedConfigMagic / SharedConfigVersion identify the page layout so a
// reader can refuse to interpret a stale or foreign-built region.
const (
	SharedConfigMagic   uint32 = 0x53434647 // "SCFG"
	SharedConfigVersion uint32 = 1
)

// SharedConfigSize is the fixed page size (spec §4.5 "a fixed-size
// page").
const SharedConfigSize = 64

// Field offsets within the SharedConfig page. Percentages are stored
// ×100 fixed point, basis points ×10 — both spec §4.5's exact encoding
// — so every field is a plain integer with no float ever touching
// shared memory.
const (
	offMagic             = 0
	offVersion           = 4
	offSequence          = 8
	offDailyLossPctX100  = 16
	offMaxDrawdownX100   = 20
	offMaxNotionalX100   = 24
	offSlippageBpsX10    = 28
	offCommissionBpsX10  = 32
	offFlags             = 36
	offHeartbeatNs       = 40
	offPID               = 48
	offStatus            = 52
)

// Status codes published by the trading process.
const (
	StatusUnknown uint32 = iota
	StatusRunning
	StatusHalting
	StatusHalted
	StatusError
)

const (
	flagTradingEnabled uint32 = 1 << 0
	flagForceMode      uint32 = 1 << 1
)

// SharedConfig wraps a mapped region with the field layout spec §4.5
// describes. All writes bump Sequence; readers compare a sampled
// sequence before and after reading the body to detect a torn read
// (spec: "readers sample sequence to decide whether to re-read").
type SharedConfig struct {
	data []byte
}

// NewSharedConfig wraps a region already sized SharedConfigSize.
func NewSharedConfig(r *Region) *SharedConfig {
	return &SharedConfig{data: r.Bytes()[:SharedConfigSize]}
}

// Init stamps the header on a freshly created region. Only the owning
// writer calls this.
func (c *SharedConfig) Init() {
	storeU32(c.data, offMagic, SharedConfigMagic)
	storeU32(c.data, offVersion, SharedConfigVersion)
	storeU64(c.data, offSequence, 0)
}

// Valid reports whether the region carries this package's magic and a
// version it understands.
func (c *SharedConfig) Valid() bool {
	return loadU32(c.data, offMagic) == SharedConfigMagic && loadU32(c.data, offVersion) == SharedConfigVersion
}

// Sequence returns the current write sequence.
func (c *SharedConfig) Sequence() uint64 { return loadU64(c.data, offSequence) }

func (c *SharedConfig) bumpSequence() { addU64(c.data, offSequence, 1) }

// SetDailyLossPct stores a fractional percentage (e.g. 0.02) as ×100
// fixed point.
func (c *SharedConfig) SetDailyLossPct(pct float64) {
	storeU32(c.data, offDailyLossPctX100, uint32(pct*10000))
	c.bumpSequence()
}

func (c *SharedConfig) DailyLossPct() float64 {
	return float64(loadU32(c.data, offDailyLossPctX100)) / 10000
}

func (c *SharedConfig) SetMaxDrawdownPct(pct float64) {
	storeU32(c.data, offMaxDrawdownX100, uint32(pct*10000))
	c.bumpSequence()
}

func (c *SharedConfig) MaxDrawdownPct() float64 {
	return float64(loadU32(c.data, offMaxDrawdownX100)) / 10000
}

func (c *SharedConfig) SetMaxNotionalPct(pct float64) {
	storeU32(c.data, offMaxNotionalX100, uint32(pct*10000))
	c.bumpSequence()
}

func (c *SharedConfig) MaxNotionalPct() float64 {
	return float64(loadU32(c.data, offMaxNotionalX100)) / 10000
}

// SetSlippageBps stores a basis-point rate ×10 (spec: "basis points as
// ×10").
func (c *SharedConfig) SetSlippageBps(bps float64) {
	storeU32(c.data, offSlippageBpsX10, uint32(bps*10))
	c.bumpSequence()
}

func (c *SharedConfig) SlippageBps() float64 {
	return float64(loadU32(c.data, offSlippageBpsX10)) / 10
}

func (c *SharedConfig) SetCommissionBps(bps float64) {
	storeU32(c.data, offCommissionBpsX10, uint32(bps*10))
	c.bumpSequence()
}

func (c *SharedConfig) CommissionBps() float64 {
	return float64(loadU32(c.data, offCommissionBpsX10)) / 10
}

func (c *SharedConfig) TradingEnabled() bool {
	return loadU32(c.data, offFlags)&flagTradingEnabled != 0
}

func (c *SharedConfig) SetTradingEnabled(enabled bool) {
	c.setFlag(flagTradingEnabled, enabled)
}

func (c *SharedConfig) ForceMode() bool {
	return loadU32(c.data, offFlags)&flagForceMode != 0
}

func (c *SharedConfig) SetForceMode(enabled bool) {
	c.setFlag(flagForceMode, enabled)
}

func (c *SharedConfig) setFlag(flag uint32, enabled bool) {
	for {
		old := loadU32(c.data, offFlags)
		var next uint32
		if enabled {
			next = old | flag
		} else {
			next = old &^ flag
		}
		if next == old {
			return
		}
		if casU32(c.data, offFlags, old, next) {
			c.bumpSequence()
			return
		}
	}
}

// PublishHeartbeat stamps the current time as a liveness signal (spec
// §4.5: "publishes monotonically increasing heartbeats").
func (c *SharedConfig) PublishHeartbeat(pid uint32, now time.Time) {
	storeU64(c.data, offHeartbeatNs, uint64(now.UnixNano()))
	storeU32(c.data, offPID, pid)
	c.bumpSequence()
}

// IsAlive reports whether the last heartbeat is within timeout of now
// (spec: "observers decide the process is dead if now - heartbeat >
// configurable timeout (default 5s)").
func (c *SharedConfig) IsAlive(now time.Time, timeout time.Duration) bool {
	hb := loadU64(c.data, offHeartbeatNs)
	return now.UnixNano()-int64(hb) <= timeout.Nanoseconds()
}

func (c *SharedConfig) Status() uint32        { return loadU32(c.data, offStatus) }
func (c *SharedConfig) SetStatus(s uint32) {
	storeU32(c.data, offStatus, s)
	c.bumpSequence()
}

// DefaultHeartbeatTimeout is spec §4.5's default liveness window.
const DefaultHeartbeatTimeout = 5 * time.Second
