package shm

// MaxSharedSymbols bounds the dense symbol-tuning table (spec §4.5: "a
// dense array of up to 32 SymbolTuningConfig records").
const MaxSharedSymbols = 32

const (
	symbolNameLen   = 16
	symbolRecordLen = symbolNameLen + 8*4 // name + 4 uint64 counters/fields
)

// SharedSymbolConfigsSize is the fixed page size: header plus the
// symbol record array.
const SharedSymbolConfigsSize = 16 + MaxSharedSymbols*symbolRecordLen

const (
	symOffMagic       = 0
	symOffVersion     = 4
	symOffSequence    = 8
	symHeaderLen      = 16
)

// Per-record field offsets, relative to the record's base.
const (
	recOffName        = 0
	recOffSlippageBps = symbolNameLen + 0
	recOffMaxPosition = symbolNameLen + 8
	recOffTradeCount  = symbolNameLen + 16
	recOffWinCount    = symbolNameLen + 24
)

// SharedSymbolConfigsMagic identifies the page layout.
const SharedSymbolConfigsMagic uint32 = 0x53594d43 // "SYMC"

// SharedSymbolConfigs wraps a mapped region holding the dense,
// linear-scan symbol tuning table (spec §4.5 "Symbol lookup is linear
// scan").
type SharedSymbolConfigs struct {
	data []byte
}

func NewSharedSymbolConfigs(r *Region) *SharedSymbolConfigs {
	return &SharedSymbolConfigs{data: r.Bytes()[:SharedSymbolConfigsSize]}
}

func (s *SharedSymbolConfigs) Init() {
	storeU32(s.data, symOffMagic, SharedSymbolConfigsMagic)
	storeU32(s.data, symOffVersion, 1)
	storeU64(s.data, symOffSequence, 0)
}

func (s *SharedSymbolConfigs) Sequence() uint64 { return loadU64(s.data, symOffSequence) }
func (s *SharedSymbolConfigs) bump()             { addU64(s.data, symOffSequence, 1) }

func (s *SharedSymbolConfigs) recordOffset(slot int) int {
	return symHeaderLen + slot*symbolRecordLen
}

func (s *SharedSymbolConfigs) nameAt(slot int) string {
	base := s.recordOffset(slot)
	raw := s.data[base+recOffName : base+recOffName+symbolNameLen]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return string(raw[:n])
}

// NameAt returns the symbol name stored at slot.
func (s *SharedSymbolConfigs) NameAt(slot int) string { return s.nameAt(slot) }

func (s *SharedSymbolConfigs) setNameAt(slot int, name string) {
	base := s.recordOffset(slot)
	dst := s.data[base+recOffName : base+recOffName+symbolNameLen]
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, name)
}

// count scans for the first unused slot (an empty name marks the table
// boundary); there is no separate symbol_count field, since slots are
// zero-initialized. Len() calls it, so Len() is a linear scan too.
func (s *SharedSymbolConfigs) count() int {
	for i := 0; i < MaxSharedSymbols; i++ {
		if s.nameAt(i) == "" {
			return i
		}
	}
	return MaxSharedSymbols
}

// Len reports the number of registered symbols.
func (s *SharedSymbolConfigs) Len() int { return s.count() }

// Lookup finds a symbol's slot by linear scan (spec §4.5).
func (s *SharedSymbolConfigs) Lookup(name string) (int, bool) {
	n := s.count()
	for i := 0; i < n; i++ {
		if s.nameAt(i) == name {
			return i, true
		}
	}
	return 0, false
}

// GetOrCreate returns a symbol's slot, appending a new zeroed record and
// bumping the sequence if it didn't already exist (spec §4.5
// "get_or_create takes a name and appends if absent").
func (s *SharedSymbolConfigs) GetOrCreate(name string) (int, bool) {
	if slot, ok := s.Lookup(name); ok {
		return slot, true
	}
	n := s.count()
	if n >= MaxSharedSymbols {
		return 0, false
	}
	s.setNameAt(n, name)
	s.bump()
	return n, true
}

func (s *SharedSymbolConfigs) SlippageBps(slot int) uint64 {
	return loadU64(s.data, s.recordOffset(slot)+recOffSlippageBps)
}

func (s *SharedSymbolConfigs) SetSlippageBps(slot int, bps uint64) {
	storeU64(s.data, s.recordOffset(slot)+recOffSlippageBps, bps)
	s.bump()
}

func (s *SharedSymbolConfigs) MaxPosition(slot int) uint64 {
	return loadU64(s.data, s.recordOffset(slot)+recOffMaxPosition)
}

func (s *SharedSymbolConfigs) SetMaxPosition(slot int, v uint64) {
	storeU64(s.data, s.recordOffset(slot)+recOffMaxPosition, v)
	s.bump()
}

// TradeCount and WinCount are performance counters the tuner updates
// in-place via fetch-add; GetOrCreate never resets them on an existing
// symbol (spec: "Updates from the tuner preserve performance counters").
func (s *SharedSymbolConfigs) TradeCount(slot int) uint64 {
	return loadU64(s.data, s.recordOffset(slot)+recOffTradeCount)
}

func (s *SharedSymbolConfigs) IncrementTradeCount(slot int) {
	addU64(s.data, s.recordOffset(slot)+recOffTradeCount, 1)
}

func (s *SharedSymbolConfigs) WinCount(slot int) uint64 {
	return loadU64(s.data, s.recordOffset(slot)+recOffWinCount)
}

func (s *SharedSymbolConfigs) IncrementWinCount(slot int) {
	addU64(s.data, s.recordOffset(slot)+recOffWinCount, 1)
}
