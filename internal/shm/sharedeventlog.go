package shm

// EventLogSlots is the ring's fixed slot count (spec §4.5: "A ring
// buffer of 16,384 TunerEvent slots").
const EventLogSlots = 16384

// EventSlotSize is the fixed per-event size in bytes (spec §4.5: "256
// bytes each").
const EventSlotSize = 256

// SharedEventLogSize is the fixed page size: header plus the slot array.
const SharedEventLogSize = evtHeaderLen + EventLogSlots*EventSlotSize

const (
	evtOffMagic    = 0
	evtOffVersion  = 4
	evtOffWritePos = 8
	evtHeaderLen   = 16
)

const SharedEventLogMagic uint32 = 0x45564c47 // "EVLG"

// Per-slot field offsets, relative to the slot's base.
const (
	slotOffSequence = 0
	slotOffKind     = 8
	slotOffSymbol   = 12
	slotOffValue1   = 16
	slotOffValue2   = 24
	slotOffTimestamp = 32
	slotPayloadOff  = 40
	slotPayloadLen  = EventSlotSize - slotPayloadOff
)

// TunerEvent is one decoded event-log record.
type TunerEvent struct {
	Sequence  uint64
	Kind      uint32
	Symbol    uint32
	Value1    int64
	Value2    int64
	Timestamp int64
	Payload   []byte
}

// SharedEventLog wraps a mapped region holding the lock-free,
// multi-writer event ring (spec §4.5 "SharedEventLog").
type SharedEventLog struct {
	data []byte
}

func NewSharedEventLog(r *Region) *SharedEventLog {
	return &SharedEventLog{data: r.Bytes()[:SharedEventLogSize]}
}

func (l *SharedEventLog) Init() {
	storeU32(l.data, evtOffMagic, SharedEventLogMagic)
	storeU32(l.data, evtOffVersion, 1)
	storeU64(l.data, evtOffWritePos, 0)
}

// WritePos returns the next slot index that will be claimed.
func (l *SharedEventLog) WritePos() uint64 { return loadU64(l.data, evtOffWritePos) }

func (l *SharedEventLog) slotOffset(index uint64) int {
	return evtHeaderLen + int(index%EventLogSlots)*EventSlotSize
}

// Write reserves the next slot via fetch-add and publishes the event.
// Supports multiple concurrent writers (spec §4.5 "Multi-writer
// correctness"): the sequence is reserved first, the body written
// after, and readers re-check the stored sequence before trusting what
// they read.
func (l *SharedEventLog) Write(kind, symbol uint32, value1, value2, timestamp int64, payload []byte) uint64 {
	seq := addU64(l.data, evtOffWritePos, 1) - 1
	base := l.slotOffset(seq)

	storeU32(l.data, base+slotOffKind, kind)
	storeU32(l.data, base+slotOffSymbol, symbol)
	storeI64(l.data, base+slotOffValue1, value1)
	storeI64(l.data, base+slotOffValue2, value2)
	storeI64(l.data, base+slotOffTimestamp, timestamp)
	n := copy(l.data[base+slotPayloadOff:base+slotPayloadOff+slotPayloadLen], payload)
	for i := n; i < slotPayloadLen; i++ {
		l.data[base+slotPayloadOff+i] = 0
	}
	// The sequence is published last so a reader that observes it also
	// observes a fully written body (spec: "event bodies are written
	// after the sequence is reserved but before the read fence").
	storeU64(l.data, base+slotOffSequence, seq+1)
	return seq
}

// Read returns the event at index, validating it with the per-slot
// sequence re-check (spec: "reader reads an event and re-checks that
// the stored sequence equals the index it computed; on mismatch, the
// slot was just overwritten and the event is discarded").
func (l *SharedEventLog) Read(index uint64) (TunerEvent, bool) {
	base := l.slotOffset(index)
	stored := loadU64(l.data, base+slotOffSequence)

	ev := TunerEvent{
		Sequence:  stored,
		Kind:      loadU32(l.data, base+slotOffKind),
		Symbol:    loadU32(l.data, base+slotOffSymbol),
		Value1:    loadI64(l.data, base+slotOffValue1),
		Value2:    loadI64(l.data, base+slotOffValue2),
		Timestamp: loadI64(l.data, base+slotOffTimestamp),
	}
	ev.Payload = append([]byte(nil), l.data[base+slotPayloadOff:base+slotPayloadOff+slotPayloadLen]...)

	if stored != index+1 {
		return TunerEvent{}, false
	}
	return ev, true
}

// ReadRecent scans backwards from the current write position to collect
// up to n most-recent, still-valid events (spec: "Readers may scan
// backwards from write_pos to obtain the most recent N events").
func (l *SharedEventLog) ReadRecent(n int) []TunerEvent {
	writePos := l.WritePos()
	cursor := writePos
	// If the window has already rolled past the ring's capacity, clamp
	// to the oldest still-live slot (spec: "the reader must re-sync by
	// clamping to write_pos - 16384").
	if writePos > EventLogSlots {
		cursor = writePos - EventLogSlots
	} else {
		cursor = 0
	}

	start := writePos
	if uint64(n) < writePos-cursor {
		start = writePos - uint64(n)
	} else {
		start = cursor
	}

	out := make([]TunerEvent, 0, n)
	for i := writePos; i > start; i-- {
		ev, ok := l.Read(i - 1)
		if !ok {
			continue
		}
		out = append(out, ev)
	}
	return out
}
