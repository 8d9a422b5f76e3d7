package marketdata

import (
	"errors"
	"sync/atomic"
)

// ErrRingFull is returned by Push when the consumer hasn't drained fast
// enough. Feed ingest counts these as drops rather than blocking the
// producer (spec §4.2: "the ring never blocks the network read thread").
var ErrRingFull = errors.New("marketdata: ring buffer full")

// maxPacketLen bounds one datagram; 1500 covers a standard Ethernet MTU
// with room to spare for the multicast feeds this ring is sized for.
const maxPacketLen = 1500

// cacheLinePad is sized to push producer- and consumer-owned counters
// onto separate cache lines so the hot producer and consumer threads
// never bounce the same line (spec §5 "false sharing").
type cacheLinePad [64 - 8]byte

// RawPacket is one fixed-size slot: a length-prefixed byte buffer, copied
// in and out so the ring never holds a slice header pointing at caller
// memory that might be reused.
type RawPacket struct {
	Length uint16
	Data   [maxPacketLen]byte
}

// PacketRing is a single-producer/single-consumer lock-free ring buffer
// of RawPacket slots, grounded on the retrieval pack's femto_go events
// ring (other_examples, "events_ring.go") but diverging from its
// overwrite-on-full behavior: feed packets are not safe to silently drop
// by overwriting unread state, so a full ring rejects the write instead
// (spec §4.2 ingest must not corrupt book reconstruction by losing track
// of which packets were actually delivered).
type PacketRing struct {
	slots []RawPacket
	mask  uint64

	_ cacheLinePad
	writePos uint64
	_        cacheLinePad
	readPos uint64
	_       cacheLinePad
}

// NewPacketRing builds a ring with capacity rounded up to the next power
// of two.
func NewPacketRing(capacity int) *PacketRing {
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &PacketRing{
		slots: make([]RawPacket, n),
		mask:  uint64(n - 1),
	}
}

// Push copies data into the next free slot. Returns ErrRingFull if the
// consumer has not caught up. Called only from the producer goroutine.
func (r *PacketRing) Push(data []byte) error {
	if len(data) > maxPacketLen {
		return ErrRingFull
	}
	write := atomic.LoadUint64(&r.writePos)
	read := atomic.LoadUint64(&r.readPos)
	if write-read >= uint64(len(r.slots)) {
		return ErrRingFull
	}

	slot := &r.slots[write&r.mask]
	slot.Length = uint16(copy(slot.Data[:], data))

	atomic.StoreUint64(&r.writePos, write+1)
	return nil
}

// Pop copies the next packet's bytes into dst, returning the slice of dst
// actually written and true, or false if the ring is empty. Called only
// from the consumer goroutine.
func (r *PacketRing) Pop(dst []byte) ([]byte, bool) {
	read := atomic.LoadUint64(&r.readPos)
	write := atomic.LoadUint64(&r.writePos)
	if read == write {
		return nil, false
	}

	slot := &r.slots[read&r.mask]
	n := copy(dst, slot.Data[:slot.Length])

	atomic.StoreUint64(&r.readPos, read+1)
	return dst[:n], true
}

// Len reports the number of packets currently buffered. Safe to call
// from either goroutine; the result may be stale by the time it's read.
func (r *PacketRing) Len() int {
	write := atomic.LoadUint64(&r.writePos)
	read := atomic.LoadUint64(&r.readPos)
	return int(write - read)
}

// Cap reports the ring's fixed capacity.
func (r *PacketRing) Cap() int {
	return len(r.slots)
}
