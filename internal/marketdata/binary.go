package marketdata

import (
	"encoding/binary"

	"github.com/abdoElHodaky/tradSys/internal/book"
)

// Binary message type tags (spec §4.2, §6): Add Order, Add Order with
// MPID, Order Executed, Order Executed with Price, Order Cancel, Order
// Delete, Order Replace, Trade.
const (
	MsgAddOrder            byte = 'A'
	MsgAddOrderWithMPID     byte = 'F'
	MsgOrderExecuted        byte = 'E'
	MsgOrderExecutedPrice   byte = 'C'
	MsgOrderCancel          byte = 'X'
	MsgOrderDelete          byte = 'D'
	MsgOrderReplace         byte = 'U'
	MsgTrade                byte = 'P'
)

const symbolFieldLen = 8

// Fixed message lengths, tag byte included. Field offsets are fixed per
// type (spec §4.2); any other length for a given tag is malformed.
const (
	lenAddOrder          = 1 + 8 + 1 + 4 + symbolFieldLen + 4
	lenAddOrderWithMPID  = lenAddOrder + 4
	lenOrderExecuted     = 1 + 8 + 4
	lenOrderExecutedPrice = 1 + 8 + 4 + 1 + 4
	lenOrderCancel       = 1 + 8 + 4
	lenOrderDelete       = 1 + 8
	lenOrderReplace      = 1 + 8 + 8 + 4 + 4
	lenTrade             = 1 + 8 + symbolFieldLen + 4 + 4
)

// BinaryDecoder decodes big-endian, fixed-offset order-level feed
// messages (spec §4.2 "Binary decoder (order-level feed)").
type BinaryDecoder struct {
	Resolver SymbolResolver
}

// DecodeMessage decodes one message (tag byte included) and delivers it
// to sink. It returns false — never an error the hot path would have to
// unwind for — on any malformed message, matching spec §7's "the decoder
// returns false" protocol-error contract.
func (d *BinaryDecoder) DecodeMessage(data []byte, sink EventSink, now int64) bool {
	if len(data) == 0 {
		return false
	}
	switch data[0] {
	case MsgAddOrder:
		return d.decodeAddOrder(data, lenAddOrder, sink, now)
	case MsgAddOrderWithMPID:
		return d.decodeAddOrder(data, lenAddOrderWithMPID, sink, now)
	case MsgOrderExecuted:
		if len(data) != lenOrderExecuted {
			return false
		}
		orderID := binary.BigEndian.Uint64(data[1:9])
		qty := binary.BigEndian.Uint32(data[9:13])
		sink.OnOrderExecute(orderID, qty, now)
		return true
	case MsgOrderExecutedPrice:
		if len(data) != lenOrderExecutedPrice {
			return false
		}
		orderID := binary.BigEndian.Uint64(data[1:9])
		qty := binary.BigEndian.Uint32(data[9:13])
		sink.OnOrderExecute(orderID, qty, now)
		return true
	case MsgOrderCancel:
		if len(data) != lenOrderCancel {
			return false
		}
		orderID := binary.BigEndian.Uint64(data[1:9])
		reduceBy := binary.BigEndian.Uint32(data[9:13])
		sink.OnOrderReduce(orderID, reduceBy, now)
		return true
	case MsgOrderDelete:
		if len(data) != lenOrderDelete {
			return false
		}
		orderID := binary.BigEndian.Uint64(data[1:9])
		sink.OnOrderDelete(orderID, now)
		return true
	case MsgOrderReplace:
		if len(data) != lenOrderReplace {
			return false
		}
		oldID := binary.BigEndian.Uint64(data[1:9])
		newID := binary.BigEndian.Uint64(data[9:17])
		qty := binary.BigEndian.Uint32(data[17:21])
		price := binary.BigEndian.Uint32(data[21:25])
		// The replace message does not carry the original order's side
		// (spec §9 open question); the sink resolves it from its own
		// order index before deleting.
		sink.OnOrderReplace(oldID, newID, qty, price, now)
		return true
	case MsgTrade:
		if len(data) != lenTrade {
			return false
		}
		symRaw := data[9 : 9+symbolFieldLen]
		sym, ok := d.Resolver.Resolve(symRaw)
		if !ok {
			return false
		}
		price := binary.BigEndian.Uint32(data[17:21])
		qty := binary.BigEndian.Uint32(data[21:25])
		sink.OnTrade(sym, price, qty, now)
		return true
	default:
		return false
	}
}

func (d *BinaryDecoder) decodeAddOrder(data []byte, wantLen int, sink EventSink, now int64) bool {
	if len(data) != wantLen {
		return false
	}
	orderID := binary.BigEndian.Uint64(data[1:9])
	var side book.Side
	switch data[9] {
	case 'B':
		side = book.Buy
	case 'S':
		side = book.Sell
	default:
		return false
	}
	qty := binary.BigEndian.Uint32(data[10:14])
	symRaw := data[14 : 14+symbolFieldLen]
	sym, ok := d.Resolver.Resolve(symRaw)
	if !ok {
		return false
	}
	priceOff := 14 + symbolFieldLen
	price := binary.BigEndian.Uint32(data[priceOff : priceOff+4])
	sink.OnOrderAdd(orderID, sym, side, price, qty, now)
	return true
}

// packetHeaderLen is the transport-layer UDP datagram header: a 10-byte
// session id, an 8-byte sequence number, and a 2-byte message count
// (spec §4.2).
const packetHeaderLen = 10 + 8 + 2

// PacketHeader describes one multicast datagram framing multiple
// messages.
type PacketHeader struct {
	SessionID [10]byte
	Sequence  uint64
	Count     uint16
}

// DecodePacket reads the 20-byte header then iterates Count
// length-prefixed messages, delivering each to sink via DecodeMessage.
// It returns the number of messages successfully decoded and false if
// the framing itself (header, or any length-prefix) is malformed.
func (d *BinaryDecoder) DecodePacket(data []byte, sink EventSink, now int64) (int, bool) {
	if len(data) < packetHeaderLen {
		return 0, false
	}
	var hdr PacketHeader
	copy(hdr.SessionID[:], data[0:10])
	hdr.Sequence = binary.BigEndian.Uint64(data[10:18])
	hdr.Count = binary.BigEndian.Uint16(data[18:20])

	pos := packetHeaderLen
	decoded := 0
	for i := uint16(0); i < hdr.Count; i++ {
		if pos+2 > len(data) {
			return decoded, false
		}
		msgLen := int(binary.BigEndian.Uint16(data[pos : pos+2]))
		pos += 2
		if pos+msgLen > len(data) {
			return decoded, false
		}
		if d.DecodeMessage(data[pos:pos+msgLen], sink, now) {
			decoded++
		}
		pos += msgLen
	}
	return decoded, true
}
