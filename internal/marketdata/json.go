package marketdata

import (
	"errors"
	"strconv"

	"github.com/valyala/fastjson"

	"github.com/abdoElHodaky/tradSys/internal/book"
)

// ErrUnknownEventKind is returned when a JSON message's "e" field (or
// absence of one, for a depth snapshot) doesn't match any supported
// event kind.
var ErrUnknownEventKind = errors.New("marketdata: unknown json event kind")

// JSONDecoder parses the three websocket event kinds spec §4.2 names —
// trade, bookTicker, depthUpdate — plus depth snapshots, using
// valyala/fastjson instead of encoding/json so the hot path never builds
// a Go struct via reflection (spec: "not a general JSON parser ...
// allocation-free on the hot path").
type JSONDecoder struct {
	Resolver SymbolResolver
	// DecimalFactor scales a venue's decimal price/quantity strings to
	// this system's fixed-point representation (spec §4.2: "typically
	// 10,000").
	DecimalFactor uint32

	pool fastjson.ParserPool
}

func (d *JSONDecoder) factor() uint32 {
	if d.DecimalFactor == 0 {
		return book.PriceScale
	}
	return d.DecimalFactor
}

// Decode parses one JSON message and delivers it to sink.
func (d *JSONDecoder) Decode(data []byte, sink EventSink, now int64) error {
	parser := d.pool.Get()
	defer d.pool.Put(parser)

	v, err := parser.ParseBytes(data)
	if err != nil {
		return ErrMalformedMessage
	}

	kind := string(v.GetStringBytes("e"))
	switch kind {
	case "trade":
		return d.decodeTrade(v, sink, now)
	case "bookTicker":
		return d.decodeBookTicker(v, sink, now)
	case "depthUpdate":
		return d.decodeDepthUpdate(v, sink, now)
	default:
		return ErrUnknownEventKind
	}
}

func (d *JSONDecoder) resolve(v *fastjson.Value, field string) (uint32, bool) {
	raw := v.GetStringBytes(field)
	if raw == nil {
		return 0, false
	}
	return d.Resolver.Resolve(raw)
}

func (d *JSONDecoder) decodeTrade(v *fastjson.Value, sink EventSink, now int64) error {
	sym, ok := d.resolve(v, "s")
	if !ok {
		return ErrMalformedMessage
	}
	price, ok1 := scaledFromField(v, "p", d.factor())
	qty, ok2 := scaledFromField(v, "q", d.factor())
	if !ok1 || !ok2 {
		return ErrMalformedMessage
	}
	sink.OnTrade(sym, price, qty, now)
	return nil
}

func (d *JSONDecoder) decodeBookTicker(v *fastjson.Value, sink EventSink, now int64) error {
	sym, ok := d.resolve(v, "s")
	if !ok {
		return ErrMalformedMessage
	}
	bid, ok1 := scaledFromField(v, "b", d.factor())
	ask, ok2 := scaledFromField(v, "a", d.factor())
	if !ok1 || !ok2 {
		return ErrMalformedMessage
	}
	sink.OnQuote(sym, bid, ask, now)
	return nil
}

func (d *JSONDecoder) decodeDepthUpdate(v *fastjson.Value, sink EventSink, now int64) error {
	sym, ok := d.resolve(v, "s")
	if !ok {
		return ErrMalformedMessage
	}
	if err := d.applyLevels(v, "b", sym, book.Buy, sink, now); err != nil {
		return err
	}
	if err := d.applyLevels(v, "a", sym, book.Sell, sink, now); err != nil {
		return err
	}
	return nil
}

func (d *JSONDecoder) applyLevels(v *fastjson.Value, field string, symbol uint32, side book.Side, sink EventSink, now int64) error {
	arr := v.GetArray(field)
	for _, pair := range arr {
		levels := pair.GetArray()
		if len(levels) != 2 {
			return ErrMalformedMessage
		}
		price, ok1 := scaledFromValue(levels[0], d.factor())
		qty, ok2 := scaledFromValue(levels[1], d.factor())
		if !ok1 || !ok2 {
			return ErrMalformedMessage
		}
		sink.OnBookLevel(symbol, side, price, qty, now)
	}
	return nil
}

// Snapshot is the depth-snapshot shape spec §4.2 describes: bids/asks
// arrays of [price, size] plus a lastUpdateId used as the sync sequence.
type Snapshot struct {
	Sequence uint64
	Bids     []book.PriceLevelView
	Asks     []book.PriceLevelView
}

// DecodeSnapshot parses a depth-snapshot payload. The symbol is supplied
// by the caller since snapshot payloads are typically fetched per-symbol
// over REST rather than carrying their own symbol field.
func (d *JSONDecoder) DecodeSnapshot(data []byte) (Snapshot, error) {
	parser := d.pool.Get()
	defer d.pool.Put(parser)

	v, err := parser.ParseBytes(data)
	if err != nil {
		return Snapshot{}, ErrMalformedMessage
	}

	snap := Snapshot{Sequence: v.GetUint64("lastUpdateId")}
	snap.Bids = d.snapshotLevels(v, "bids", d.factor())
	snap.Asks = d.snapshotLevels(v, "asks", d.factor())
	return snap, nil
}

func (d *JSONDecoder) snapshotLevels(v *fastjson.Value, field string, factor uint32) []book.PriceLevelView {
	arr := v.GetArray(field)
	out := make([]book.PriceLevelView, 0, len(arr))
	for _, pair := range arr {
		levels := pair.GetArray()
		if len(levels) != 2 {
			continue
		}
		price, ok1 := scaledFromValue(levels[0], factor)
		qty, ok2 := scaledFromValue(levels[1], factor)
		if !ok1 || !ok2 {
			continue
		}
		out = append(out, book.PriceLevelView{Price: price, Quantity: uint64(qty)})
	}
	return out
}

func scaledFromField(v *fastjson.Value, field string, factor uint32) (uint32, bool) {
	return scaledFromValue(v.Get(field), factor)
}

// scaledFromValue accepts either a JSON string (venue feeds send decimal
// prices as strings to avoid float precision loss) or a JSON number, and
// scales it to this system's fixed-point integer representation.
func scaledFromValue(v *fastjson.Value, factor uint32) (uint32, bool) {
	if v == nil {
		return 0, false
	}
	var f float64
	switch v.Type() {
	case fastjson.TypeString:
		raw, err := v.StringBytes()
		if err != nil {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case fastjson.TypeNumber:
		f = v.GetFloat64()
	default:
		return 0, false
	}
	return uint32(f*float64(factor) + 0.5), true
}
