package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdoElHodaky/tradSys/internal/book"
)

func TestJSONDecodeTrade(t *testing.T) {
	d := &JSONDecoder{Resolver: NewSymbolTable([]string{"BTCUSD"})}
	sink := &recordingSink{}

	err := d.Decode([]byte(`{"e":"trade","s":"BTCUSD","p":"50000.00","q":"0.5"}`), sink, 1)
	require.NoError(t, err)
	require.Len(t, sink.trades, 1)
	assert.Equal(t, uint32(500000000), sink.trades[0])
}

func TestJSONDecodeBookTicker(t *testing.T) {
	d := &JSONDecoder{Resolver: NewSymbolTable([]string{"BTCUSD"})}
	sink := &recordingSink{}

	err := d.Decode([]byte(`{"e":"bookTicker","s":"BTCUSD","b":"49990.5","a":"50010.5"}`), sink, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, sink.quotes)
}

func TestJSONDecodeDepthUpdate(t *testing.T) {
	d := &JSONDecoder{Resolver: NewSymbolTable([]string{"BTCUSD"})}
	sink := &recordingSink{}

	payload := `{"e":"depthUpdate","s":"BTCUSD","b":[["100.0","1.0"],["99.5","2.0"]],"a":[["101.0","1.5"]]}`
	err := d.Decode([]byte(payload), sink, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, sink.levels)
}

func TestJSONDecodeUnknownEventKind(t *testing.T) {
	d := &JSONDecoder{Resolver: NewSymbolTable(nil)}
	sink := &recordingSink{}
	err := d.Decode([]byte(`{"e":"aggTrade"}`), sink, 1)
	assert.ErrorIs(t, err, ErrUnknownEventKind)
}

func TestJSONDecodeMalformed(t *testing.T) {
	d := &JSONDecoder{Resolver: NewSymbolTable(nil)}
	sink := &recordingSink{}
	err := d.Decode([]byte(`not json`), sink, 1)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestJSONDecodeUnknownSymbol(t *testing.T) {
	d := &JSONDecoder{Resolver: NewSymbolTable([]string{"ETHUSD"})}
	sink := &recordingSink{}
	err := d.Decode([]byte(`{"e":"trade","s":"BTCUSD","p":"1","q":"1"}`), sink, 1)
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestJSONDecodeSnapshot(t *testing.T) {
	d := &JSONDecoder{}
	payload := `{"lastUpdateId":1027024,"bids":[["4.00000000","431.00000000"]],"asks":[["4.00000200","12.00000000"]]}`
	snap, err := d.DecodeSnapshot([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, uint64(1027024), snap.Sequence)
	require.Len(t, snap.Bids, 1)
	require.Len(t, snap.Asks, 1)
	assert.Equal(t, uint32(40000), snap.Bids[0].Price)
	assert.Equal(t, uint64(4310000), snap.Bids[0].Quantity)
}

func TestJSONDecoderDefaultFactor(t *testing.T) {
	d := &JSONDecoder{}
	assert.Equal(t, uint32(book.PriceScale), d.factor())
}
