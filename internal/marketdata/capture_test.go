package marketdata

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaptureWriteAndReplayRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.zst")

	w, err := NewCaptureWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteMessage([]byte(`{"e":"trade","s":"BTCUSD","p":"50000.00","q":"0.5"}`)))
	require.NoError(t, w.WriteMessage([]byte(`{"e":"trade","s":"BTCUSD","p":"50010.00","q":"0.25"}`)))
	require.NoError(t, w.Close())

	decoder := &JSONDecoder{Resolver: NewSymbolTable([]string{"BTCUSD"})}
	sink := &recordingSink{}
	var tick int64
	err = ReplayCapture(path, decoder, sink, func() int64 { tick++; return tick })
	require.NoError(t, err)

	require.Len(t, sink.trades, 2)
	assert.Equal(t, uint32(500000000), sink.trades[0])
	assert.Equal(t, uint32(500100000), sink.trades[1])
}

func TestReplayCaptureSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.zst")

	w, err := NewCaptureWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteMessage([]byte(`not json`)))
	require.NoError(t, w.WriteMessage([]byte(`{"e":"trade","s":"BTCUSD","p":"1.0","q":"1.0"}`)))
	require.NoError(t, w.Close())

	decoder := &JSONDecoder{Resolver: NewSymbolTable([]string{"BTCUSD"})}
	sink := &recordingSink{}
	err = ReplayCapture(path, decoder, sink, func() int64 { return 1 })
	require.NoError(t, err)
	assert.Len(t, sink.trades, 1)
}
