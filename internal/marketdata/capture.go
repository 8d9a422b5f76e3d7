package marketdata

import (
	"bufio"
	"os"

	"github.com/klauspost/compress/zstd"
)

// CaptureWriter records raw JSON feed lines to disk, zstd-compressed, for
// later replay during strategy research. One line per message, matching
// the newline-delimited shape the venue's own JSON feed already uses.
type CaptureWriter struct {
	file *os.File
	zw   *zstd.Encoder
	bw   *bufio.Writer
}

// NewCaptureWriter opens filename for writing. A ".zst"/".zstd" suffix
// is conventional but not required — the writer always zstd-compresses.
func NewCaptureWriter(filename string) (*CaptureWriter, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &CaptureWriter{file: f, zw: zw, bw: bufio.NewWriter(zw)}, nil
}

// WriteMessage appends one raw JSON feed message.
func (c *CaptureWriter) WriteMessage(line []byte) error {
	if _, err := c.bw.Write(line); err != nil {
		return err
	}
	return c.bw.WriteByte('\n')
}

// Close flushes and closes the underlying writer and file.
func (c *CaptureWriter) Close() error {
	if err := c.bw.Flush(); err != nil {
		c.zw.Close()
		c.file.Close()
		return err
	}
	if err := c.zw.Close(); err != nil {
		c.file.Close()
		return err
	}
	return c.file.Close()
}

// ReplayCapture decodes a zstd-compressed capture file written by
// CaptureWriter and delivers every message to sink through decoder, in
// file order. now is called once per line so a caller can supply either
// wall-clock replay timing or the original capture timestamps.
func ReplayCapture(filename string, decoder *JSONDecoder, sink EventSink, now func() int64) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer zr.Close()

	scanner := bufio.NewScanner(zr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := decoder.Decode(line, sink, now()); err != nil {
			continue
		}
	}
	return scanner.Err()
}
