package relay

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// compress zstd-encodes payload. The relay path is last-resort and
// bandwidth-sensitive — it ships the whole pre-sharded payload in one
// shot rather than PT's usual packet-sized slices — so compressing
// before submission is worth the CPU cost.
func compress(payload []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("relay: new zstd writer: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("relay: zstd write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("relay: zstd close: %w", err)
	}
	return buf.Bytes(), nil
}

// decompress reverses compress, for a relay host that needs to inspect
// or forward the original payload.
func decompress(compressed []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("relay: new zstd reader: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("relay: zstd read: %w", err)
	}
	return out, nil
}
