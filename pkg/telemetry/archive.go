package telemetry

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// WriteArchive writes the buffered history as zstd-compressed JSONL, one
// record per line followed by one line per fallback event. Suited for
// shipping session history off-device without ballooning payload size.
func (r *Recorder) WriteArchive(w io.Writer) error {
	enc, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}

	for _, rec := range r.History() {
		line, err := json.Marshal(rec)
		if err != nil {
			enc.Close()
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := enc.Write(append(line, '\n')); err != nil {
			enc.Close()
			return fmt.Errorf("write record: %w", err)
		}
	}
	for _, fb := range r.Fallbacks() {
		line, err := json.Marshal(fb)
		if err != nil {
			enc.Close()
			return fmt.Errorf("marshal fallback event: %w", err)
		}
		if _, err := enc.Write(append(line, '\n')); err != nil {
			enc.Close()
			return fmt.Errorf("write fallback event: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	return nil
}
