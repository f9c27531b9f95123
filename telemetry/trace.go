package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// TickTrace is a single per-tick record in the trace stream.
type TickTrace struct {
	Tick          int64   `json:"tick"`
	Live          int     `json:"live"`
	Deaths        int     `json:"deaths"`
	FieldStatic   float64 `json:"field_static"`
	FieldDynamic  float64 `json:"field_dynamic"`
	FieldWaste    float64 `json:"field_waste"`
	AgentTotal    float64 `json:"agent_total"`
	WasteCreated  float64 `json:"waste_created"`
	MoveDestroyed float64 `json:"move_destroyed"`
}

// TraceWriter streams one JSON record per tick into a zstd-compressed
// JSONL file for offline analysis. A nil writer discards records.
type TraceWriter struct {
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewTraceWriter creates a trace stream at path, creating parent
// directories as needed.
func NewTraceWriter(path string) (*TraceWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating trace directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trace file: %w", err)
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}

	return &TraceWriter{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 64*1024),
	}, nil
}

// Write appends one record to the stream.
func (tw *TraceWriter) Write(rec TickTrace) error {
	if tw == nil {
		return nil
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := tw.w.Write(b); err != nil {
		return err
	}
	return tw.w.WriteByte('\n')
}

// Close flushes buffered records and closes the underlying file.
func (tw *TraceWriter) Close() error {
	if tw == nil {
		return nil
	}

	if err := tw.w.Flush(); err != nil {
		tw.enc.Close()
		tw.f.Close()
		return err
	}
	if err := tw.enc.Close(); err != nil {
		tw.f.Close()
		return err
	}
	return tw.f.Close()
}

// ReadTrace decodes a full trace stream back into records.
func ReadTrace(path string) ([]TickTrace, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var records []TickTrace
	for sc.Scan() {
		var rec TickTrace
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("decoding trace record: %w", err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scanning trace: %w", err)
	}

	return records, nil
}
