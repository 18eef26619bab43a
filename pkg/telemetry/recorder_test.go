package telemetry

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
)

func rec(id string, status Status, durMs int64) ExecutionRecord {
	return ExecutionRecord{
		ExecutionID: id,
		CommandType: "NavigateTo",
		Status:      status,
		StartedAt:   time.Now(),
		DurationMs:  durMs,
	}
}

func TestStatsEmptyBuffer(t *testing.T) {
	r := NewRecorder(10, nil)

	stats := r.Stats()
	if stats.Total != 0 {
		t.Fatalf("got total %d, want 0", stats.Total)
	}
	if stats.SuccessRate != "0%" {
		t.Fatalf("got rate %q, want %q", stats.SuccessRate, "0%")
	}
	if stats.AvgDurationMs != 0 || stats.MaxDurationMs != 0 {
		t.Fatalf("empty buffer durations should be zero: %+v", stats)
	}
}

func TestStatsAggregation(t *testing.T) {
	r := NewRecorder(10, nil)
	r.Record(rec("a", StatusSuccess, 10))
	r.Record(rec("b", StatusSuccess, 30))
	r.Record(rec("c", StatusError, 20))

	stats := r.Stats()
	if stats.Total != 3 || stats.Succeeded != 2 || stats.Failed != 1 {
		t.Fatalf("bad counts: %+v", stats)
	}
	if stats.SuccessRate != "66.7%" {
		t.Fatalf("got rate %q, want 66.7%%", stats.SuccessRate)
	}
	if stats.AvgDurationMs != 20 {
		t.Fatalf("got avg %v, want 20", stats.AvgDurationMs)
	}
	if stats.MaxDurationMs != 30 {
		t.Fatalf("got max %v, want 30", stats.MaxDurationMs)
	}
	if stats.ByKind["NavigateTo"] != 3 {
		t.Fatalf("bad kind counts: %v", stats.ByKind)
	}
}

func TestRingBufferEviction(t *testing.T) {
	r := NewRecorder(3, nil)
	for i := 0; i < 5; i++ {
		r.Record(rec(fmt.Sprintf("r%d", i), StatusSuccess, int64(i)))
	}

	hist := r.History()
	if len(hist) != 3 {
		t.Fatalf("got %d records, want 3", len(hist))
	}
	if hist[0].ExecutionID != "r2" || hist[2].ExecutionID != "r4" {
		t.Fatalf("wrong eviction order: %+v", hist)
	}
}

func TestFallbackEvents(t *testing.T) {
	r := NewRecorder(10, nil)
	r.RecordFallback(300, 200)

	events := r.Fallbacks()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].OriginalVersion != 300 || events[0].FallbackVersion != 200 {
		t.Fatalf("wrong event: %+v", events[0])
	}
	if r.Stats().Fallbacks != 1 {
		t.Fatalf("stats should count fallbacks: %+v", r.Stats())
	}
}

func TestExportHistory(t *testing.T) {
	r := NewRecorder(10, nil)
	r.Record(rec("a", StatusSuccess, 5))

	data, err := r.ExportHistory()
	if err != nil {
		t.Fatalf("ExportHistory: %v", err)
	}

	var snap struct {
		Records []ExecutionRecord `json:"records"`
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if len(snap.Records) != 1 || snap.Records[0].ExecutionID != "a" {
		t.Fatalf("snapshot lost records: %+v", snap)
	}
}

type captureSink struct {
	mu   sync.Mutex
	got  []ExecutionRecord
	fail bool
}

func (s *captureSink) Submit(_ context.Context, rec ExecutionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return fmt.Errorf("sink down")
	}
	s.got = append(s.got, rec)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func TestSinkDelivery(t *testing.T) {
	sink := &captureSink{}
	r := NewRecorder(10, sink)
	r.Record(rec("a", StatusSuccess, 1))
	r.Record(rec("b", StatusError, 2))
	r.Close()

	if sink.count() != 2 {
		t.Fatalf("got %d delivered records, want 2", sink.count())
	}
}

func TestSinkFailureDoesNotAffectBuffer(t *testing.T) {
	sink := &captureSink{fail: true}
	r := NewRecorder(10, sink)
	r.Record(rec("a", StatusSuccess, 1))
	r.Close()

	if len(r.History()) != 1 {
		t.Fatal("record should stay buffered when sink fails")
	}
}

func TestWriteArchiveRoundTrip(t *testing.T) {
	r := NewRecorder(10, nil)
	r.Record(rec("a", StatusSuccess, 5))
	r.Record(rec("b", StatusError, 7))

	var buf bytes.Buffer
	if err := r.WriteArchive(&buf); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	dec, err := zstd.NewReader(&buf)
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer dec.Close()

	var lines []string
	scanner := bufio.NewScanner(dec)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	var first ExecutionRecord
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("decode line: %v", err)
	}
	if first.ExecutionID != "a" {
		t.Fatalf("got %q, want a", first.ExecutionID)
	}
}
