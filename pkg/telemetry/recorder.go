package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/routewire/routewire/pkg/logger"
)

const (
	// DefaultCapacity bounds the in-memory execution history.
	DefaultCapacity = 100

	// Buffer sink submissions so recording never blocks on a slow sink.
	sinkQueueSize = 64

	sinkSubmitTimeout = 5 * time.Second
)

// Sink receives records for external delivery. Submissions are fire-and-
// forget: errors are logged locally and dropped.
type Sink interface {
	Submit(ctx context.Context, rec ExecutionRecord) error
}

// Recorder owns the bounded execution history. Safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	records   []ExecutionRecord // ring storage
	head      int               // next write position
	count     int
	fallbacks []FallbackEvent

	queue chan ExecutionRecord
	done  chan struct{}
}

// NewRecorder creates a recorder holding up to capacity records (oldest are
// evicted on overflow). capacity <= 0 means DefaultCapacity. sink may be
// nil.
func NewRecorder(capacity int, sink Sink) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	r := &Recorder{
		records: make([]ExecutionRecord, capacity),
		done:    make(chan struct{}),
	}
	if sink != nil {
		r.queue = make(chan ExecutionRecord, sinkQueueSize)
		go r.drain(sink)
	}
	return r
}

// Record appends a finalized execution record, evicting the oldest entry
// when the buffer is full, and queues it for the sink if one is configured.
func (r *Recorder) Record(rec ExecutionRecord) {
	r.mu.Lock()
	r.records[r.head] = rec
	r.head = (r.head + 1) % len(r.records)
	if r.count < len(r.records) {
		r.count++
	}
	r.mu.Unlock()

	if r.queue == nil {
		return
	}
	select {
	case r.queue <- rec:
	default:
		// Queue full: drop the record rather than block execution.
		logger.WarnCF("telemetry", "sink queue full, record dropped", map[string]interface{}{
			"execution_id": rec.ExecutionID,
		})
	}
}

// RecordFallback notes that a versioned envelope degraded from
// originalVersion to fallbackVersion.
func (r *Recorder) RecordFallback(originalVersion, fallbackVersion int) {
	r.mu.Lock()
	r.fallbacks = append(r.fallbacks, FallbackEvent{
		OriginalVersion: originalVersion,
		FallbackVersion: fallbackVersion,
		At:              time.Now(),
	})
	r.mu.Unlock()
}

// History returns the buffered records, oldest first.
func (r *Recorder) History() []ExecutionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.historyLocked()
}

func (r *Recorder) historyLocked() []ExecutionRecord {
	out := make([]ExecutionRecord, 0, r.count)
	start := r.head - r.count
	if start < 0 {
		start += len(r.records)
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.records[(start+i)%len(r.records)])
	}
	return out
}

// Fallbacks returns the recorded fallback events, oldest first.
func (r *Recorder) Fallbacks() []FallbackEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]FallbackEvent, len(r.fallbacks))
	copy(out, r.fallbacks)
	return out
}

// Stats aggregates the current buffer. Safe on an empty buffer: the rate is
// "0%" and durations are zero.
func (r *Recorder) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{
		SuccessRate: "0%",
		ByKind:      map[string]int{},
		Fallbacks:   len(r.fallbacks),
	}

	var durTotal int64
	var durCount int
	for _, rec := range r.historyLocked() {
		stats.Total++
		if rec.Status == StatusSuccess {
			stats.Succeeded++
		} else {
			stats.Failed++
		}
		stats.ByKind[rec.CommandType]++
		if rec.DurationMs >= 0 {
			durTotal += rec.DurationMs
			durCount++
			if rec.DurationMs > stats.MaxDurationMs {
				stats.MaxDurationMs = rec.DurationMs
			}
		}
	}

	if stats.Total > 0 {
		stats.SuccessRate = fmt.Sprintf("%.1f%%", float64(stats.Succeeded)/float64(stats.Total)*100)
	}
	if durCount > 0 {
		stats.AvgDurationMs = float64(durTotal) / float64(durCount)
	}
	return stats
}

// snapshot is the serialized form produced by ExportHistory.
type snapshot struct {
	ExportedAt time.Time         `json:"exported_at"`
	Records    []ExecutionRecord `json:"records"`
	Fallbacks  []FallbackEvent   `json:"fallbacks,omitempty"`
}

// ExportHistory serializes the current buffer and fallback events as JSON.
func (r *Recorder) ExportHistory() ([]byte, error) {
	r.mu.Lock()
	snap := snapshot{
		ExportedAt: time.Now(),
		Records:    r.historyLocked(),
		Fallbacks:  append([]FallbackEvent(nil), r.fallbacks...),
	}
	r.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal telemetry snapshot: %w", err)
	}
	return data, nil
}

// Close stops the sink drain loop. Records already queued are delivered.
func (r *Recorder) Close() {
	if r.queue == nil {
		return
	}
	close(r.queue)
	<-r.done
}

func (r *Recorder) drain(sink Sink) {
	defer close(r.done)
	for rec := range r.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sinkSubmitTimeout)
		if err := sink.Submit(ctx, rec); err != nil {
			logger.WarnCF("telemetry", "sink submit failed", map[string]interface{}{
				"execution_id": rec.ExecutionID,
				"error":        err.Error(),
			})
		}
		cancel()
	}
}
