// Package store holds the client-local data slots mutated by ProcessData
// commands. It implements the state-mutation side of the engine's capability
// surface: full replace, shallow merge, and clear-on-nil per data kind.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/routewire/routewire/pkg/logger"
)

// Known data kinds mirror what the server is allowed to target. Hosts can
// register more with RegisterKind.
var defaultKinds = []string{"user", "userList", "settings", "cache"}

// UnknownKindFunc is called when the server targets an unregistered kind.
// The default logs a warning; mutation is a no-op either way so newer
// servers cannot crash older clients.
type UnknownKindFunc func(dataType string)

// Store is a mutex-guarded map of data kind to value, optionally persisted
// as a JSON snapshot.
type Store struct {
	mu       sync.RWMutex
	data     map[string]interface{}
	kinds    map[string]bool
	unknown  UnknownKindFunc
	snapshot string // path, empty disables persistence
}

// Option configures a Store.
type Option func(*Store)

// WithSnapshot persists the store to path on every mutation using a
// temp-file+rename write, and loads it on startup.
func WithSnapshot(path string) Option {
	return func(s *Store) { s.snapshot = path }
}

// WithUnknownKindFunc replaces the unknown-kind hook.
func WithUnknownKindFunc(fn UnknownKindFunc) Option {
	return func(s *Store) { s.unknown = fn }
}

// New creates a store with the default kinds registered.
func New(opts ...Option) *Store {
	s := &Store{
		data:  map[string]interface{}{},
		kinds: map[string]bool{},
		unknown: func(dataType string) {
			logger.WarnCF("store", "unknown data type, mutation skipped", map[string]interface{}{
				"data_type": dataType,
			})
		},
	}
	for _, k := range defaultKinds {
		s.kinds[k] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.snapshot != "" {
		if err := s.load(); err != nil {
			logger.WarnCF("store", "snapshot load skipped", map[string]interface{}{
				"path":  s.snapshot,
				"error": err.Error(),
			})
		}
	}
	return s
}

// RegisterKind allows mutations targeting dataType.
func (s *Store) RegisterKind(dataType string) {
	s.mu.Lock()
	s.kinds[dataType] = true
	s.mu.Unlock()
}

// MutateState applies one ProcessData mutation. A nil data clears the slot;
// merge shallow-merges object values; otherwise the slot is replaced.
// Unknown kinds invoke the hook and succeed as a no-op.
func (s *Store) MutateState(dataType string, data interface{}, merge bool) error {
	s.mu.Lock()

	if !s.kinds[dataType] {
		hook := s.unknown
		s.mu.Unlock()
		if hook != nil {
			hook(dataType)
		}
		return nil
	}

	switch {
	case data == nil:
		delete(s.data, dataType)
	case merge:
		s.data[dataType] = shallowMerge(s.data[dataType], data)
	default:
		s.data[dataType] = data
	}

	var err error
	if s.snapshot != "" {
		err = s.saveLocked()
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("persist store snapshot: %w", err)
	}
	return nil
}

// Get returns the current value for dataType, or nil.
func (s *Store) Get(dataType string) interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[dataType]
}

// shallowMerge merges src's top-level keys over dst when both are objects.
// Any other combination degrades to a replace.
func shallowMerge(dst, src interface{}) interface{} {
	dstMap, dstOK := dst.(map[string]interface{})
	srcMap, srcOK := src.(map[string]interface{})
	if !dstOK || !srcOK {
		return src
	}
	merged := make(map[string]interface{}, len(dstMap)+len(srcMap))
	for k, v := range dstMap {
		merged[k] = v
	}
	for k, v := range srcMap {
		merged[k] = v
	}
	return merged
}

type snapshotFile struct {
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
}

// saveLocked writes the snapshot with temp file + rename so the file is
// never left corrupted. Must be called with the lock held.
func (s *Store) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.snapshot), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	payload, err := json.MarshalIndent(snapshotFile{Data: s.data, Timestamp: time.Now()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tempFile := s.snapshot + ".tmp"
	if err := os.WriteFile(tempFile, payload, 0644); err != nil {
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := os.Rename(tempFile, s.snapshot); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	raw, err := os.ReadFile(s.snapshot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read snapshot %s: %w", s.snapshot, err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("unmarshal snapshot %s: %w", s.snapshot, err)
	}
	if snap.Data != nil {
		s.data = snap.Data
	}
	return nil
}
