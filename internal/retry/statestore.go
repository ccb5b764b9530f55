package retry

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// BreakerState is the persisted form of one circuit breaker. Timestamps are
// RFC3339 strings in the JSON encoding, null when unset.
type BreakerState struct {
	FailureCount int        `json:"failure_count"`
	IsOpen       bool       `json:"is_open"`
	LastFailure  *time.Time `json:"last_failure"`
	RecoveryTime *time.Time `json:"recovery_time"`
}

// StateSnapshot is the full on-disk document: every breaker keyed by
// "{api}_key_{index}" plus the time of the last write.
type StateSnapshot struct {
	LastUpdated     time.Time               `json:"last_updated"`
	CircuitBreakers map[string]BreakerState `json:"circuit_breakers"`
}

// StateStore persists breaker registry snapshots. The Manager saves the
// full snapshot after every state change; Load is called once at
// construction. A nil snapshot from Load means no prior state.
type StateStore interface {
	Load() (*StateSnapshot, error)
	Save(snapshot *StateSnapshot) error
}

// FileStateStore persists snapshots as a single JSON file, fully
// overwritten on each save. Two processes sharing the same file can race;
// the registry is owned by one process per deployment.
type FileStateStore struct {
	path string
}

// NewFileStateStore creates a file-backed state store at the given path.
func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

// Load reads the snapshot from disk. A missing or corrupt file is treated
// as no prior state, not a fatal error.
func (s *FileStateStore) Load() (*StateSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var snapshot StateSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		log.Printf("retry: state file %s is corrupt, starting fresh: %v", s.path, err)
		return nil, nil
	}
	return &snapshot, nil
}

// Save writes the snapshot to disk, creating parent directories as needed.
func (s *FileStateStore) Save(snapshot *StateSnapshot) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

// MemoryStateStore is an in-memory StateStore for tests and for callers
// that do not need durability.
type MemoryStateStore struct {
	mu       sync.Mutex
	snapshot *StateSnapshot
}

// NewMemoryStateStore creates an empty in-memory state store.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

// Load returns the last saved snapshot, or nil if nothing was saved.
func (s *MemoryStateStore) Load() (*StateSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot, nil
}

// Save stores a copy of the snapshot.
func (s *MemoryStateStore) Save(snapshot *StateSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := StateSnapshot{
		LastUpdated:     snapshot.LastUpdated,
		CircuitBreakers: make(map[string]BreakerState, len(snapshot.CircuitBreakers)),
	}
	for key, state := range snapshot.CircuitBreakers {
		copied.CircuitBreakers[key] = state
	}
	s.snapshot = &copied
	return nil
}
