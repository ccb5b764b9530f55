package retry

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

// DefaultFailureThreshold is the number of consecutive failures that opens
// a breaker.
const DefaultFailureThreshold = 3

// Manager owns the registry of circuit breakers, one per
// (api name, key index) pair. Breakers are created lazily on first use and
// never deleted; a stale breaker simply stays closed. Every state change is
// persisted to the configured StateStore. Construct one Manager per process
// and inject it wherever external calls are made.
type Manager struct {
	mu       sync.Mutex // guards the breakers map, not individual breakers
	breakers map[string]*breaker

	store     StateStore
	threshold int
	now       func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithFailureThreshold overrides the consecutive-failure count that opens a
// breaker.
func WithFailureThreshold(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.threshold = n
		}
	}
}

// WithClock overrides the manager's time source. Tests use this to move
// breakers past their recovery windows without sleeping.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager backed by the given store and loads any
// persisted breaker state. Persisted breakers whose recovery time has
// already passed are restored closed.
func NewManager(store StateStore, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("retry: state store is required")
	}

	m := &Manager{
		breakers:  make(map[string]*breaker),
		store:     store,
		threshold: DefaultFailureThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	snapshot, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("retry: failed to load breaker state: %w", err)
	}
	if snapshot != nil {
		now := m.now()
		for key, state := range snapshot.CircuitBreakers {
			b := &breaker{}
			b.restore(state, now)
			m.breakers[key] = b
		}
	}

	return m, nil
}

// BreakerKey builds the composite registry key for an API and key index.
// Multiple rotating API keys may exist per external API, so each
// (api, index) pair gets its own breaker.
func BreakerKey(api string, keyIndex int) string {
	return fmt.Sprintf("%s_key_%d", api, keyIndex)
}

// breakerFor returns the breaker for the given pair, creating it if needed.
func (m *Manager) breakerFor(api string, keyIndex int) *breaker {
	key := BreakerKey(api, keyIndex)

	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.breakers[key]
	if !ok {
		b = &breaker{}
		m.breakers[key] = b
	}
	return b
}

// CheckCircuit returns an *OpenCircuitError if the breaker for the pair
// disallows attempts; otherwise it is a no-op. Checking an open breaker
// whose recovery window has passed closes it and allows the call.
func (m *Manager) CheckCircuit(api string, keyIndex int) error {
	b := m.breakerFor(api, keyIndex)
	if b.canAttempt(m.now()) {
		return nil
	}

	b.mu.Lock()
	recovery := b.recoveryTime
	b.mu.Unlock()

	return &OpenCircuitError{API: api, KeyIndex: keyIndex, RecoveryTime: recovery}
}

// RecordSuccess resets the breaker for the pair and persists the registry.
func (m *Manager) RecordSuccess(api string, keyIndex int) {
	m.breakerFor(api, keyIndex).recordSuccess(m.now())
	m.persist()
}

// RecordFailure counts a failure against the breaker for the pair, opening
// it at the threshold, and persists the registry.
func (m *Manager) RecordFailure(api string, keyIndex int) {
	if opened := m.breakerFor(api, keyIndex).recordFailure(m.now(), m.threshold); opened {
		log.Printf("retry: circuit breaker %s opened", BreakerKey(api, keyIndex))
	}
	m.persist()
}

// ForceReset clears a single breaker. Operator intervention; bypasses the
// recovery window.
func (m *Manager) ForceReset(api string, keyIndex int) {
	m.breakerFor(api, keyIndex).reset(m.now())
	m.persist()
	log.Printf("retry: circuit breaker %s force-reset", BreakerKey(api, keyIndex))
}

// ForceResetAll clears every breaker in the registry.
func (m *Manager) ForceResetAll() {
	now := m.now()

	m.mu.Lock()
	for _, b := range m.breakers {
		b.reset(now)
	}
	m.mu.Unlock()

	m.persist()
	log.Printf("retry: all circuit breakers force-reset")
}

// States returns a point-in-time snapshot of every breaker, keyed by
// breaker key. Used by the status API.
func (m *Manager) States() map[string]BreakerState {
	m.mu.Lock()
	defer m.mu.Unlock()

	states := make(map[string]BreakerState, len(m.breakers))
	for key, b := range m.breakers {
		states[key] = b.snapshot()
	}
	return states
}

// Keys returns the sorted breaker keys currently in the registry.
func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.breakers))
	for key := range m.breakers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// persist writes the full registry snapshot to the state store. Save
// failures are logged, not propagated: a broken state file should not take
// the pipeline down with it.
func (m *Manager) persist() {
	snapshot := &StateSnapshot{
		LastUpdated:     m.now(),
		CircuitBreakers: m.States(),
	}
	if err := m.store.Save(snapshot); err != nil {
		log.Printf("retry: WARNING - failed to persist breaker state: %v", err)
	}
}
