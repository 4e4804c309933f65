// Package session drives the dashboard analysis pipeline and its
// persisted per-session state.
package session

import (
	"encoding/json"
	"sync"
)

// Keys used by the orchestrator in the session store.
const (
	KeySymbol   = "dash_symbol"
	KeyMarket   = "dash_market"
	KeyBehavior = "dash_behavior"
	KeyChart    = "dash_chart"
	KeyInsight  = "dash_insight"
	KeyContent  = "dash_content"
	KeyPlatform = "dash_platform"
	KeyTrades   = "dash_trades"
)

// Store is a best-effort JSON key-value store scoped to one session.
// Get reports whether a stored value was decoded into out; on absence
// or corrupt data the caller keeps its default. Set with a nil value
// removes the key. Write failures are swallowed: persistence never
// gates the in-memory session.
type Store interface {
	Get(key string, out interface{}) bool
	Set(key string, value interface{})
	Clear(key string)
}

// MemoryStore is the in-process Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]byte{}}
}

func (s *MemoryStore) Get(key string, out interface{}) bool {
	s.mu.RLock()
	raw, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false
	}
	return true
}

func (s *MemoryStore) Set(key string, value interface{}) {
	if value == nil {
		s.Clear(key)
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.data[key] = raw
	s.mu.Unlock()
}

func (s *MemoryStore) Clear(key string) {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
}
