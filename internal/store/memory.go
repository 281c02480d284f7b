package store

import (
	"context"
	"sync"

	"github.com/gowebpki/jcs"
)

type memoryEntry struct {
	requestHash string
	body        []byte
}

// Memory is the in-process replay store used when no database is configured.
// Entries live for the lifetime of the process.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Lookup(_ context.Context, key, requestHash string) ([]byte, bool, error) {
	if err := checkKey(key, requestHash); err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if e.requestHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	// copy so callers can't modify internal state
	out := make([]byte, len(e.body))
	copy(out, e.body)
	return out, true, nil
}

func (m *Memory) Save(_ context.Context, key, requestHash string, body []byte) error {
	if err := checkKey(key, requestHash); err != nil {
		return err
	}

	canon, err := jcs.Transform(body)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok {
		if e.requestHash != requestHash {
			return ErrIdempotencyConflict
		}
		return nil
	}
	m.entries[key] = memoryEntry{requestHash: requestHash, body: canon}
	return nil
}
