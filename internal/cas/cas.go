// Package cas names immutable data chunks by their BLAKE3-256 digest and stores them
// in content-addressable stores.
package cas

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"lukechampine.com/blake3"
)

// Size is the length in bytes of a Hash.
const Size = 32

// ErrNotFound is returned when a chunk is not present in a store.
var ErrNotFound = errors.New("cas: chunk not found")

// Hash is the name of an immutable data chunk. The zero value is the
// "not yet set" sentinel.
type Hash [Size]byte

// String returns the hexadecimal representation of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Short returns the first eight hex characters, for display.
func (h Hash) Short() string {
	return h.String()[:8]
}

// IsInitialised reports whether h has been set to a real digest.
func (h Hash) IsInitialised() bool {
	return h != Hash{}
}

// Compare orders hashes bytewise.
func (h Hash) Compare(other Hash) int {
	return bytes.Compare(h[:], other[:])
}

// ParseHash decodes a 64 character hex string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("decode hash %q: %w", s, err)
	}
	if len(b) != Size {
		return h, fmt.Errorf("hash %q has %d bytes, want %d", s, len(b), Size)
	}
	copy(h[:], b)
	return h, nil
}

// HashFromBytes copies a raw 32 byte digest into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != Size {
		return h, fmt.Errorf("hash has %d bytes, want %d", len(b), Size)
	}
	copy(h[:], b)
	return h, nil
}

// SumB3 computes the BLAKE3 hash of the given data.
func SumB3(data []byte) Hash {
	return blake3.Sum256(data)
}

// CAS defines the content-addressable storage interface.
type CAS interface {
	// Put stores data keyed by its hash.
	Put(hash Hash, data []byte) error

	// Get retrieves data by its hash.
	Get(hash Hash) ([]byte, error)

	// Has checks if data exists for the given hash.
	Has(hash Hash) (bool, error)

	// Delete removes data for the given hash. Deleting a missing hash is not an error.
	Delete(hash Hash) error
}

// MemoryCAS keeps chunks in a map guarded by a RWMutex.
type MemoryCAS struct {
	mu   sync.RWMutex
	data map[Hash][]byte
}

// NewMemoryCAS creates a new in-memory CAS.
func NewMemoryCAS() *MemoryCAS {
	return &MemoryCAS{
		data: make(map[Hash][]byte),
	}
}

// Put implements CAS.Put.
func (m *MemoryCAS) Put(hash Hash, data []byte) error {
	if computed := SumB3(data); computed != hash {
		return fmt.Errorf("hash mismatch: expected %s, got %s", hash, computed)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[hash]; ok {
		return nil
	}
	m.data[hash] = bytes.Clone(data)
	return nil
}

// Get implements CAS.Get.
func (m *MemoryCAS) Get(hash Hash) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.data[hash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	return bytes.Clone(data), nil
}

// Has implements CAS.Has.
func (m *MemoryCAS) Has(hash Hash) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.data[hash]
	return ok, nil
}

// Delete implements CAS.Delete.
func (m *MemoryCAS) Delete(hash Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, hash)
	return nil
}

// Len returns the number of chunks stored.
func (m *MemoryCAS) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
