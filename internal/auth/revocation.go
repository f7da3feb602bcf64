package auth

import (
	"context"
	"sync"
	"time"
)

// RevocationStore tracks tokens that have been explicitly invalidated
// before their natural expiry (logout, refresh rotation, forced revocation).
//
// Entries are retained only until the token's natural expiry: past that
// point Codec.Decode rejects the token as expired anyway, so longer
// retention buys no guarantee and wastes memory.
//
// Implementations must tolerate concurrent Revoke/IsRevoked/Sweep calls
// without corrupting state - a torn read here would let a revoked token
// pass verification.
type RevocationStore interface {
	// Revoke marks the token as invalid and reports whether this call
	// performed the transition. It returns false when the token was
	// already revoked, or cannot be decoded at all (nothing to revoke).
	// Revoking an already-expired token is permitted and idempotent.
	Revoke(token string) bool

	// IsRevoked reports whether the token is on the blacklist.
	IsRevoked(token string) bool

	// Sweep removes entries whose natural expiry has passed and returns
	// the number removed. It runs on a fixed interval and may also be
	// invoked opportunistically (tests call it directly).
	Sweep() int
}

// MemoryRevocationStore is the single-node RevocationStore: a
// mutex-guarded map keyed by the literal token string, valued by the
// token's natural expiry.
//
// It does not survive process restart and is not shared across instances.
// That limitation is accepted for the single-process deployment this
// system targets; a multi-node deployment swaps in an externally backed
// implementation behind the same interface.
type MemoryRevocationStore struct {
	codec *Codec

	mu      sync.RWMutex
	entries map[string]time.Time
}

// NewMemoryRevocationStore creates an empty in-memory revocation store.
// The codec is used to recover a revoked token's natural expiry.
func NewMemoryRevocationStore(codec *Codec) *MemoryRevocationStore {
	return &MemoryRevocationStore{
		codec:   codec,
		entries: make(map[string]time.Time),
	}
}

// Revoke implements RevocationStore.
func (s *MemoryRevocationStore) Revoke(token string) bool {
	// Inspect rather than Decode: an expired token can still be revoked.
	claims, err := s.codec.Inspect(token)
	if err != nil {
		return false // undecodable: nothing to revoke
	}

	expiry := time.Now()
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[token]; exists {
		return false
	}
	s.entries[token] = expiry
	return true
}

// IsRevoked implements RevocationStore.
func (s *MemoryRevocationStore) IsRevoked(token string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, revoked := s.entries[token]
	return revoked
}

// Sweep implements RevocationStore.
func (s *MemoryRevocationStore) Sweep() int {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, expiry := range s.entries {
		if !now.Before(expiry) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed
}

// Len returns the number of live blacklist entries.
func (s *MemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// SweepLoop runs Sweep on the given interval until the context is
// cancelled. The process lifecycle owns this goroutine: started on init,
// stopped via context cancellation on shutdown.
func (s *MemoryRevocationStore) SweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
