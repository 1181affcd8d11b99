package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/wellirecord/connect/models"
)

// EvictReason says why a session left the store without being ended
type EvictReason string

const (
	EvictExpired  EvictReason = "expired"
	EvictCapacity EvictReason = "capacity"
)

// EvictFunc is called with a copy of every session the store drops on its
// own. It runs while the store is locked and must not call back into it.
type EvictFunc func(sess *models.Session, reason EvictReason)

type storeEntry struct {
	sess    models.Session
	expires time.Time
}

// Store is a bounded, expiring session store. Entries expire ttl after
// their last write; the least recently used entry is evicted when full.
// Values are copied in and out so callers never share session state.
type Store struct {
	cache   *expirable.LRU[uuid.UUID, *storeEntry]
	ttl     time.Duration
	onEvict EvictFunc

	// IDs being removed by Delete, which is not an eviction
	deleting sync.Map

	hits    atomic.Uint64
	misses  atomic.Uint64
	expired atomic.Uint64
	evicted atomic.Uint64
}

// StoreStats represents store statistics
type StoreStats struct {
	Size    int    `json:"size"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Expired uint64 `json:"expired"`
	Evicted uint64 `json:"evicted"`
}

// NewStore creates a store holding at most maxSize sessions. onEvict may be nil.
func NewStore(maxSize int, ttl time.Duration, onEvict EvictFunc) *Store {
	s := &Store{ttl: ttl, onEvict: onEvict}
	s.cache = expirable.NewLRU[uuid.UUID, *storeEntry](maxSize, s.dropped, ttl)
	return s
}

// Get returns a copy of the session, or false when it is unknown or expired
func (s *Store) Get(id uuid.UUID) (*models.Session, bool) {
	e, ok := s.cache.Get(id)
	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	cp := e.sess
	return &cp, true
}

// Put stores a copy of sess and restarts its expiry. It returns the new
// expiry time.
func (s *Store) Put(sess *models.Session) time.Time {
	e := &storeEntry{sess: *sess, expires: time.Now().Add(s.ttl)}
	s.cache.Add(sess.ID, e)
	return e.expires
}

// Delete removes a session and reports whether it was present
func (s *Store) Delete(id uuid.UUID) bool {
	s.deleting.Store(id, struct{}{})
	defer s.deleting.Delete(id)
	return s.cache.Remove(id)
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	return s.cache.Len()
}

// Stats returns store statistics
func (s *Store) Stats() StoreStats {
	return StoreStats{
		Size:    s.cache.Len(),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
		Expired: s.expired.Load(),
		Evicted: s.evicted.Load(),
	}
}

func (s *Store) dropped(id uuid.UUID, e *storeEntry) {
	if _, ok := s.deleting.Load(id); ok {
		return
	}

	reason := EvictCapacity
	if !time.Now().Before(e.expires) {
		reason = EvictExpired
		s.expired.Add(1)
	} else {
		s.evicted.Add(1)
	}

	if s.onEvict != nil {
		cp := e.sess
		s.onEvict(&cp, reason)
	}
}
