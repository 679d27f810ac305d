// Package session keeps parsed genomic profiles in memory so callers can run
// several assessments against one upload without re-sending the VCF. Entries
// live in a bounded LRU cache and vanish on process restart; nothing is ever
// written to disk.
package session

import (
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// Entry is one stored upload. It is immutable after creation; assessments
// read the profiles but never modify them.
type Entry struct {
	ID        string
	CreatedAt time.Time
	Profiles  map[string]*domain.GeneProfile
	Calls     []domain.GenomicCall
}

// Store is a bounded in-memory session cache
type Store struct {
	cache  *lru.Cache[string, *Entry]
	logger *logrus.Logger
}

// NewStore creates a session store holding at most maxEntries sessions.
// Older sessions are evicted least-recently-used first.
func NewStore(maxEntries int, logger *logrus.Logger) (*Store, error) {
	cache, err := lru.New[string, *Entry](maxEntries)
	if err != nil {
		return nil, err
	}
	return &Store{cache: cache, logger: logger}, nil
}

// Put stores the profiles under a fresh session ID and returns the entry
func (s *Store) Put(profiles map[string]*domain.GeneProfile, calls []domain.GenomicCall) *Entry {
	entry := &Entry{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Profiles:  profiles,
		Calls:     calls,
	}
	s.cache.Add(entry.ID, entry)

	s.logger.WithFields(logrus.Fields{
		"session_id": entry.ID,
		"genes":      len(profiles),
	}).Info("Stored session")

	return entry
}

// Get returns the session with the given ID
func (s *Store) Get(id string) (*Entry, error) {
	entry, ok := s.cache.Get(id)
	if !ok {
		return nil, &domain.SessionNotFoundError{ID: id}
	}
	return entry, nil
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	return s.cache.Len()
}

// Reset drops every stored session
func (s *Store) Reset() {
	s.cache.Purge()
	s.logger.Info("Cleared all sessions")
}
