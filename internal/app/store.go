package app

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"weightquest/internal/domain"
)

// errUnchanged aborts an Update without writing or notifying.
var errUnchanged = errors.New("record unchanged")

// Listener is called after every write with the record that was stored.
// Listeners run while the store holds its write lock and must not call Write
// or Update.
type Listener func(userID int64, p domain.UserProgress)

// ProgressStore is the observable holder of every user's progress record.
// Writes replace the whole record, persist it best-effort and notify
// listeners synchronously.
type ProgressStore struct {
	repo domain.ProgressRepository

	writeMu sync.Mutex

	mu      sync.RWMutex
	records map[int64]domain.UserProgress

	lmu       sync.RWMutex
	listeners map[uint64]Listener
	nextID    uint64
}

// NewProgressStore creates a store backed by repo.
func NewProgressStore(repo domain.ProgressRepository) *ProgressStore {
	return &ProgressStore{
		repo:      repo,
		records:   make(map[int64]domain.UserProgress),
		listeners: make(map[uint64]Listener),
	}
}

// Subscribe registers l and returns a function that removes it.
func (s *ProgressStore) Subscribe(l Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.lmu.Unlock()

	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

// Read returns the latest record for userID. Missing or corrupt records read
// as domain.DefaultProgress.
func (s *ProgressStore) Read(ctx context.Context, userID int64) domain.UserProgress {
	s.mu.RLock()
	p, ok := s.records[userID]
	s.mu.RUnlock()
	if ok {
		return p.Clone()
	}

	p, cache := s.load(ctx, userID)
	if !cache {
		return p
	}

	s.mu.Lock()
	if existing, ok := s.records[userID]; ok {
		p = existing
	} else {
		s.records[userID] = p
	}
	s.mu.Unlock()
	return p.Clone()
}

// Write replaces the record for userID.
func (s *ProgressStore) Write(ctx context.Context, userID int64, p domain.UserProgress) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.commit(ctx, userID, p)
}

// Update applies fn to the latest record and writes the result as one step.
// An error from fn aborts the update and is returned as is.
func (s *ProgressStore) Update(ctx context.Context, userID int64, fn func(domain.UserProgress) (domain.UserProgress, error)) (domain.UserProgress, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.Read(ctx, userID)
	next, err := fn(cur.Clone())
	if errors.Is(err, errUnchanged) {
		return cur, nil
	}
	if err != nil {
		return cur, err
	}
	s.commit(ctx, userID, next)
	return next.Clone(), nil
}

func (s *ProgressStore) commit(ctx context.Context, userID int64, p domain.UserProgress) {
	p = p.Clone()
	p.SchemaVersion = domain.SchemaVersion

	s.mu.Lock()
	s.records[userID] = p
	s.mu.Unlock()

	s.persist(ctx, userID, p)

	s.lmu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.RUnlock()

	for _, l := range listeners {
		l(userID, p.Clone())
	}
}

func (s *ProgressStore) persist(ctx context.Context, userID int64, p domain.UserProgress) {
	blob, err := domain.EncodeProgress(p)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("encode progress")
		return
	}
	if err := s.repo.SaveProgress(ctx, userID, blob); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("save progress")
	}
}

// load reports whether the result may be cached. Read failures are not
// cached so the stored record is not shadowed by defaults.
func (s *ProgressStore) load(ctx context.Context, userID int64) (domain.UserProgress, bool) {
	blob, err := s.repo.LoadProgress(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("load progress, using defaults")
		return domain.DefaultProgress(), false
	}
	if blob == nil {
		return domain.DefaultProgress(), true
	}
	p, err := domain.DecodeProgress(blob)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("stored progress unreadable, using defaults")
		return domain.DefaultProgress(), true
	}
	return p, true
}
