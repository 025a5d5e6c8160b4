package store

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pos-backend/internal/apperror"
	"pos-backend/internal/models"
)

// Store holds every establishment's data in memory. Each establishment has
// its own lock; all reads and writes of one establishment go through it.
type Store struct {
	mu             sync.RWMutex
	tenants        map[uint]*tenant
	establishments uint

	productSeq atomic.Uint64
	txSeq      atomic.Uint64

	now func() time.Time
}

type tenant struct {
	mu   sync.RWMutex
	part *Partition
}

type Option func(*Store)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		tenants: make(map[uint]*tenant),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) Now() time.Time {
	return s.now()
}

// CreateEstablishment opens a new empty partition. Names are unique ignoring
// case and surrounding spaces.
func (s *Store) CreateEstablishment(name, pinHash string) (models.Establishment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Establishment{}, apperror.Validation("establishment name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tenants {
		if strings.EqualFold(t.part.est.Name, name) {
			return models.Establishment{}, apperror.Conflictf("establishment %q already exists", name)
		}
	}

	s.establishments++
	est := models.Establishment{
		ID:        s.establishments,
		Name:      name,
		PINHash:   pinHash,
		CreatedAt: s.now(),
	}
	s.tenants[est.ID] = &tenant{part: newPartition(s, est)}
	return est, nil
}

// MustCreateEstablishment is CreateEstablishment for fixtures; it panics on error.
func (s *Store) MustCreateEstablishment(name, pinHash string) models.Establishment {
	est, err := s.CreateEstablishment(name, pinHash)
	if err != nil {
		panic(err)
	}
	return est
}

func (s *Store) Establishment(id uint) (models.Establishment, error) {
	t, err := s.tenant(id)
	if err != nil {
		return models.Establishment{}, err
	}
	return t.part.est, nil
}

func (s *Store) Establishments() []models.Establishment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Establishment, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t.part.est)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Update runs fn with exclusive access to one establishment. If fn returns an
// error every change it made to the partition is discarded.
func (s *Store) Update(establishmentID uint, fn func(p *Partition) error) error {
	t, err := s.tenant(establishmentID)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.part.snapshot()
	if err := fn(t.part); err != nil {
		t.part.restore(snap)
		return err
	}
	return nil
}

// View runs fn with shared access to one establishment. fn must not mutate.
func (s *Store) View(establishmentID uint, fn func(p *Partition) error) error {
	t, err := s.tenant(establishmentID)
	if err != nil {
		return err
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fn(t.part)
}

func (s *Store) tenant(id uint) (*tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tenants[id]
	if !ok {
		return nil, apperror.NotFoundf("establishment %d not found", id)
	}
	return t, nil
}
