package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

var _ store.Store = (*Store)(nil)

type data struct {
	organizations map[uuid.UUID]*models.Organization      // org_id -> Organization
	members       map[uuid.UUID]map[string]*models.Member // org_id -> user_id -> Member
	schedules     map[uuid.UUID]*models.PaymentSchedule   // schedule_id -> PaymentSchedule
}

func newData() *data {
	return &data{
		organizations: make(map[uuid.UUID]*models.Organization),
		members:       make(map[uuid.UUID]map[string]*models.Member),
		schedules:     make(map[uuid.UUID]*models.PaymentSchedule),
	}
}

// clone copies the maps and the records they hold.
func (d *data) clone() *data {
	c := newData()
	for id, org := range d.organizations {
		o := *org
		c.organizations[id] = &o
	}
	for orgID, members := range d.members {
		c.members[orgID] = make(map[string]*models.Member, len(members))
		for userID, member := range members {
			m := *member
			c.members[orgID][userID] = &m
		}
	}
	for id, schedule := range d.schedules {
		c.schedules[id] = schedule.Clone()
	}
	return c
}

// Store implements store.Store using in-memory storage.
// This implementation is for testing and development only - data is lost on restart.
//
// Writes are serialized: a write outside a transaction and a whole transaction both
// hold writeMu, so a rolled back transaction can restore its snapshot safely.
type Store struct {
	mu      *sync.RWMutex // guards data
	writeMu *sync.Mutex   // serializes writers and transactions
	data    *data
	inTx    bool
}

// NewStore creates a new empty in-memory store.
func NewStore() *Store {
	return &Store{
		mu:      &sync.RWMutex{},
		writeMu: &sync.Mutex{},
		data:    newData(),
	}
}

func (s *Store) Organizations() store.OrganizationStore {
	return &OrganizationStore{s: s}
}

func (s *Store) Members() store.MemberStore {
	return &MemberStore{s: s}
}

func (s *Store) Schedules() store.ScheduleStore {
	return &ScheduleStore{s: s}
}

// WithTx runs fn with a store bound to a transaction. On error the state is
// restored to what it was before fn ran.
//
// Writers are serialized but reads are not isolated: fn writes straight into the
// shared data, so readers outside the transaction see its changes before it
// returns, including changes that are later rolled back.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.inTx {
		return fn(s)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	tx := &Store{
		mu:      s.mu,
		writeMu: s.writeMu,
		data:    s.data,
		inTx:    true,
	}

	if err := fn(tx); err != nil {
		s.mu.Lock()
		*s.data = *snapshot
		s.mu.Unlock()
		return err
	}

	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// lockWrite acquires the locks needed to mutate data and returns the matching unlock.
func (s *Store) lockWrite() func() {
	if !s.inTx {
		s.writeMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !s.inTx {
			s.writeMu.Unlock()
		}
	}
}
