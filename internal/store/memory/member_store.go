package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

// MemberStore implements store.MemberStore using in-memory storage.
type MemberStore struct {
	s *Store
}

// Add adds a member to an organization.
func (m *MemberStore) Add(ctx context.Context, member *models.Member) error {
	unlock := m.s.lockWrite()
	defer unlock()

	if _, exists := m.s.data.organizations[member.OrgID]; !exists {
		return store.ErrOrganizationNotFound
	}

	members, ok := m.s.data.members[member.OrgID]
	if !ok {
		members = make(map[string]*models.Member)
		m.s.data.members[member.OrgID] = members
	}

	if _, exists := members[member.UserID]; exists {
		return store.ErrMemberAlreadyExists
	}

	clone := *member
	members[member.UserID] = &clone

	return nil
}

// Get retrieves a user's membership in an organization.
func (m *MemberStore) Get(ctx context.Context, orgID uuid.UUID, userID string) (*models.Member, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	member, exists := m.s.data.members[orgID][userID]
	if !exists {
		return nil, store.ErrMemberNotFound
	}

	clone := *member
	return &clone, nil
}

// Remove removes a user from an organization.
func (m *MemberStore) Remove(ctx context.Context, orgID uuid.UUID, userID string) error {
	unlock := m.s.lockWrite()
	defer unlock()

	if _, exists := m.s.data.members[orgID][userID]; !exists {
		return store.ErrMemberNotFound
	}

	delete(m.s.data.members[orgID], userID)

	return nil
}

// ListByOrg returns the members of an organization ordered by join time.
func (m *MemberStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	members := m.s.data.members[orgID]
	result := make([]*models.Member, 0, len(members))
	for _, member := range members {
		clone := *member
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].JoinedAt.Equal(result[j].JoinedAt) {
			return result[i].UserID < result[j].UserID
		}
		return result[i].JoinedAt.Before(result[j].JoinedAt)
	})

	return result, nil
}
