package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

// OrganizationStore implements store.OrganizationStore using in-memory storage.
type OrganizationStore struct {
	s *Store
}

// Create creates a new organization in memory.
func (o *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	unlock := o.s.lockWrite()
	defer unlock()

	if _, exists := o.s.data.organizations[org.OrgID]; exists {
		return store.ErrOrganizationAlreadyExists
	}

	// Names are globally unique
	for _, existing := range o.s.data.organizations {
		if existing.Name == org.Name {
			return store.ErrOrganizationAlreadyExists
		}
	}

	// Clone to avoid external modifications
	clone := *org
	o.s.data.organizations[org.OrgID] = &clone

	return nil
}

// Get retrieves an organization by ID.
func (o *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	org, exists := o.s.data.organizations[orgID]
	if !exists {
		return nil, store.ErrOrganizationNotFound
	}

	clone := *org
	return &clone, nil
}

// GetByName retrieves an organization by name.
func (o *OrganizationStore) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	for _, org := range o.s.data.organizations {
		if org.Name == name {
			clone := *org
			return &clone, nil
		}
	}

	return nil, store.ErrOrganizationNotFound
}

// Delete deletes an organization along with its members and schedules.
func (o *OrganizationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	unlock := o.s.lockWrite()
	defer unlock()

	if _, exists := o.s.data.organizations[orgID]; !exists {
		return store.ErrOrganizationNotFound
	}

	delete(o.s.data.organizations, orgID)
	delete(o.s.data.members, orgID)
	for id, schedule := range o.s.data.schedules {
		if schedule.OrgID == orgID {
			delete(o.s.data.schedules, id)
		}
	}

	return nil
}

// List returns all organizations ordered by creation time.
func (o *OrganizationStore) List(ctx context.Context) ([]*models.Organization, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	result := make([]*models.Organization, 0, len(o.s.data.organizations))
	for _, org := range o.s.data.organizations {
		clone := *org
		result = append(result, &clone)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	return result, nil
}
