package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization is a named group with a single owner.
// Members and payment schedules belong to it and are deleted with it.
type Organization struct {
	OrgID     uuid.UUID // UUIDv7
	Name      string    // globally unique
	OwnerID   string    // external user identifier
	CreatedAt time.Time
}

// NewOrganization returns an organization with a fresh ID and creation time.
func NewOrganization(name, ownerID string, now time.Time) *Organization {
	return &Organization{
		OrgID:     uuid.Must(uuid.NewV7()),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: now,
	}
}
