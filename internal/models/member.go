package models

import (
	"time"

	"github.com/google/uuid"
)

// Member records that an external user belongs to an organization.
// The (OrgID, UserID) pair is unique.
type Member struct {
	MemberID uuid.UUID // UUIDv7
	OrgID    uuid.UUID // FK to organizations
	UserID   string    // external user identifier, also the ledger account ID
	JoinedAt time.Time
}

// NewMember returns a membership record with a fresh ID.
func NewMember(orgID uuid.UUID, userID string, now time.Time) *Member {
	return &Member{
		MemberID: uuid.Must(uuid.NewV7()),
		OrgID:    orgID,
		UserID:   userID,
		JoinedAt: now,
	}
}
