package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgpay/internal/models"
)

// Sentinel errors for member store operations
var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMemberAlreadyExists = errors.New("member already exists")
)

// MemberStore defines the interface for organization membership storage.
type MemberStore interface {
	// Add adds a member to an organization.
	// Returns ErrMemberAlreadyExists if the user is already a member,
	// ErrOrganizationNotFound if the organization doesn't exist.
	Add(ctx context.Context, member *models.Member) error

	// Get retrieves the membership of a user in an organization.
	// Returns ErrMemberNotFound if the user is not a member.
	Get(ctx context.Context, orgID uuid.UUID, userID string) (*models.Member, error)

	// Remove removes a user from an organization.
	// Returns ErrMemberNotFound if the user is not a member.
	Remove(ctx context.Context, orgID uuid.UUID, userID string) error

	// ListByOrg returns the current members of an organization ordered by join time.
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error)
}
