package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

// MemberStore implements store.MemberStore using PostgreSQL.
type MemberStore struct {
	q querier
}

// Add adds a member to an organization.
func (s *MemberStore) Add(ctx context.Context, member *models.Member) error {
	query := `
		INSERT INTO organization_members (
			member_id, org_id, user_id, joined_at
		) VALUES (
			$1, $2, $3, $4
		)
	`

	_, err := s.q.Exec(ctx, query,
		member.MemberID,
		member.OrgID,
		member.UserID,
		member.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrMemberAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return store.ErrOrganizationNotFound
		}
		return fmt.Errorf("failed to add member: %w", mapPostgresError(err))
	}

	log.Debug().
		Str("org_id", member.OrgID.String()).
		Str("user_id", member.UserID).
		Msg("Added member")

	return nil
}

// Get retrieves a user's membership in an organization.
func (s *MemberStore) Get(ctx context.Context, orgID uuid.UUID, userID string) (*models.Member, error) {
	query := `
		SELECT member_id, org_id, user_id, joined_at
		FROM organization_members
		WHERE org_id = $1 AND user_id = $2
	`

	var member models.Member
	err := s.q.QueryRow(ctx, query, orgID, userID).Scan(
		&member.MemberID,
		&member.OrgID,
		&member.UserID,
		&member.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", mapPostgresError(err))
	}

	return &member, nil
}

// Remove removes a user from an organization.
func (s *MemberStore) Remove(ctx context.Context, orgID uuid.UUID, userID string) error {
	query := `DELETE FROM organization_members WHERE org_id = $1 AND user_id = $2`

	result, err := s.q.Exec(ctx, query, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrMemberNotFound
	}

	return nil
}

// ListByOrg returns the members of an organization ordered by join time.
func (s *MemberStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	query := `
		SELECT member_id, org_id, user_id, joined_at
		FROM organization_members
		WHERE org_id = $1
		ORDER BY joined_at ASC, user_id ASC
	`

	rows, err := s.q.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		var member models.Member
		if err := rows.Scan(
			&member.MemberID,
			&member.OrgID,
			&member.UserID,
			&member.JoinedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}
