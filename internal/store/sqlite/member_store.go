package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

// MemberStore implements store.MemberStore using SQLite.
type MemberStore struct {
	q querier
}

func (s *MemberStore) Add(ctx context.Context, member *models.Member) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO organization_members (member_id, org_id, user_id, joined_at) VALUES (?, ?, ?, ?)`,
		member.MemberID.String(), member.OrgID.String(), member.UserID, toUnix(member.JoinedAt),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrOrganizationNotFound
		}
		if isUniqueViolation(err) {
			return store.ErrMemberAlreadyExists
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

func (s *MemberStore) Get(ctx context.Context, orgID uuid.UUID, userID string) (*models.Member, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT member_id, org_id, user_id, joined_at FROM organization_members WHERE org_id = ? AND user_id = ?`,
		orgID.String(), userID,
	)

	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrMemberNotFound
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return member, nil
}

func (s *MemberStore) Remove(ctx context.Context, orgID uuid.UUID, userID string) error {
	result, err := s.q.ExecContext(ctx,
		`DELETE FROM organization_members WHERE org_id = ? AND user_id = ?`,
		orgID.String(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if n == 0 {
		return store.ErrMemberNotFound
	}
	return nil
}

func (s *MemberStore) ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT member_id, org_id, user_id, joined_at FROM organization_members
		 WHERE org_id = ? ORDER BY joined_at ASC, user_id ASC`,
		orgID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

func scanMember(row scanner) (*models.Member, error) {
	var (
		member   models.Member
		joinedAt int64
	)
	if err := row.Scan(&member.MemberID, &member.OrgID, &member.UserID, &joinedAt); err != nil {
		return nil, err
	}
	member.JoinedAt = fromUnix(joinedAt)
	return &member, nil
}
