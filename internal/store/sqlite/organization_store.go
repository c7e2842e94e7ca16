package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

// OrganizationStore implements store.OrganizationStore using SQLite.
type OrganizationStore struct {
	q querier
}

func (s *OrganizationStore) Create(ctx context.Context, org *models.Organization) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO organizations (org_id, name, owner_id, created_at) VALUES (?, ?, ?, ?)`,
		org.OrgID.String(), org.Name, org.OwnerID, toUnix(org.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrOrganizationAlreadyExists
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	log.Debug().
		Str("org_id", org.OrgID.String()).
		Str("name", org.Name).
		Msg("Created organization")

	return nil
}

func (s *OrganizationStore) Get(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	return s.getOne(ctx,
		`SELECT org_id, name, owner_id, created_at FROM organizations WHERE org_id = ?`,
		orgID.String(),
	)
}

func (s *OrganizationStore) GetByName(ctx context.Context, name string) (*models.Organization, error) {
	return s.getOne(ctx,
		`SELECT org_id, name, owner_id, created_at FROM organizations WHERE name = ?`,
		name,
	)
}

func (s *OrganizationStore) getOne(ctx context.Context, query string, arg any) (*models.Organization, error) {
	org, err := scanOrganization(s.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// Delete removes the organization; members and schedules go with it via ON DELETE CASCADE.
func (s *OrganizationStore) Delete(ctx context.Context, orgID uuid.UUID) error {
	result, err := s.q.ExecContext(ctx, `DELETE FROM organizations WHERE org_id = ?`, orgID.String())
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	if n == 0 {
		return store.ErrOrganizationNotFound
	}

	log.Info().
		Str("org_id", orgID.String()).
		Msg("Deleted organization (and cascade-deleted members and schedules)")

	return nil
}

func (s *OrganizationStore) List(ctx context.Context) ([]*models.Organization, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT org_id, name, owner_id, created_at FROM organizations ORDER BY created_at ASC, org_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organizations: %w", err)
	}

	return orgs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row scanner) (*models.Organization, error) {
	var (
		org       models.Organization
		createdAt int64
	)
	if err := row.Scan(&org.OrgID, &org.Name, &org.OwnerID, &createdAt); err != nil {
		return nil, err
	}
	org.CreatedAt = fromUnix(createdAt)
	return &org, nil
}
