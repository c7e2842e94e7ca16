// Package orgs implements the organization, membership and schedule commands.
// Every command runs in a single store transaction.
package orgs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/orgpay/internal/models"
	"github.com/wolfeidau/orgpay/internal/store"
)

// ErrUnauthorized is returned when the caller is neither the organization owner nor an administrator.
var ErrUnauthorized = errors.New("caller is not the organization owner or an administrator")

// Caller identifies who is invoking a command.
type Caller struct {
	UserID string
	Admin  bool
}

// CanManage reports whether the caller may modify org.
func (c Caller) CanManage(org *models.Organization) bool {
	return c.Admin || (c.UserID != "" && c.UserID == org.OwnerID)
}

// CreateScheduleRequest describes a new payment schedule.
type CreateScheduleRequest struct {
	// TargetUserID pays a single member. Empty means every member of the organization.
	TargetUserID  string
	Amount        int64
	IntervalUnit  string
	IntervalValue int64
}

// Service executes commands against the store.
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates a Service.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// CreateOrganization creates an organization owned by ownerID.
func (s *Service) CreateOrganization(ctx context.Context, name, ownerID string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: organization name is required", models.ErrInvalidArgument)
	}
	if ownerID == "" {
		return nil, fmt.Errorf("%w: owner is required", models.ErrInvalidArgument)
	}

	org := models.NewOrganization(name, ownerID, s.now().UTC())

	err := s.store.WithTx(ctx, func(tx store.Store) error {
		return tx.Organizations().Create(ctx, org)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("org_id", org.OrgID.String()).
		Str("name", org.Name).
		Str("owner_id", ownerID).
		Msg("Organization created")

	return org, nil
}

// GetOrganization looks up an organization by name.
func (s *Service) GetOrganization(ctx context.Context, name string) (*models.Organization, error) {
	return getOrg(ctx, s.store, name)
}

// DeleteOrganization deletes an organization along with its members and schedules.
func (s *Service) DeleteOrganization(ctx context.Context, name string, caller Caller) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		org, err := authorize(ctx, tx, name, caller)
		if err != nil {
			return err
		}

		if err := tx.Organizations().Delete(ctx, org.OrgID); err != nil {
			return err
		}

		log.Info().
			Str("org_id", org.OrgID.String()).
			Str("caller", caller.UserID).
			Msg("Organization deleted")

		return nil
	})
}

// AddMember adds userID to the organization.
func (s *Service) AddMember(ctx context.Context, orgName string, caller Caller, userID string) (*models.Member, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user is required", models.ErrInvalidArgument)
	}

	var member *models.Member
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		org, err := authorize(ctx, tx, orgName, caller)
		if err != nil {
			return err
		}

		member = models.NewMember(org.OrgID, userID, s.now().UTC())
		return tx.Members().Add(ctx, member)
	})
	if err != nil {
		return nil, err
	}

	return member, nil
}

// RemoveMember removes userID from the organization. Organization-wide
// schedules stop paying the user from the next pass.
func (s *Service) RemoveMember(ctx context.Context, orgName string, caller Caller, userID string) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		org, err := authorize(ctx, tx, orgName, caller)
		if err != nil {
			return err
		}
		return tx.Members().Remove(ctx, org.OrgID, userID)
	})
}

// ListMembers returns the current members of the organization.
func (s *Service) ListMembers(ctx context.Context, orgName string) ([]*models.Member, error) {
	org, err := getOrg(ctx, s.store, orgName)
	if err != nil {
		return nil, err
	}
	return s.store.Members().ListByOrg(ctx, org.OrgID)
}

// CreateSchedule creates a recurring payment. A targeted schedule requires the
// target to be a current member.
func (s *Service) CreateSchedule(ctx context.Context, orgName string, caller Caller, req CreateScheduleRequest) (*models.PaymentSchedule, error) {
	unit, err := models.ParseIntervalUnit(req.IntervalUnit)
	if err != nil {
		return nil, err
	}

	var schedule *models.PaymentSchedule
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		org, err := authorize(ctx, tx, orgName, caller)
		if err != nil {
			return err
		}

		var target *string
		if req.TargetUserID != "" {
			if _, err := tx.Members().Get(ctx, org.OrgID, req.TargetUserID); err != nil {
				return err
			}
			target = &req.TargetUserID
		}

		schedule, err = models.NewPaymentSchedule(org.OrgID, target, req.Amount, unit, req.IntervalValue, s.now().UTC())
		if err != nil {
			return err
		}

		return tx.Schedules().Create(ctx, schedule)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("schedule_id", schedule.ScheduleID.String()).
		Str("org_id", schedule.OrgID.String()).
		Int64("amount", schedule.Amount).
		Str("interval", fmt.Sprintf("%d %s", schedule.IntervalValue, schedule.IntervalUnit)).
		Msg("Payment schedule created")

	return schedule, nil
}

// ListSchedules returns the payment schedules of the organization.
func (s *Service) ListSchedules(ctx context.Context, orgName string) ([]*models.PaymentSchedule, error) {
	org, err := getOrg(ctx, s.store, orgName)
	if err != nil {
		return nil, err
	}
	return s.store.Schedules().ListByOrg(ctx, org.OrgID)
}

// DeleteSchedule deletes a payment schedule belonging to the organization.
func (s *Service) DeleteSchedule(ctx context.Context, orgName string, caller Caller, scheduleID uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx store.Store) error {
		org, err := authorize(ctx, tx, orgName, caller)
		if err != nil {
			return err
		}

		schedule, err := tx.Schedules().Get(ctx, scheduleID)
		if err != nil {
			return err
		}
		// schedules of other organizations are reported as missing
		if schedule.OrgID != org.OrgID {
			return store.ErrScheduleNotFound
		}

		return tx.Schedules().Delete(ctx, scheduleID)
	})
}

// getOrg looks up an organization by name, trimmed the same way CreateOrganization stores it.
func getOrg(ctx context.Context, st store.Store, name string) (*models.Organization, error) {
	return st.Organizations().GetByName(ctx, strings.TrimSpace(name))
}

func authorize(ctx context.Context, tx store.Store, orgName string, caller Caller) (*models.Organization, error) {
	org, err := getOrg(ctx, tx, orgName)
	if err != nil {
		return nil, err
	}
	if !caller.CanManage(org) {
		return nil, ErrUnauthorized
	}
	return org, nil
}
