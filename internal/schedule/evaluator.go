// Package schedule decides when a payment schedule is due and who it pays.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgpay/internal/models"
)

// MemberLister returns the current members of an organization.
// store.MemberStore satisfies it.
type MemberLister interface {
	ListByOrg(ctx context.Context, orgID uuid.UUID) ([]*models.Member, error)
}

// NextDue returns the instant the schedule next becomes due.
func NextDue(s *models.PaymentSchedule) (time.Time, error) {
	interval, err := s.Interval()
	if err != nil {
		return time.Time{}, err
	}
	return s.LastPaidAt.Add(interval), nil
}

// IsDue reports whether at least one full interval has elapsed since the last payment.
// A schedule with an invalid interval is never due.
func IsDue(s *models.PaymentSchedule, now time.Time) bool {
	next, err := NextDue(s)
	if err != nil {
		return false
	}
	return !now.Before(next)
}

// Recipients returns the user IDs to pay. A targeted schedule pays only its
// target. An organization-wide schedule pays whoever is a member right now.
func Recipients(ctx context.Context, s *models.PaymentSchedule, lookup MemberLister) ([]string, error) {
	if !s.IsOrganizationWide() {
		return []string{*s.TargetUserID}, nil
	}

	members, err := lookup.ListByOrg(ctx, s.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of org %s: %w", s.OrgID, err)
	}

	recipients := make([]string, 0, len(members))
	for _, m := range members {
		recipients = append(recipients, m.UserID)
	}

	return recipients, nil
}
