package commands

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfeidau/orgpay/internal/orgs"
)

// OrgCmd groups the operator commands. They run as an administrator.
type OrgCmd struct {
	Create         OrgCreateCmd         `cmd:"" help:"Create an organization"`
	Delete         OrgDeleteCmd         `cmd:"" help:"Delete an organization with its members and schedules"`
	AddMember      OrgAddMemberCmd      `cmd:"" help:"Add a member to an organization"`
	RemoveMember   OrgRemoveMemberCmd   `cmd:"" help:"Remove a member from an organization"`
	Members        OrgMembersCmd        `cmd:"" help:"List the members of an organization"`
	AddSchedule    OrgAddScheduleCmd    `cmd:"" help:"Create a recurring payment schedule"`
	Schedules      OrgSchedulesCmd      `cmd:"" help:"List the payment schedules of an organization"`
	DeleteSchedule OrgDeleteScheduleCmd `cmd:"" help:"Delete a payment schedule"`
}

var operator = orgs.Caller{UserID: "operator", Admin: true}

// OrgStoreFlags selects the store an operator command runs against.
type OrgStoreFlags struct {
	Store StoreFlags `embed:""`
}

func (c *OrgStoreFlags) withService(globals *Globals, fn func(ctx context.Context, svc *orgs.Service) error) error {
	log := setupLogger(globals)
	ctx := context.Background()

	if c.Store.StoreType == "memory" {
		log.Warn().Msg("Changes made against the memory store are discarded on exit")
	}

	st, err := c.Store.open(ctx, log, false)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(ctx, orgs.NewService(st))
}

type OrgCreateCmd struct {
	OrgStoreFlags `embed:""`

	Name  string `arg:"" help:"organization name"`
	Owner string `required:"" help:"owner user ID"`
}

func (c *OrgCreateCmd) Run(globals *Globals) error {
	return c.withService(globals, func(ctx context.Context, svc *orgs.Service) error {
		org, err := svc.CreateOrganization(ctx, c.Name, c.Owner)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", org.OrgID, org.Name)
		return nil
	})
}

type OrgDeleteCmd struct {
	OrgStoreFlags `embed:""`

	Name string `arg:"" help:"organization name"`
}

func (c *OrgDeleteCmd) Run(globals *Globals) error {
	return c.withService(globals, func(ctx context.Context, svc *orgs.Service) error {
		return svc.DeleteOrganization(ctx, c.Name, operator)
	})
}

type OrgAddMemberCmd struct {
	OrgStoreFlags `embed:""`

	Name string `arg:"" help:"organization name"`
	User string `arg:"" help:"user ID"`
}

func (c *OrgAddMemberCmd) Run(globals *Globals) error {
	return c.withService(globals, func(ctx context.Context, svc *orgs.Service) error {
		_, err := svc.AddMember(ctx, c.Name, operator, c.User)
		return err
	})
}

type OrgRemoveMemberCmd struct {
	OrgStoreFlags `embed:""`

	Name string `arg:"" help:"organization name"`
	User string `arg:"" help:"user ID"`
}

func (c *OrgRemoveMemberCmd) Run(globals *Globals) error {
	return c.withService(globals, func(ctx context.Context, svc *orgs.Service) error {
		return svc.RemoveMember(ctx, c.Name, operator, c.User)
	})
}

type OrgMembersCmd struct {
	OrgStoreFlags `embed:""`

	Name string `arg:"" help:"organization name"`
}

func (c *OrgMembersCmd) Run(globals *Globals) error {
	return c.withService(globals, func(ctx context.Context, svc *orgs.Service) error {
		members, err := svc.ListMembers(ctx, c.Name)
		if err != nil {
			return err
		}
		for _, m := range members {
			fmt.Printf("%s\t%s\n", m.UserID, m.JoinedAt.Format("2006-01-02T15:04:05Z07:00"))
		}
		return nil
	})
}

type OrgAddScheduleCmd struct {
	OrgStoreFlags `embed:""`

	Name   string `arg:"" help:"organization name"`
	Amount int64  `required:"" help:"points paid per interval"`
	Unit   string `required:"" enum:"minutes,hours,days" help:"interval unit (minutes, hours or days)"`
	Every  int64  `required:"" help:"interval length in units"`
	Target string `help:"pay only this member; omit to pay every member"`
}

func (c *OrgAddScheduleCmd) Run(globals *Globals) error {
	return c.withService(globals, func(ctx context.Context, svc *orgs.Service) error {
		s, err := svc.CreateSchedule(ctx, c.Name, operator, orgs.CreateScheduleRequest{
			TargetUserID:  c.Target,
			Amount:        c.Amount,
			IntervalUnit:  c.Unit,
			IntervalValue: c.Every,
		})
		if err != nil {
			return err
		}
		fmt.Println(s.ScheduleID)
		return nil
	})
}

type OrgSchedulesCmd struct {
	OrgStoreFlags `embed:""`

	Name string `arg:"" help:"organization name"`
}

func (c *OrgSchedulesCmd) Run(globals *Globals) error {
	return c.withService(globals, func(ctx context.Context, svc *orgs.Service) error {
		schedules, err := svc.ListSchedules(ctx, c.Name)
		if err != nil {
			return err
		}
		for _, s := range schedules {
			target := "*"
			if s.TargetUserID != nil {
				target = *s.TargetUserID
			}
			fmt.Printf("%s\t%s\t%d\tevery %d %s\tlast paid %s\n",
				s.ScheduleID, target, s.Amount, s.IntervalValue, s.IntervalUnit,
				s.LastPaidAt.Format("2006-01-02T15:04:05Z07:00"))
		}
		return nil
	})
}

type OrgDeleteScheduleCmd struct {
	OrgStoreFlags `embed:""`

	Name     string    `arg:"" help:"organization name"`
	Schedule uuid.UUID `arg:"" help:"schedule ID"`
}

func (c *OrgDeleteScheduleCmd) Run(globals *Globals) error {
	return c.withService(globals, func(ctx context.Context, svc *orgs.Service) error {
		return svc.DeleteSchedule(ctx, c.Name, operator, c.Schedule)
	})
}
