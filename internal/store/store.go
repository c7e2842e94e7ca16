package store

import (
	"context"
)

// Store groups the entity stores behind a single transactional boundary.
type Store interface {
	Organizations() OrganizationStore
	Members() MemberStore
	Schedules() ScheduleStore

	// WithTx runs fn in a single transaction. The Store passed to fn is bound to
	// that transaction; if fn returns an error every change it made is rolled back.
	// Calling WithTx on a Store that is already bound to a transaction reuses it.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Close releases the underlying resources.
	Close() error
}
