// Package ledger credits points to user accounts held by an external points ledger.
package ledger

import (
	"context"
	"errors"
)

// ErrCreditFailed wraps every error returned from Ledger.Credit.
var ErrCreditFailed = errors.New("ledger credit failed")

// Ledger credits points to a user account.
// Any non-nil error means the credit did not happen and may be retried later.
type Ledger interface {
	Credit(ctx context.Context, accountID string, amount int64) error
}

type referenceKey struct{}

// WithReference attaches a caller-supplied reference to ctx. Ledgers that
// support it use the reference to deduplicate repeated credits.
func WithReference(ctx context.Context, reference string) context.Context {
	return context.WithValue(ctx, referenceKey{}, reference)
}

// ReferenceFromContext returns the reference attached by WithReference.
func ReferenceFromContext(ctx context.Context) (string, bool) {
	ref, ok := ctx.Value(referenceKey{}).(string)
	return ref, ok && ref != ""
}
