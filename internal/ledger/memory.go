package ledger

import (
	"context"
	"fmt"
	"sync"
)

var _ Ledger = (*Memory)(nil)

// Credit is a single successful credit recorded by Memory.
type Credit struct {
	AccountID string
	Amount    int64
	Reference string
}

// Memory is an in-process ledger that records credits.
// Failures can be injected per account with FailFor or for every call with FailFunc.
type Memory struct {
	mu       sync.Mutex
	credits  []Credit
	balances map[string]int64
	attempts map[string]int
	failing  map[string]error

	// FailFunc, if set, is consulted before every credit; a non-nil result fails the call.
	FailFunc func(accountID string, amount int64) error
}

// NewMemory creates an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{
		balances: make(map[string]int64),
		attempts: make(map[string]int),
		failing:  make(map[string]error),
	}
}

// Credit records the credit unless a failure is injected for the account.
func (m *Memory) Credit(ctx context.Context, accountID string, amount int64) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCreditFailed, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.attempts[accountID]++

	if err, ok := m.failing[accountID]; ok {
		return fmt.Errorf("%w: account %s: %w", ErrCreditFailed, accountID, err)
	}
	if m.FailFunc != nil {
		if err := m.FailFunc(accountID, amount); err != nil {
			return fmt.Errorf("%w: account %s: %w", ErrCreditFailed, accountID, err)
		}
	}

	ref, _ := ReferenceFromContext(ctx)
	m.credits = append(m.credits, Credit{AccountID: accountID, Amount: amount, Reference: ref})
	m.balances[accountID] += amount

	return nil
}

// FailFor makes every credit to accountID fail with err until Recover is called.
func (m *Memory) FailFor(accountID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[accountID] = err
}

// Recover clears an injected failure for accountID.
func (m *Memory) Recover(accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.failing, accountID)
}

// Balance returns the total credited to accountID.
func (m *Memory) Balance(accountID string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[accountID]
}

// Attempts returns the number of credit calls made for accountID, including failures.
func (m *Memory) Attempts(accountID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts[accountID]
}

// TotalAttempts returns the number of credit calls across all accounts.
func (m *Memory) TotalAttempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.attempts {
		total += n
	}
	return total
}

// Credits returns a copy of the successful credits in the order they were applied.
func (m *Memory) Credits() []Credit {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Credit, len(m.credits))
	copy(out, m.credits)
	return out
}
