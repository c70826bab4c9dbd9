package comic

import (
	"errors"
	"sync"
)

// ErrInsufficientCredits is returned when a video job is requested with an
// exhausted credit budget. No submission is made in that case.
var ErrInsufficientCredits = errors.New("comic: insufficient video credits")

// CreditLedger is the scarce counter gating video generation. It is
// initialized to a fixed allotment, decremented by exactly one per successful
// video completion, floored at zero, and never incremented.
type CreditLedger struct {
	mu        sync.Mutex
	remaining int
}

// NewCreditLedger creates a ledger with the given starting allotment.
// A negative allotment is treated as zero.
func NewCreditLedger(allotment int) *CreditLedger {
	if allotment < 0 {
		allotment = 0
	}
	return &CreditLedger{remaining: allotment}
}

// Remaining returns the current budget.
func (l *CreditLedger) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}

// Reserve checks that at least one credit is available before a video job is
// submitted. It does not decrement: a failed or timed-out job is never
// charged.
func (l *CreditLedger) Reserve() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.remaining == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// Spend decrements the budget by one, floored at zero. Called exactly once
// per successful video completion.
func (l *CreditLedger) Spend() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.remaining > 0 {
		l.remaining--
	}
}
