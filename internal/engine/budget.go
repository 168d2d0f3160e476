package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// ErrBudgetExceeded is matched by every BudgetExceededError.
var ErrBudgetExceeded = errors.New("evaluation budget exceeded")

// Budget bounds one evaluation. A step is one application of an arrow to
// one state. Either field may be zero to leave that dimension open, but the
// zero Budget as a whole stands for DefaultBudget; pass Unlimited to run
// without any bound.
type Budget struct {
	MaxSteps uint64        // Maximum steps (0 = no limit)
	Timeout  time.Duration // Wall-clock limit (0 = no limit)
}

var (
	// DefaultBudget is used when a caller passes the zero Budget.
	DefaultBudget = Budget{MaxSteps: 2_000_000, Timeout: 30 * time.Second}

	// Unlimited never trips. Only context cancellation stops it.
	Unlimited = Budget{MaxSteps: math.MaxUint64}
)

// IsZero reports whether no limit is set.
func (b Budget) IsZero() bool {
	return b.MaxSteps == 0 && b.Timeout == 0
}

// OrDefault returns DefaultBudget for the zero Budget and b otherwise.
func (b Budget) OrDefault() Budget {
	if b.IsZero() {
		return DefaultBudget
	}
	return b
}

// String returns a short description such as "10000 steps, 5s".
func (b Budget) String() string {
	steps, timeout := "unlimited steps", "no timeout"
	if b.MaxSteps > 0 && b.MaxSteps != math.MaxUint64 {
		steps = fmt.Sprintf("%d steps", b.MaxSteps)
	}
	if b.Timeout > 0 {
		timeout = b.Timeout.String()
	}
	return steps + ", " + timeout
}

// BudgetExceededError reports an evaluation aborted by its budget or by
// context cancellation. No partial result accompanies it.
type BudgetExceededError struct {
	Steps   uint64
	Budget  Budget
	Elapsed time.Duration
	Cause   error // context error, nil when the step limit tripped
}

func (e *BudgetExceededError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("evaluation budget exceeded after %d steps in %s: %v", e.Steps, e.Elapsed.Round(time.Millisecond), e.Cause)
	}
	return fmt.Sprintf("evaluation budget exceeded: %d steps > limit %d", e.Steps, e.Budget.MaxSteps)
}

// Is lets errors.Is match ErrBudgetExceeded.
func (e *BudgetExceededError) Is(target error) bool {
	return target == ErrBudgetExceeded
}

// Unwrap returns the context error, if any.
func (e *BudgetExceededError) Unwrap() error {
	return e.Cause
}

// meter tracks steps and time for one evaluation. It is shared by all
// workers of that evaluation.
type meter struct {
	ctx       context.Context
	budget    Budget
	startTime time.Time
	steps     atomic.Uint64
}

// newMeter derives the evaluation context, applying the budget timeout.
func newMeter(ctx context.Context, budget Budget) (*meter, context.CancelFunc) {
	cancel := context.CancelFunc(func() {})
	if budget.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, budget.Timeout)
	}
	return &meter{ctx: ctx, budget: budget, startTime: time.Now()}, cancel
}

// step charges n steps and reports whether the evaluation must stop.
func (m *meter) step(n uint64) error {
	total := m.steps.Add(n)
	if m.budget.MaxSteps > 0 && total > m.budget.MaxSteps {
		return &BudgetExceededError{Steps: total, Budget: m.budget, Elapsed: m.elapsed()}
	}
	if err := m.ctx.Err(); err != nil {
		return &BudgetExceededError{Steps: total, Budget: m.budget, Elapsed: m.elapsed(), Cause: err}
	}
	return nil
}

func (m *meter) elapsed() time.Duration {
	return time.Since(m.startTime)
}

// Steps returns the steps charged so far.
func (m *meter) Steps() uint64 {
	return m.steps.Load()
}
