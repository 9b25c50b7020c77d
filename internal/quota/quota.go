// Package quota enforces the daily lead cap of each account tier.
package quota

import (
	"errors"
	"fmt"

	"github.com/jonathan/mapleads/internal/types"
)

// DateLayout is the calendar-day format stored in QuotaState.Date.
const DateLayout = "2006-01-02"

// Limits maps each tier to its daily lead cap.
type Limits map[types.Tier]int

// DefaultLimits returns the caps of the published plans.
func DefaultLimits() Limits {
	return Limits{
		types.TierFree:       10,
		types.TierStarter:    33,
		types.TierPro:        166,
		types.TierEnterprise: 999999,
	}
}

// For returns the cap of tier. Unknown tiers get the free cap.
func (l Limits) For(tier types.Tier) int {
	if limit, ok := l[tier]; ok {
		return limit
	}
	if limit, ok := l[types.TierFree]; ok {
		return limit
	}
	return DefaultLimits()[types.TierFree]
}

// LimitError is returned when a request would exceed the daily cap.
type LimitError struct {
	Tier      types.Tier
	Limit     int
	Used      int
	Requested int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("Daily limit reached (%d leads). Please upgrade your plan.", e.Limit)
}

// IsDenied reports whether err is a quota denial.
func IsDenied(err error) bool {
	var limitErr *LimitError
	return errors.As(err, &limitErr)
}

// Roll starts a new day: the count resets when state belongs to another date.
func Roll(state types.QuotaState, today string) types.QuotaState {
	if state.Date != today {
		state.Date = today
		state.Count = 0
	}
	return state
}

// Admit checks a request of requested leads against the default limits.
func Admit(state types.QuotaState, today string, requested int, tier types.Tier, admin bool) (types.QuotaState, error) {
	return DefaultLimits().Admit(state, today, requested, tier, admin)
}

// Admit rolls state to today and checks whether requested more leads fit under the
// tier's cap. A request for zero leads is checked as one. Admins are never denied.
// The returned state is rolled but not incremented; see Gate.Record.
func (l Limits) Admit(state types.QuotaState, today string, requested int, tier types.Tier, admin bool) (types.QuotaState, error) {
	state = Roll(state, today)
	state.Tier = tier
	if admin {
		return state, nil
	}

	limit := l.For(tier)
	need := max(requested, 1)
	if state.Count+need > limit {
		return state, &LimitError{Tier: tier, Limit: limit, Used: state.Count, Requested: requested}
	}
	return state, nil
}
