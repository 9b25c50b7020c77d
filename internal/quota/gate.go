package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonathan/mapleads/internal/types"
)

// Store persists one QuotaState per account.
type Store interface {
	// Get returns the zero state for an unknown account.
	Get(ctx context.Context, account string) (types.QuotaState, error)
	Set(ctx context.Context, account string, state types.QuotaState) error
}

// Status is a snapshot of an account's usage.
type Status struct {
	Account   string           `json:"account"`
	State     types.QuotaState `json:"state"`
	Limit     int              `json:"limit"`
	Remaining int              `json:"remaining"`
	Admin     bool             `json:"admin"`
}

// Gate admits enrichment requests against a persistent daily counter.
// Get-check-set is not atomic: concurrent sessions of one account can overshoot.
type Gate struct {
	Store  Store
	Limits Limits
	Now    func() time.Time
	Admin  bool

	logger *slog.Logger
}

// NewGate creates a gate using local wall-clock time. A nil limits selects DefaultLimits.
func NewGate(store Store, limits Limits, admin bool, logger *slog.Logger) *Gate {
	if limits == nil {
		limits = DefaultLimits()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		Store:  store,
		Limits: limits,
		Now:    time.Now,
		Admin:  admin,
		logger: logger.With("component", "quota"),
	}
}

func (g *Gate) today() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	return now().Format(DateLayout)
}

func (g *Gate) limits() Limits {
	if g.Limits == nil {
		return DefaultLimits()
	}
	return g.Limits
}

func (g *Gate) log() *slog.Logger {
	if g.logger == nil {
		return slog.Default().With("component", "quota")
	}
	return g.logger
}

// CheckAndAdmit admits a request for requested leads. A day rollover or tier change is
// persisted even when the request is denied.
func (g *Gate) CheckAndAdmit(ctx context.Context, account string, requested int, tier types.Tier) (types.QuotaState, error) {
	stored, err := g.Store.Get(ctx, account)
	if err != nil {
		return types.QuotaState{}, fmt.Errorf("failed to read quota for %s: %w", account, err)
	}

	state, admitErr := g.limits().Admit(stored, g.today(), requested, tier, g.Admin)
	if state != stored {
		if err := g.Store.Set(ctx, account, state); err != nil {
			return state, fmt.Errorf("failed to persist quota for %s: %w", account, err)
		}
	}

	if admitErr != nil {
		g.log().Warn("quota denied", "account", account, "tier", tier, "used", state.Count, "requested", requested)
		return state, admitErr
	}
	g.log().Debug("quota admitted", "account", account, "tier", tier, "used", state.Count, "requested", requested)
	return state, nil
}

// Record adds n processed leads to today's count.
func (g *Gate) Record(ctx context.Context, account string, n int) (types.QuotaState, error) {
	state, err := g.Store.Get(ctx, account)
	if err != nil {
		return types.QuotaState{}, fmt.Errorf("failed to read quota for %s: %w", account, err)
	}

	state = Roll(state, g.today())
	state.Count += max(n, 0)
	if state.Tier == "" {
		state.Tier = types.TierFree
	}
	if err := g.Store.Set(ctx, account, state); err != nil {
		return state, fmt.Errorf("failed to persist quota for %s: %w", account, err)
	}
	return state, nil
}

// Status returns today's usage for account without modifying it.
func (g *Gate) Status(ctx context.Context, account string) (Status, error) {
	state, err := g.Store.Get(ctx, account)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read quota for %s: %w", account, err)
	}

	state = Roll(state, g.today())
	if state.Tier == "" {
		state.Tier = types.TierFree
	}
	limit := g.limits().For(state.Tier)
	return Status{
		Account:   account,
		State:     state,
		Limit:     limit,
		Remaining: max(limit-state.Count, 0),
		Admin:     g.Admin,
	}, nil
}

// Reset clears today's count, keeping the tier.
func (g *Gate) Reset(ctx context.Context, account string) error {
	state, err := g.Store.Get(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to read quota for %s: %w", account, err)
	}
	state.Date = g.today()
	state.Count = 0
	if err := g.Store.Set(ctx, account, state); err != nil {
		return fmt.Errorf("failed to persist quota for %s: %w", account, err)
	}
	return nil
}
