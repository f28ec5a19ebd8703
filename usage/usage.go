// Package usage implements the free-tier quota ledger.
//
// A user's plan and free-usage counter are owned by the identity service;
// the ledger only reads them to answer IsAllowed and writes them back through
// Directory.UpdateFreeUsage. Check and record are separate calls, so two
// concurrent requests from the same free user can both pass the check with
// the counter at FreeUsageLimit-1.
package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Plan is a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
)

// ParsePlan maps anything other than "premium" to PlanFree.
func ParsePlan(s string) Plan {
	if Plan(s) == PlanPremium {
		return PlanPremium
	}
	return PlanFree
}

// IsPremium reports whether p is the premium tier.
func (p Plan) IsPremium() bool { return p == PlanPremium }

// Tier classifies a feature for gating.
type Tier int

const (
	// TierUnrestricted features skip the ledger entirely.
	TierUnrestricted Tier = iota
	// TierFree features are open to free users up to FreeUsageLimit uses.
	TierFree
	// TierPremium features require the premium plan.
	TierPremium
)

func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierPremium:
		return "premium"
	default:
		return "unrestricted"
	}
}

// FreeUsageLimit is the number of quota-gated uses a free user gets.
const FreeUsageLimit = 10

// Denial reasons.
var (
	ErrPremiumRequired = errors.New("usage: premium plan required")
	ErrQuotaExhausted  = errors.New("usage: free quota exhausted")
)

// IsAllowed reports whether a user on plan with freeUsage recorded uses may
// call a feature of the given tier.
func IsAllowed(plan Plan, freeUsage int, tier Tier) bool {
	return Check(plan, freeUsage, tier) == nil
}

// Check is IsAllowed returning the denial reason.
func Check(plan Plan, freeUsage int, tier Tier) error {
	switch tier {
	case TierPremium:
		if !plan.IsPremium() {
			return ErrPremiumRequired
		}
	case TierFree:
		if !plan.IsPremium() && freeUsage >= FreeUsageLimit {
			return ErrQuotaExhausted
		}
	}
	return nil
}

// Remaining returns how many quota-gated uses are left, or -1 for unlimited.
func Remaining(plan Plan, freeUsage int) int {
	if plan.IsPremium() {
		return -1
	}
	if freeUsage >= FreeUsageLimit {
		return 0
	}
	return FreeUsageLimit - freeUsage
}

// Directory is the identity collaborator's write side.
type Directory interface {
	UpdateFreeUsage(ctx context.Context, userID string, value int) error
}

// Ledger records quota consumption through a Directory.
type Ledger struct {
	dir    Directory
	logger *slog.Logger
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

func NewLedger(dir Directory, opts ...Option) *Ledger {
	l := &Ledger{dir: dir, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordUse persists freeUsage+1 for non-premium users and does nothing for premium ones.
func (l *Ledger) RecordUse(ctx context.Context, userID string, plan Plan, freeUsage int) error {
	if plan.IsPremium() {
		return nil
	}
	next := freeUsage + 1
	if err := l.dir.UpdateFreeUsage(ctx, userID, next); err != nil {
		return fmt.Errorf("usage: record use for %s: %w", userID, err)
	}
	l.logger.Debug("free usage recorded", "user_id", userID, "free_usage", next)
	return nil
}
