package usage_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ai_creation_broker/usage"
)

type fakeDirectory struct {
	mu      sync.Mutex
	updates map[string][]int
	err     error
}

func (d *fakeDirectory) UpdateFreeUsage(_ context.Context, userID string, value int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if d.updates == nil {
		d.updates = make(map[string][]int)
	}
	d.updates[userID] = append(d.updates[userID], value)
	return nil
}

func TestIsAllowedFreeTier(t *testing.T) {
	for n := 0; n <= 9; n++ {
		if !usage.IsAllowed(usage.PlanFree, n, usage.TierFree) {
			t.Errorf("free user with %d uses should be allowed", n)
		}
	}
	for _, n := range []int{10, 11, 50} {
		if usage.IsAllowed(usage.PlanFree, n, usage.TierFree) {
			t.Errorf("free user with %d uses should be denied", n)
		}
		if err := usage.Check(usage.PlanFree, n, usage.TierFree); !errors.Is(err, usage.ErrQuotaExhausted) {
			t.Errorf("Check(%d) = %v, want ErrQuotaExhausted", n, err)
		}
	}
}

func TestIsAllowedPremium(t *testing.T) {
	for _, n := range []int{0, 9, 10, 1000} {
		if !usage.IsAllowed(usage.PlanPremium, n, usage.TierFree) {
			t.Errorf("premium user should pass free tier at %d", n)
		}
		if !usage.IsAllowed(usage.PlanPremium, n, usage.TierPremium) {
			t.Errorf("premium user should pass premium tier at %d", n)
		}
	}
}

func TestPremiumOnlyDeniesFreePlan(t *testing.T) {
	for _, n := range []int{0, 5, 10} {
		err := usage.Check(usage.PlanFree, n, usage.TierPremium)
		if !errors.Is(err, usage.ErrPremiumRequired) {
			t.Errorf("Check(free, %d, premium) = %v, want ErrPremiumRequired", n, err)
		}
	}
}

func TestUnrestrictedAlwaysAllowed(t *testing.T) {
	if !usage.IsAllowed(usage.PlanFree, 999, usage.TierUnrestricted) {
		t.Error("unrestricted feature should ignore quota")
	}
}

func TestParsePlan(t *testing.T) {
	tests := map[string]usage.Plan{
		"premium": usage.PlanPremium,
		"free":    usage.PlanFree,
		"":        usage.PlanFree,
		"gold":    usage.PlanFree,
	}
	for in, want := range tests {
		if got := usage.ParsePlan(in); got != want {
			t.Errorf("ParsePlan(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRemaining(t *testing.T) {
	if got := usage.Remaining(usage.PlanFree, 3); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
	if got := usage.Remaining(usage.PlanFree, 12); got != 0 {
		t.Errorf("got %d, want 0", got)
	}
	if got := usage.Remaining(usage.PlanPremium, 12); got != -1 {
		t.Errorf("got %d, want -1", got)
	}
}

func TestRecordUse(t *testing.T) {
	dir := &fakeDirectory{}
	l := usage.NewLedger(dir)
	ctx := context.Background()

	if err := l.RecordUse(ctx, "u1", usage.PlanFree, 9); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordUse(ctx, "u2", usage.PlanPremium, 3); err != nil {
		t.Fatal(err)
	}

	if got := dir.updates["u1"]; len(got) != 1 || got[0] != 10 {
		t.Errorf("u1 updates = %v, want [10]", got)
	}
	if _, ok := dir.updates["u2"]; ok {
		t.Error("premium user must not touch the counter")
	}
}

func TestRecordUseWrapsDirectoryError(t *testing.T) {
	boom := errors.New("identity service down")
	l := usage.NewLedger(&fakeDirectory{err: boom})
	if err := l.RecordUse(context.Background(), "u1", usage.PlanFree, 0); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped %v", err, boom)
	}
}
