package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai_creation_broker/store/memory"
	"ai_creation_broker/usage"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	s, err := NewService("top-secret", st)
	if err != nil {
		t.Fatal(err)
	}
	return s, st
}

func TestMintAndAuthenticate(t *testing.T) {
	s, st := newTestService(t)
	_ = st.UpdateFreeUsage(context.Background(), "user_1", 4)

	tok, err := s.Mint("user_1", usage.PlanPremium, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	p, err := s.Authenticate(context.Background(), "Bearer "+tok)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if p.UserID != "user_1" || p.Plan != usage.PlanPremium || p.FreeUsage != 4 {
		t.Errorf("principal = %+v", p)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	s, _ := newTestService(t)
	other, _ := NewService("other-secret", memory.New())
	foreign, _ := other.Mint("user_1", usage.PlanFree, time.Hour)

	s.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	expired, _ := s.Mint("user_1", usage.PlanFree, time.Hour)
	s.now = time.Now

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"empty", "", ErrMissingToken},
		{"no scheme", "abc.def.ghi", ErrMissingToken},
		{"bearer only", "Bearer ", ErrMissingToken},
		{"garbage", "Bearer not-a-jwt", ErrInvalidToken},
		{"wrong secret", "Bearer " + foreign, ErrInvalidToken},
		{"expired", "Bearer " + expired, ErrTokenExpired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Authenticate(context.Background(), tt.header)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUnknownPlanIsFree(t *testing.T) {
	s, _ := newTestService(t)
	tok, _ := s.Mint("user_2", usage.Plan("platinum"), 0)
	p, err := s.Authenticate(context.Background(), "bearer "+tok)
	if err != nil {
		t.Fatal(err)
	}
	if p.Plan != usage.PlanFree {
		t.Errorf("plan = %q, want free", p.Plan)
	}
}

func TestUpdateFreeUsageWritesThrough(t *testing.T) {
	s, st := newTestService(t)
	if err := s.UpdateFreeUsage(context.Background(), "user_3", 9); err != nil {
		t.Fatal(err)
	}
	if n, _ := st.FreeUsage(context.Background(), "user_3"); n != 9 {
		t.Errorf("got %d, want 9", n)
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := NewService("", memory.New()); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := NewService("s", nil); err == nil {
		t.Error("expected error for nil store")
	}
}
