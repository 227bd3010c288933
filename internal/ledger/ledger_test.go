package ledger_test

import (
	"testing"

	"github.com/abrezinsky/trackbet/internal/catalog"
	"github.com/abrezinsky/trackbet/internal/errors"
	"github.com/abrezinsky/trackbet/internal/ledger"
)

func TestReserve_ConsumesToken(t *testing.T) {
	tokens := catalog.NewTokenAllocation()
	used := catalog.NewUsedTokens()

	if err := ledger.Reserve(tokens, used, 5); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	if used[5] != 1 {
		t.Errorf("expected used[5] == 1, got %d", used[5])
	}
}

func TestReserve_FailsWhenExhausted(t *testing.T) {
	tokens := catalog.NewTokenAllocation()
	used := catalog.NewUsedTokens()

	// The allocation has exactly one $5 token
	if err := ledger.Reserve(tokens, used, 5); err != nil {
		t.Fatalf("first Reserve failed: %v", err)
	}
	err := ledger.Reserve(tokens, used, 5)
	if err == nil {
		t.Fatal("expected error reserving a spent denomination")
	}
	if !errors.IsKind(err, errors.ErrExhausted) {
		t.Errorf("expected Exhausted kind, got %v", err)
	}
}

func TestReserve_UnknownDenomination(t *testing.T) {
	tokens := catalog.NewTokenAllocation()
	used := catalog.NewUsedTokens()

	err := ledger.Reserve(tokens, used, 7)
	if err == nil {
		t.Fatal("expected error for unknown denomination")
	}
	if !errors.IsKind(err, errors.ErrInvalidInput) {
		t.Errorf("expected InvalidInput kind, got %v", err)
	}
}

func TestReserve_MultipleOfSameDenomination(t *testing.T) {
	tokens := catalog.NewTokenAllocation()
	used := catalog.NewUsedTokens()

	// Two $3 tokens in the allocation
	if err := ledger.Reserve(tokens, used, 3); err != nil {
		t.Fatalf("first $3 Reserve failed: %v", err)
	}
	if err := ledger.Reserve(tokens, used, 3); err != nil {
		t.Fatalf("second $3 Reserve failed: %v", err)
	}
	if err := ledger.Reserve(tokens, used, 3); err == nil {
		t.Fatal("expected third $3 Reserve to fail")
	}
}

func TestRelease_RestoresToken(t *testing.T) {
	tokens := catalog.NewTokenAllocation()
	used := catalog.NewUsedTokens()

	if err := ledger.Reserve(tokens, used, 2); err != nil {
		t.Fatalf("Reserve failed: %v", err)
	}
	ledger.Release(used, 2)
	if used[2] != 0 {
		t.Errorf("expected used[2] == 0 after release, got %d", used[2])
	}

	// Round trip: the token is reservable again
	if err := ledger.Reserve(tokens, used, 2); err != nil {
		t.Errorf("Reserve after Release failed: %v", err)
	}
}

func TestRelease_IdempotentAtZero(t *testing.T) {
	used := catalog.NewUsedTokens()

	ledger.Release(used, 5)
	ledger.Release(used, 5)
	if used[5] != 0 {
		t.Errorf("expected counter floored at 0, got %d", used[5])
	}
}

func TestAvailable(t *testing.T) {
	tokens := map[int]int{3: 2}
	used := map[int]int{3: 1}

	if got := ledger.Available(tokens, used, 3); got != 1 {
		t.Errorf("expected 1 available, got %d", got)
	}
	used[3] = 5
	if got := ledger.Available(tokens, used, 3); got != 0 {
		t.Errorf("expected availability floored at 0, got %d", got)
	}
}

func TestCredit(t *testing.T) {
	if got := ledger.Credit(10, 15); got != 25 {
		t.Errorf("expected 25, got %d", got)
	}
}

func TestDebit_FloorsAtZero(t *testing.T) {
	tests := []struct {
		name   string
		money  int
		amount int
		want   int
	}{
		{"normal debit", 10, 3, 7},
		{"exact balance", 5, 5, 0},
		{"debit past zero", 2, 5, 0},
		{"zero balance", 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ledger.Debit(tt.money, tt.amount); got != tt.want {
				t.Errorf("Debit(%d, %d) = %d, want %d", tt.money, tt.amount, got, tt.want)
			}
		})
	}
}

func TestResetForRace_ZeroesUsedOnly(t *testing.T) {
	tokens := catalog.NewTokenAllocation()
	used := catalog.NewUsedTokens()

	for _, denomination := range []int{5, 3, 2, 1} {
		if err := ledger.Reserve(tokens, used, denomination); err != nil {
			t.Fatalf("Reserve $%d failed: %v", denomination, err)
		}
	}

	ledger.ResetForRace(used)

	for denomination, count := range used {
		if count != 0 {
			t.Errorf("expected used[%d] == 0, got %d", denomination, count)
		}
	}
	// The allocation itself is untouched
	if tokens[3] != 2 {
		t.Errorf("allocation mutated: tokens[3] = %d", tokens[3])
	}
}
