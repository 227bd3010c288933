package catalog_test

import (
	"testing"

	"github.com/abrezinsky/trackbet/internal/catalog"
	"github.com/abrezinsky/trackbet/internal/models"
)

func TestGrid_OneRowPerHorse(t *testing.T) {
	if len(catalog.Grid) != len(catalog.Horses) {
		t.Fatalf("grid has %d rows for %d horses", len(catalog.Grid), len(catalog.Horses))
	}
}

func TestGrid_MirroredOddsAcrossThePost(t *testing.T) {
	// The board is symmetric: 2/3 matches 11/12, 4 matches 10, and so
	// on, with 7 alone in the middle.
	for row := 0; row < len(catalog.Grid)/2; row++ {
		mirror := len(catalog.Grid) - 1 - row
		if catalog.Grid[row] != catalog.Grid[mirror] {
			t.Errorf("row %d (%s) does not mirror row %d (%s)",
				row, catalog.Horses[row], mirror, catalog.Horses[mirror])
		}
	}
}

func TestSpotKeys_Formats(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"grid", catalog.GridSpotKey("7", models.BetWin, 4, 4), "7_win_4_4"},
		{"grid combined horse", catalog.GridSpotKey("2/3", models.BetShow, 0, 1), "2/3_show_0_1"},
		{"special", catalog.SpecialSpotKey("Blue Wins"), "special_Blue Wins"},
		{"prop", catalog.PropSpotKey(12), "prop_12"},
		{"exotic", catalog.ExoticSpotKey(3, "alice"), "exotic_3_alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestHorseColor(t *testing.T) {
	tests := []struct {
		horse string
		want  string
	}{
		{"2/3", "blue"},
		{"4", "blue"},
		{"10", "blue"},
		{"11/12", "blue"},
		{"5", "orange"},
		{"9", "orange"},
		{"6", "red"},
		{"8", "red"},
		{"7", "black"},
	}

	for _, tt := range tests {
		if got := catalog.HorseColor(tt.horse); got != tt.want {
			t.Errorf("HorseColor(%q) = %q, want %q", tt.horse, got, tt.want)
		}
	}
}

func TestPropBetByID(t *testing.T) {
	pb, ok := catalog.PropBetByID(10)
	if !ok {
		t.Fatal("expected prop 10 to exist")
	}
	if pb.Multiplier != 2 || pb.Penalty != 6 {
		t.Errorf("prop 10 odds = %d/%d, want 2/6", pb.Multiplier, pb.Penalty)
	}

	if _, ok := catalog.PropBetByID(999); ok {
		t.Error("expected lookup of unknown prop to fail")
	}
}

func TestExoticFinishByID(t *testing.T) {
	ef, ok := catalog.ExoticFinishByID(3)
	if !ok {
		t.Fatal("expected exotic 3 to exist")
	}
	if ef.Name != "TIGHT RACE" {
		t.Errorf("exotic 3 name = %q", ef.Name)
	}

	if _, ok := catalog.ExoticFinishByID(0); ok {
		t.Error("expected lookup of unknown exotic to fail")
	}
}

func TestNewTokenAllocation_ReturnsIndependentCopies(t *testing.T) {
	a := catalog.NewTokenAllocation()
	b := catalog.NewTokenAllocation()

	a[5] = 0

	if b[5] != catalog.TokenAllocation[5] {
		t.Error("allocations share backing storage")
	}
	if catalog.TokenAllocation[5] != 1 {
		t.Error("shared allocation table was mutated")
	}
}

func TestNewUsedTokens_CoversEveryDenomination(t *testing.T) {
	used := catalog.NewUsedTokens()
	for denom := range catalog.TokenAllocation {
		if count, ok := used[denom]; !ok || count != 0 {
			t.Errorf("denomination %d: got %d,%v, want 0,true", denom, count, ok)
		}
	}
}
