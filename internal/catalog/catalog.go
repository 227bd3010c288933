// Package catalog holds the fixed betting board: the odds grid, the
// special/proposition/exotic bet pools, the VIP card pool, and the
// per-player token allocation. Everything here is read-only data.
package catalog

import (
	"fmt"

	"github.com/abrezinsky/trackbet/internal/models"
)

// Game configuration
const (
	MaxRaces      = 4
	MaxPlayers    = 9
	StartingMoney = 0
	MaxVIPCards   = 4

	// PropBetsPerRace is how many proposition bets rotate in each race
	PropBetsPerRace = 5

	// MaxExoticBettors caps how many distinct players may bet on the
	// same exotic finish
	MaxExoticBettors = 3
)

// Horses on the board, in post order
var Horses = []string{"2/3", "4", "5", "6", "7", "8", "9", "10", "11/12"}

// Horse color groups used by the special bets
var (
	BlueHorses   = []string{"2/3", "4", "10", "11/12"}
	OrangeHorses = []string{"5", "9"}
	RedHorses    = []string{"6", "8"}
)

// TokenAllocation is each player's fixed per-race token inventory,
// denomination -> count
var TokenAllocation = map[int]int{5: 1, 3: 2, 2: 1, 1: 1}

// Odds is one board cell: payout multiplier and loss penalty
// (0 means no penalty)
type Odds struct {
	Multiplier int
	Penalty    int
}

// Grid is the betting board, one row per horse in post order. Columns
// 0-1 are show, 2-3 are place, 4-6 are win.
var Grid = [9][7]Odds{
	{{4, 4}, {4, 3}, {5, 4}, {5, 3}, {7, 2}, {8, 2}, {9, 2}}, // 2/3
	{{3, 1}, {3, 0}, {4, 1}, {4, 0}, {5, 1}, {6, 0}, {7, 0}}, // 4
	{{2, 3}, {2, 0}, {2, 2}, {3, 2}, {4, 2}, {4, 0}, {5, 0}}, // 5
	{{1, 2}, {1, 0}, {2, 5}, {2, 4}, {3, 2}, {3, 1}, {3, 0}}, // 6
	{{1, 3}, {1, 1}, {2, 6}, {2, 5}, {3, 4}, {3, 3}, {3, 2}}, // 7
	{{1, 2}, {1, 0}, {2, 5}, {2, 4}, {3, 2}, {3, 1}, {3, 0}}, // 8
	{{2, 3}, {2, 0}, {2, 2}, {3, 2}, {4, 2}, {4, 0}, {5, 0}}, // 9
	{{3, 1}, {3, 0}, {4, 1}, {4, 0}, {5, 1}, {6, 0}, {7, 0}}, // 10
	{{4, 4}, {4, 3}, {5, 4}, {5, 3}, {7, 2}, {8, 2}, {9, 2}}, // 11/12
}

// SpecialBet is one of the fixed category bets on the board
type SpecialBet struct {
	Name       string
	Multiplier int
	Color      string
}

// SpecialBets in board order
var SpecialBets = []SpecialBet{
	{Name: "Blue Wins", Multiplier: 5, Color: "blue"},
	{Name: "Orange Wins", Multiplier: 3, Color: "orange"},
	{Name: "Red Wins", Multiplier: 2, Color: "red"},
	{Name: "7 Finishes 5th or Worse", Multiplier: 4, Color: "black"},
}

// SevenFadesBet is the special-bet name resolved against the show set
// rather than the win set
const SevenFadesBet = "7 Finishes 5th or Worse"

// PropBets is the full proposition bet pool
var PropBets = []models.PropBet{
	{ID: 1, Description: "Horse 8 > Horses 5 & 9", Multiplier: 3, Penalty: 3},
	{ID: 2, Description: "Horse 4 > Horse 9", Multiplier: 2, Penalty: 1},
	{ID: 3, Description: "Horse 8 > Horses 2/3, 4, 10, 11/12", Multiplier: 2, Penalty: 3},
	{ID: 4, Description: "Horse 9 > Horse 8", Multiplier: 2, Penalty: 1},
	{ID: 5, Description: "Horse 5 > Horse 8", Multiplier: 3, Penalty: 3},
	{ID: 6, Description: "Horse 4 > Horse 5", Multiplier: 3, Penalty: 3},
	{ID: 7, Description: "Horse 11/12 > Horse 8", Multiplier: 4, Penalty: 3},
	{ID: 8, Description: "Horse 9 > Horse 6", Multiplier: 3, Penalty: 3},
	{ID: 9, Description: "Horse 9 > Horse 7", Multiplier: 4, Penalty: 4},
	{ID: 10, Description: "Horse 7 > Horses 2/3 & 4 & 10 & 11/12", Multiplier: 2, Penalty: 6},
	{ID: 11, Description: "Horse 2/3 > Horse 5", Multiplier: 2, Penalty: 1},
	{ID: 12, Description: "Horse 10 > Horse 8", Multiplier: 3, Penalty: 2},
	{ID: 13, Description: "Horse 11/12 > Horse 9", Multiplier: 3, Penalty: 3},
	{ID: 14, Description: "Horse 2/3 > Horse 8", Multiplier: 4, Penalty: 3},
	{ID: 15, Description: "Horse 4 > Horse 6", Multiplier: 4, Penalty: 3},
	{ID: 16, Description: "Horse 10 > Horse 9", Multiplier: 2, Penalty: 1},
	{ID: 17, Description: "Horse 5 > Horse 6", Multiplier: 2, Penalty: 1},
	{ID: 18, Description: "Horse 11/12 > Horse 6", Multiplier: 3, Penalty: 2},
	{ID: 19, Description: "Horse 11/12 > Horse 5", Multiplier: 2, Penalty: 1},
	{ID: 20, Description: "Horse 4 > Horse 8", Multiplier: 3, Penalty: 2},
	{ID: 21, Description: "Horse 6 > Horses 2/3, 4, 10, 11/12", Multiplier: 3, Penalty: 5},
	{ID: 22, Description: "Horse 5 > Horse 7", Multiplier: 3, Penalty: 2},
	{ID: 23, Description: "Horse 2/3 > Horse 9", Multiplier: 3, Penalty: 3},
	{ID: 24, Description: "Horse 6 > Horse 5, 9", Multiplier: 3, Penalty: 3},
	{ID: 25, Description: "Horse 10 > Horse 5", Multiplier: 3, Penalty: 3},
	{ID: 26, Description: "Horse 2/3 > Horse 6", Multiplier: 3, Penalty: 2},
	{ID: 27, Description: "Horse 10 > Horse 6", Multiplier: 4, Penalty: 3},
	{ID: 28, Description: "Horse 7 > Horse 5 & 9", Multiplier: 2, Penalty: 5},
}

// ExoticFinishes is the full exotic finish pool
var ExoticFinishes = []models.ExoticFinish{
	{ID: 1, Name: "BY A NOSE", Description: "The 2nd place horse loses by exactly 1 space", Multiplier: 5, Penalty: 3},
	{ID: 2, Name: "BLOW OUT", Description: "The 2nd place horse loses by more than 5 spaces", Multiplier: 4, Penalty: 2},
	{ID: 3, Name: "TIGHT RACE", Description: "All horses move 6 or more spaces", Multiplier: 6, Penalty: 2},
	{ID: 4, Name: "LATE START", Description: "At least 2 horses move 3 or fewer spaces", Multiplier: 4, Penalty: 1},
	{ID: 5, Name: "PHOTO FINISH", Description: "The 3rd place horse loses by 3 or fewer spaces", Multiplier: 5, Penalty: 3},
}

// VIPCards is the bonus card pool drawn from after each race
var VIPCards = []models.VIPCard{
	{Name: "Lucky Seven", Effect: "Win $2 when 7 is rolled"},
	{Name: "Snake Eyes", Effect: "Win $3 when 2 is rolled"},
	{Name: "Boxcars", Effect: "Win $3 when 12 is rolled"},
	{Name: "Favorite", Effect: "Win $1 when your favorite horse wins"},
	{Name: "Longshot", Effect: "Win $2 when horses 2 or 12 place"},
	{Name: "Double Up", Effect: "Next winning bet pays double"},
	{Name: "Free Bet", Effect: "Place one bet without paying"},
	{Name: "Insurance", Effect: "Get $1 back on losing bets"},
}

// GridSpotKey builds the spot-key for a standard win/place/show cell
func GridSpotKey(horse string, betType models.BetType, row, col int) string {
	return fmt.Sprintf("%s_%s_%d_%d", horse, betType, row, col)
}

// SpecialSpotKey builds the spot-key for a special category bet
func SpecialSpotKey(name string) string {
	return fmt.Sprintf("special_%s", name)
}

// PropSpotKey builds the spot-key for a proposition bet
func PropSpotKey(id int) string {
	return fmt.Sprintf("prop_%d", id)
}

// ExoticSpotKey builds the player-qualified sub-key for an exotic finish
// bet. Up to MaxExoticBettors distinct players may hold sub-keys under
// the same exotic id.
func ExoticSpotKey(id int, playerName string) string {
	return fmt.Sprintf("exotic_%d_%s", id, playerName)
}

// HorseColor returns the color group of a horse, or "black" for 7
func HorseColor(horse string) string {
	for _, h := range BlueHorses {
		if h == horse {
			return "blue"
		}
	}
	for _, h := range OrangeHorses {
		if h == horse {
			return "orange"
		}
	}
	for _, h := range RedHorses {
		if h == horse {
			return "red"
		}
	}
	return "black"
}

// PropBetByID looks up a proposition bet definition
func PropBetByID(id int) (models.PropBet, bool) {
	for _, pb := range PropBets {
		if pb.ID == id {
			return pb, true
		}
	}
	return models.PropBet{}, false
}

// ExoticFinishByID looks up an exotic finish definition
func ExoticFinishByID(id int) (models.ExoticFinish, bool) {
	for _, ef := range ExoticFinishes {
		if ef.ID == id {
			return ef, true
		}
	}
	return models.ExoticFinish{}, false
}

// NewTokenAllocation returns a fresh copy of the per-player allocation
func NewTokenAllocation() map[int]int {
	alloc := make(map[int]int, len(TokenAllocation))
	for denom, count := range TokenAllocation {
		alloc[denom] = count
	}
	return alloc
}

// NewUsedTokens returns a zeroed used-token counter map
func NewUsedTokens() map[int]int {
	used := make(map[int]int, len(TokenAllocation))
	for denom := range TokenAllocation {
		used[denom] = 0
	}
	return used
}
