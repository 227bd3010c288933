// Package payout evaluates placed bets against manually entered race
// results and settles player balances and bonus cards.
package payout

import (
	"fmt"
	"math/rand"

	"github.com/abrezinsky/trackbet/internal/catalog"
	"github.com/abrezinsky/trackbet/internal/ledger"
	"github.com/abrezinsky/trackbet/internal/models"
)

// Engine resolves a race's bets. The rand source is injectable so VIP
// card draws are deterministic under test.
type Engine struct {
	rng *rand.Rand
}

// New creates an Engine drawing VIP cards from the given source
func New(rng *rand.Rand) *Engine {
	return &Engine{rng: rng}
}

// Settle resolves every bet against the results, mutating player
// balances in place, then deals one VIP card to each player still in
// the session (cap 4, held cards are never removed).
//
// The returned winner/loser summaries are for logging and broadcast
// only; the mutated player state is the source of truth.
func (e *Engine) Settle(bets map[string]*models.Bet, players map[string]*models.Player, results *models.RaceResults) (winners, losers []string) {
	for _, bet := range bets {
		player, ok := players[bet.Player]
		if !ok {
			continue
		}

		if e.won(bet, results) {
			amount := bet.Payout()
			player.Money = ledger.Credit(player.Money, amount)
			winners = append(winners, fmt.Sprintf("%s: +$%d (%s with $%d token)",
				bet.Player, amount, bet.BetType, bet.TokenValue))
		} else if bet.Penalty > 0 {
			player.Money = ledger.Debit(player.Money, bet.Penalty)
			losers = append(losers, fmt.Sprintf("%s: -$%d penalty (%s with $%d token)",
				bet.Player, bet.Penalty, bet.BetType, bet.TokenValue))
		}
	}

	e.dealVIPCards(players)

	return winners, losers
}

// won resolves a single bet by category
func (e *Engine) won(bet *models.Bet, results *models.RaceResults) bool {
	switch bet.BetType {
	case models.BetWin, models.BetPlace, models.BetShow:
		return results.InSet(bet.Horse, bet.BetType)

	case models.BetSpecial:
		return specialBetWon(bet.Horse, results)

	case models.BetProp:
		// A prop bet with no declared outcome loses; it never silently
		// succeeds.
		return results.PropBetResults[bet.PropBetID]

	case models.BetExotic:
		return results.ExoticFinishResults[bet.ExoticFinishID]
	}
	return false
}

// specialBetWon resolves the fixed category bets. For the color bets the
// horse field carries the bet name; the color set must intersect the win
// set. "7 Finishes 5th or Worse" wins iff horse 7 is absent from the
// show set.
func specialBetWon(name string, results *models.RaceResults) bool {
	switch name {
	case "Blue Wins":
		return anyInWinSet(catalog.BlueHorses, results)
	case "Orange Wins":
		return anyInWinSet(catalog.OrangeHorses, results)
	case "Red Wins":
		return anyInWinSet(catalog.RedHorses, results)
	case catalog.SevenFadesBet:
		return !results.InSet("7", models.BetShow)
	}
	return false
}

func anyInWinSet(horses []string, results *models.RaceResults) bool {
	for _, h := range horses {
		if results.InSet(h, models.BetWin) {
			return true
		}
	}
	return false
}

// dealVIPCards gives each player one random card from the pool, capped
// at MaxVIPCards per player
func (e *Engine) dealVIPCards(players map[string]*models.Player) {
	for _, player := range players {
		if len(player.VIPCards) >= catalog.MaxVIPCards {
			continue
		}
		card := catalog.VIPCards[e.rng.Intn(len(catalog.VIPCards))]
		player.VIPCards = append(player.VIPCards, card)
	}
}
