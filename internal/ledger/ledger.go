// Package ledger implements per-player money and token accounting.
// All functions are pure mutations of the player passed in; the caller
// (SessionManager) is responsible for holding the session lock.
package ledger

import (
	"github.com/abrezinsky/trackbet/internal/errors"
)

// Reserve consumes one token of the given denomination.
// Fails with an Exhausted error when the player has none left.
func Reserve(tokens, used map[int]int, denomination int) error {
	allocated, ok := tokens[denomination]
	if !ok {
		return errors.InvalidInputf("no such token denomination: %d", denomination)
	}
	if used[denomination] >= allocated {
		return errors.Exhaustedf("no $%d tokens available", denomination)
	}
	used[denomination]++
	return nil
}

// Release returns one token of the given denomination. Idempotent
// against double-release: the counter never goes below zero.
func Release(used map[int]int, denomination int) {
	if used[denomination] > 0 {
		used[denomination]--
	}
}

// Available reports how many tokens of a denomination remain
func Available(tokens, used map[int]int, denomination int) int {
	n := tokens[denomination] - used[denomination]
	if n < 0 {
		return 0
	}
	return n
}

// Credit adds winnings to a balance
func Credit(money int, amount int) int {
	return money + amount
}

// Debit subtracts a penalty from a balance. Losses never drive the
// balance negative.
func Debit(money int, amount int) int {
	money -= amount
	if money < 0 {
		return 0
	}
	return money
}

// ResetForRace zeroes the used-token counters for a new race. Money and
// VIP cards persist across races.
func ResetForRace(used map[int]int) {
	for denomination := range used {
		used[denomination] = 0
	}
}
