package models

import "time"

// SessionStatus is the lifecycle state of a game session
type SessionStatus string

const (
	StatusWaiting   SessionStatus = "waiting"
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// BetType classifies a bet by how it resolves against race results
type BetType string

const (
	BetWin     BetType = "win"
	BetPlace   BetType = "place"
	BetShow    BetType = "show"
	BetSpecial BetType = "special"
	BetProp    BetType = "prop"
	BetExotic  BetType = "exotic"
)

// Session is the authoritative state of one multi-race game.
// Players and bets are owned by the session and referenced by
// name/spot-key; there are no back-pointers.
type Session struct {
	ID          string        `json:"session_id"`
	Status      SessionStatus `json:"status"`
	CurrentRace int           `json:"current_race"`
	MaxRaces    int           `json:"max_races"`
	RaceActive  bool          `json:"race_active"`
	MaxPlayers  int           `json:"max_players"`

	// LockedSpots maps spot-key to the owning player's name. It is the
	// single source of truth for spot exclusivity.
	LockedSpots map[string]string `json:"locked_spots"`

	Players map[string]*Player `json:"players"` // keyed by name
	Bets    map[string]*Bet    `json:"bets"`    // keyed by spot-key

	UsedPropBets          []int          `json:"used_prop_bets"`
	CurrentPropBets       []PropBet      `json:"current_prop_bets"`
	UsedExoticFinishes    []int          `json:"used_exotic_finishes"`
	CurrentExoticFinishes []ExoticFinish `json:"current_exotic_finishes"`

	// GameLog is the human-readable append-only log broadcast with
	// every snapshot; the structured event history lives in the
	// repository's event table.
	GameLog []string `json:"game_log"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Player is one participant in a session. The reconnect token is the
// only credential needed to resume the identity; it never appears in
// broadcast snapshots.
type Player struct {
	Token      string      `json:"-"`
	Name       string      `json:"name"`
	Money      int         `json:"money"`
	VIPCards   []VIPCard   `json:"vip_cards"`
	Tokens     map[int]int `json:"tokens"`      // denomination -> allocation
	UsedTokens map[int]int `json:"used_tokens"` // denomination -> consumed this race
	Connected  bool        `json:"is_connected"`
	JoinedAt   time.Time   `json:"joined_at"`
	LastSeen   time.Time   `json:"last_seen"`
}

// Bet is a single wager occupying one spot on the board
type Bet struct {
	Player         string  `json:"player"`
	Horse          string  `json:"horse"`
	BetType        BetType `json:"bet_type"`
	Multiplier     int     `json:"multiplier"`
	Penalty        int     `json:"penalty"`
	TokenValue     int     `json:"token_value"`
	SpotKey        string  `json:"spot_key"`
	RaceNumber     int     `json:"race_number"`
	Row            *int    `json:"row,omitempty"`
	Col            *int    `json:"col,omitempty"`
	PropBetID      int     `json:"prop_bet_id,omitempty"`
	ExoticFinishID int     `json:"exotic_finish_id,omitempty"`
	PlacedAt       time.Time `json:"placed_at"`
}

// Payout is the amount credited if the bet wins
func (b *Bet) Payout() int {
	return b.TokenValue * b.Multiplier
}

// PropBet is an immutable catalog definition of a proposition bet
type PropBet struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Multiplier  int    `json:"multiplier"`
	Penalty     int    `json:"penalty"`
}

// ExoticFinish is an immutable catalog definition of an exotic finish bet
type ExoticFinish struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Multiplier  int    `json:"multiplier"`
	Penalty     int    `json:"penalty"`
}

// VIPCard is a bonus card granted after each race settlement
type VIPCard struct {
	Name   string `json:"name"`
	Effect string `json:"effect"`
}

// RaceResults is the manually entered outcome of a race
type RaceResults struct {
	WinHorses           []string     `json:"win_horses"`
	PlaceHorses         []string     `json:"place_horses"`
	ShowHorses          []string     `json:"show_horses"`
	PropBetResults      map[int]bool `json:"prop_bet_results"`
	ExoticFinishResults map[int]bool `json:"exotic_finish_results"`
}

// InSet reports whether horse appears in the named result set
func (r *RaceResults) InSet(horse string, betType BetType) bool {
	var set []string
	switch betType {
	case BetWin:
		set = r.WinHorses
	case BetPlace:
		set = r.PlaceHorses
	case BetShow:
		set = r.ShowHorses
	default:
		return false
	}
	for _, h := range set {
		if h == horse {
			return true
		}
	}
	return false
}

// Event is one append-only entry in a session's game log
type Event struct {
	ID         int64                  `json:"id,omitempty"`
	SessionID  string                 `json:"session_id"`
	Type       string                 `json:"event_type"`
	Data       map[string]interface{} `json:"event_data,omitempty"`
	PlayerName string                 `json:"player_name,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// Snapshot is the read-only projection of a session that gets broadcast
// to clients. It carries everything needed to render and nothing else:
// no reconnect tokens, no internal locks.
type Snapshot struct {
	SessionID             string            `json:"session_id"`
	Status                SessionStatus     `json:"status"`
	CurrentRace           int               `json:"current_race"`
	MaxRaces              int               `json:"max_races"`
	RaceActive            bool              `json:"race_active"`
	LockedSpots           map[string]string `json:"locked_spots"`
	CurrentPropBets       []PropBet         `json:"current_prop_bets"`
	CurrentExoticFinishes []ExoticFinish    `json:"current_exotic_finishes"`
	Players               []PlayerView      `json:"players"`
	CurrentBets           []Bet             `json:"current_bets"`
	GameLog               []string          `json:"game_log"`
}

// PlayerView is the client-facing projection of a player
type PlayerView struct {
	Name       string         `json:"name"`
	Money      int            `json:"money"`
	VIPCards   []VIPCard      `json:"vip_cards"`
	Tokens     map[string]int `json:"tokens"`
	UsedTokens map[string]int `json:"used_tokens"`
	Connected  bool           `json:"is_connected"`
}
