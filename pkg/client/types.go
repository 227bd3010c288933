package client

import "encoding/json"

// Message is the WebSocket envelope in both directions. Unused fields
// stay empty; Data is left raw so callers decode only the payloads they
// care about.
type Message struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	SpotKey    string          `json:"spot_key,omitempty"`
	PlayerName string          `json:"player_name,omitempty"`
	RaceNumber int             `json:"race_number,omitempty"`
	Results    json.RawMessage `json:"results,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// Message types the server sends
const (
	MsgStateSync          = "state_sync"
	MsgPlayerConnected    = "player_connected"
	MsgPlayerDisconnected = "player_disconnected"
	MsgRaceStarted        = "race_started"
	MsgRaceEnded          = "race_ended"
	MsgGameCompleted      = "game_completed"
	MsgError              = "error"
)

// BetRequest is the payload of a place_bet message
type BetRequest struct {
	Horse          string `json:"horse"`
	BetType        string `json:"bet_type"`
	Multiplier     int    `json:"multiplier"`
	Penalty        int    `json:"penalty"`
	TokenValue     int    `json:"token_value"`
	SpotKey        string `json:"spot_key"`
	Row            *int   `json:"row,omitempty"`
	Col            *int   `json:"col,omitempty"`
	PropBetID      int    `json:"prop_bet_id,omitempty"`
	ExoticFinishID int    `json:"exotic_finish_id,omitempty"`
}

// RaceResults is the payload of an end_race message
type RaceResults struct {
	WinHorses           []string     `json:"win_horses"`
	PlaceHorses         []string     `json:"place_horses"`
	ShowHorses          []string     `json:"show_horses"`
	PropBetResults      map[int]bool `json:"prop_bet_results"`
	ExoticFinishResults map[int]bool `json:"exotic_finish_results"`
}

// SessionState is the state_sync payload
type SessionState struct {
	SessionID             string            `json:"session_id"`
	Status                string            `json:"status"`
	CurrentRace           int               `json:"current_race"`
	MaxRaces              int               `json:"max_races"`
	RaceActive            bool              `json:"race_active"`
	LockedSpots           map[string]string `json:"locked_spots"`
	CurrentPropBets       []PropBet         `json:"current_prop_bets"`
	CurrentExoticFinishes []ExoticFinish    `json:"current_exotic_finishes"`
	Players               []Player          `json:"players"`
	CurrentBets           []Bet             `json:"current_bets"`
	GameLog               []string          `json:"game_log"`
}

// Player is the roster entry within a SessionState
type Player struct {
	Name       string         `json:"name"`
	Money      int            `json:"money"`
	VIPCards   []VIPCard      `json:"vip_cards"`
	Tokens     map[string]int `json:"tokens"`
	UsedTokens map[string]int `json:"used_tokens"`
	Connected  bool           `json:"is_connected"`
}

// Bet mirrors a placed bet within a SessionState
type Bet struct {
	Player         string `json:"player"`
	Horse          string `json:"horse"`
	BetType        string `json:"bet_type"`
	Multiplier     int    `json:"multiplier"`
	Penalty        int    `json:"penalty"`
	TokenValue     int    `json:"token_value"`
	SpotKey        string `json:"spot_key"`
	RaceNumber     int    `json:"race_number"`
	Row            *int   `json:"row,omitempty"`
	Col            *int   `json:"col,omitempty"`
	PropBetID      int    `json:"prop_bet_id,omitempty"`
	ExoticFinishID int    `json:"exotic_finish_id,omitempty"`
}

// PropBet is a rotating proposition bet definition
type PropBet struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Multiplier  int    `json:"multiplier"`
	Penalty     int    `json:"penalty"`
}

// ExoticFinish is an exotic finish bet definition
type ExoticFinish struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Multiplier  int    `json:"multiplier"`
	Penalty     int    `json:"penalty"`
}

// VIPCard is a bonus card held by a player
type VIPCard struct {
	Name   string `json:"name"`
	Effect string `json:"effect"`
}
