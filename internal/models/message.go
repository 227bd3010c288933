package models

import "encoding/json"

// MessageType tags a WebSocket envelope. The inbound set is closed:
// the gateway dispatches over exactly these six kinds and answers
// anything else with an error message.
type MessageType string

// Inbound message types (client -> server)
const (
	MsgPlaceBet     MessageType = "place_bet"
	MsgRemoveBet    MessageType = "remove_bet"
	MsgStartRace    MessageType = "start_race"
	MsgEndRace      MessageType = "end_race"
	MsgNextRace     MessageType = "next_race"
	MsgRequestState MessageType = "request_state"
)

// Outbound message types (server -> client)
const (
	MsgStateSync          MessageType = "state_sync"
	MsgPlayerConnected    MessageType = "player_connected"
	MsgPlayerDisconnected MessageType = "player_disconnected"
	MsgRaceStarted        MessageType = "race_started"
	MsgRaceEnded          MessageType = "race_ended"
	MsgGameCompleted      MessageType = "game_completed"
	MsgError              MessageType = "error"
)

// Inbound is the envelope for client messages. Data stays raw until the
// gateway knows the type; remove_bet carries its spot key at the top
// level of the envelope.
type Inbound struct {
	Type    MessageType     `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	SpotKey string          `json:"spot_key,omitempty"`
}

// Outbound is the envelope for server messages
type Outbound struct {
	Type       MessageType  `json:"type"`
	Data       interface{}  `json:"data,omitempty"`
	PlayerName string       `json:"player_name,omitempty"`
	RaceNumber int          `json:"race_number,omitempty"`
	Results    *RaceResults `json:"results,omitempty"`
	Message    string       `json:"message,omitempty"`
}

// BetRequest is the payload of a place_bet message
type BetRequest struct {
	Horse          string  `json:"horse"`
	BetType        BetType `json:"bet_type"`
	Multiplier     int     `json:"multiplier"`
	Penalty        int     `json:"penalty"`
	TokenValue     int     `json:"token_value"`
	SpotKey        string  `json:"spot_key"`
	Row            *int    `json:"row,omitempty"`
	Col            *int    `json:"col,omitempty"`
	PropBetID      int     `json:"prop_bet_id,omitempty"`
	ExoticFinishID int     `json:"exotic_finish_id,omitempty"`
}
