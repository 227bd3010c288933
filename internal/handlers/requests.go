package handlers

// JoinRequest is the body of POST /api/sessions/{sessionID}/join
type JoinRequest struct {
	PlayerName string `json:"player_name"`
}

// ReconnectRequest is the body of POST /api/players/reconnect
type ReconnectRequest struct {
	PlayerToken string `json:"player_token"`
}
