package handlers

// HealthResponse is the GET / payload
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// CreateSessionResponse is the POST /api/sessions payload
type CreateSessionResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// JoinResponse is returned by join and reconnect
type JoinResponse struct {
	Success     bool   `json:"success"`
	PlayerToken string `json:"player_token"`
	SessionID   string `json:"session_id"`
	PlayerName  string `json:"player_name"`
}
