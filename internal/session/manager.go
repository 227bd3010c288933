// Package session owns the authoritative in-memory game state. All
// mutating operations validate fully before touching state, run inside
// the owning session's critical section, and publish the resulting
// snapshot before the lock is released so clients observe mutations in
// commit order.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/abrezinsky/trackbet/internal/catalog"
	"github.com/abrezinsky/trackbet/internal/errors"
	"github.com/abrezinsky/trackbet/internal/ledger"
	"github.com/abrezinsky/trackbet/internal/logger"
	"github.com/abrezinsky/trackbet/internal/models"
	"github.com/abrezinsky/trackbet/internal/payout"
	"github.com/abrezinsky/trackbet/internal/repository"
)

// Broadcaster defines the interface for fanning messages out to a
// session's connected clients
type Broadcaster interface {
	Broadcast(sessionID string, msg *models.Outbound)
}

// ManagerRepository defines the repository methods needed by Manager
type ManagerRepository interface {
	repository.SessionRepository
	repository.EventRepository
}

// Manager coordinates all session mutations. One Manager serves the
// whole process; per-session exclusivity comes from the Store's
// entries.
type Manager struct {
	log     logger.Logger
	repo    ManagerRepository
	store   *Store
	payouts *payout.Engine

	// rng is shared across sessions, so draws are serialized by rngMu.
	// The payout engine is constructed over the same source and is only
	// invoked under this mutex.
	rng   *rand.Rand
	rngMu sync.Mutex

	broadcaster Broadcaster

	maxRaces   int
	maxPlayers int
}

// NewManager creates a Manager. The rand source drives prop bet,
// exotic finish, and VIP card draws; inject a seeded source in tests.
func NewManager(log logger.Logger, repo ManagerRepository, rng *rand.Rand, maxRaces, maxPlayers int) *Manager {
	if maxRaces <= 0 {
		maxRaces = catalog.MaxRaces
	}
	if maxPlayers <= 0 {
		maxPlayers = catalog.MaxPlayers
	}
	return &Manager{
		log:        log,
		repo:       repo,
		store:      NewStore(),
		payouts:    payout.New(rng),
		rng:        rng,
		maxRaces:   maxRaces,
		maxPlayers: maxPlayers,
	}
}

// SetBroadcaster sets the broadcaster for publishing state updates.
// Must be called during wiring, before any session traffic.
func (m *Manager) SetBroadcaster(b Broadcaster) {
	m.broadcaster = b
}

// CreateSession creates a new session with a collision-free code, the
// initial batch of proposition bets, and the first exotic finish.
func (m *Manager) CreateSession(ctx context.Context) (string, error) {
	var id string
	for {
		code, err := newSessionCode()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInternal, "generating session code")
		}
		if m.store.Has(code) {
			continue
		}
		exists, err := m.repo.SessionExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			id = code
			break
		}
	}

	now := time.Now()
	session := &models.Session{
		ID:          id,
		Status:      models.StatusWaiting,
		CurrentRace: 1,
		MaxRaces:    m.maxRaces,
		RaceActive:  false,
		MaxPlayers:  m.maxPlayers,
		LockedSpots: make(map[string]string),
		Players:     make(map[string]*models.Player),
		Bets:        make(map[string]*models.Bet),
		GameLog:     []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.drawPropBets(session)
	m.drawExoticFinish(session)

	entry := m.store.Put(session)
	entry.mu.Lock()
	defer entry.mu.Unlock()

	m.persist(ctx, session)
	m.logEvent(ctx, id, "session_created", "", nil)
	m.log.Info("Session created", "session_id", id)

	return id, nil
}

// Join adds a player to a session and returns their reconnect token.
// Rejected when the session is unknown, full, or the name is already
// taken (case-sensitive).
func (m *Manager) Join(ctx context.Context, sessionID, name string) (string, error) {
	if name == "" {
		return "", errors.InvalidInput("player name is required")
	}
	entry, err := m.entry(ctx, sessionID)
	if err != nil {
		return "", err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.Session
	if len(session.Players) >= session.MaxPlayers {
		return "", errors.Conflictf("session %s is full", sessionID)
	}
	if _, taken := session.Players[name]; taken {
		return "", errors.Conflictf("name %q is already taken", name)
	}

	token := newPlayerToken()
	now := time.Now()
	session.Players[name] = &models.Player{
		Token:      token,
		Name:       name,
		Money:      catalog.StartingMoney,
		VIPCards:   []models.VIPCard{},
		Tokens:     catalog.NewTokenAllocation(),
		UsedTokens: catalog.NewUsedTokens(),
		Connected:  true,
		JoinedAt:   now,
		LastSeen:   now,
	}
	session.GameLog = append(session.GameLog, fmt.Sprintf("%s joined the game", name))
	m.store.IndexToken(token, sessionID)

	m.persist(ctx, session)
	m.logEvent(ctx, sessionID, "player_joined", name, nil)
	m.log.Info("Player joined", "session_id", sessionID, "player", name)
	m.broadcastState(session)

	return token, nil
}

// Reconnect resolves a reconnect token back to its player identity and
// marks the player connected. It never creates state.
func (m *Manager) Reconnect(ctx context.Context, token string) (sessionID, playerName string, err error) {
	sessionID, ok := m.resolveToken(ctx, token)
	if !ok {
		return "", "", errors.NotFound("unknown player token")
	}
	entry, err := m.entry(ctx, sessionID)
	if err != nil {
		return "", "", err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.Session
	player := playerByToken(session, token)
	if player == nil {
		return "", "", errors.NotFound("unknown player token")
	}
	player.Connected = true
	player.LastSeen = time.Now()

	m.persist(ctx, session)
	m.logEvent(ctx, sessionID, "player_reconnected", player.Name, nil)

	return sessionID, player.Name, nil
}

// Identify resolves a reconnect token to its session and player name
// without touching player state. The gateway vets a socket with this
// before any connected bookkeeping happens.
func (m *Manager) Identify(ctx context.Context, token string) (sessionID, playerName string, err error) {
	sessionID, ok := m.resolveToken(ctx, token)
	if !ok {
		return "", "", errors.NotFound("unknown player token")
	}
	entry, err := m.entry(ctx, sessionID)
	if err != nil {
		return "", "", err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()

	player := playerByToken(entry.Session, token)
	if player == nil {
		return "", "", errors.NotFound("unknown player token")
	}
	return sessionID, player.Name, nil
}

// PlaceBet validates and records a wager. Rejections are all-or-nothing;
// a rejected bet leaves the session untouched.
func (m *Manager) PlaceBet(ctx context.Context, sessionID, playerName string, req *models.BetRequest) error {
	entry, err := m.entry(ctx, sessionID)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.Session
	if session.Status == models.StatusCompleted {
		return errors.Precondition("game is over")
	}
	if !session.RaceActive {
		return errors.Precondition("race not active")
	}
	player, ok := session.Players[playerName]
	if !ok {
		return errors.NotFoundf("player %q not found", playerName)
	}

	spotKey, err := resolveSpotKey(session, playerName, req)
	if err != nil {
		return err
	}

	// Reserve is the last gate: it both validates and consumes the
	// token, and nothing after it can fail.
	if err := ledger.Reserve(player.Tokens, player.UsedTokens, req.TokenValue); err != nil {
		return err
	}

	session.Bets[spotKey] = &models.Bet{
		Player:         playerName,
		Horse:          req.Horse,
		BetType:        req.BetType,
		Multiplier:     req.Multiplier,
		Penalty:        req.Penalty,
		TokenValue:     req.TokenValue,
		SpotKey:        spotKey,
		RaceNumber:     session.CurrentRace,
		Row:            req.Row,
		Col:            req.Col,
		PropBetID:      req.PropBetID,
		ExoticFinishID: req.ExoticFinishID,
		PlacedAt:       time.Now(),
	}
	session.LockedSpots[spotKey] = playerName

	m.persist(ctx, session)
	m.logEvent(ctx, sessionID, "bet_placed", playerName, map[string]interface{}{
		"spot_key":    spotKey,
		"token_value": req.TokenValue,
	})
	m.broadcastState(session)

	return nil
}

// resolveSpotKey validates spot availability and returns the canonical
// key the bet will occupy. Exotic finish keys are derived server-side
// so a client can never claim another player's sub-key.
func resolveSpotKey(session *models.Session, playerName string, req *models.BetRequest) (string, error) {
	if req.BetType == models.BetExotic {
		if _, ok := catalog.ExoticFinishByID(req.ExoticFinishID); !ok {
			return "", errors.InvalidInputf("no such exotic finish: %d", req.ExoticFinishID)
		}
		spotKey := catalog.ExoticSpotKey(req.ExoticFinishID, playerName)
		if _, held := session.LockedSpots[spotKey]; held {
			return "", errors.Conflictf("you already have a bet on exotic finish %d", req.ExoticFinishID)
		}
		if exoticBettors(session, req.ExoticFinishID) >= catalog.MaxExoticBettors {
			return "", errors.Conflictf("exotic finish %d already has %d bettors", req.ExoticFinishID, catalog.MaxExoticBettors)
		}
		return spotKey, nil
	}

	if req.SpotKey == "" {
		return "", errors.InvalidInput("missing spot key")
	}
	if holder, locked := session.LockedSpots[req.SpotKey]; locked {
		return "", errors.Conflictf("spot already taken by %s", holder)
	}
	return req.SpotKey, nil
}

// exoticBettors counts distinct players holding sub-keys under an
// exotic finish id
func exoticBettors(session *models.Session, id int) int {
	prefix := fmt.Sprintf("exotic_%d_", id)
	n := 0
	for spotKey := range session.LockedSpots {
		if strings.HasPrefix(spotKey, prefix) {
			n++
		}
	}
	return n
}

// RemoveBet reverses a placed bet: the token returns to the player and
// the spot unlocks. Only the bet's owner may remove it.
func (m *Manager) RemoveBet(ctx context.Context, sessionID, playerName, spotKey string) error {
	entry, err := m.entry(ctx, sessionID)
	if err != nil {
		return err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.Session
	if session.Status == models.StatusCompleted {
		return errors.Precondition("game is over")
	}
	bet, ok := session.Bets[spotKey]
	if !ok || bet.Player != playerName {
		return errors.NotFound("bet not found")
	}
	player, ok := session.Players[playerName]
	if !ok {
		return errors.NotFoundf("player %q not found", playerName)
	}

	ledger.Release(player.UsedTokens, bet.TokenValue)
	delete(session.Bets, spotKey)
	delete(session.LockedSpots, spotKey)

	m.persist(ctx, session)
	m.logEvent(ctx, sessionID, "bet_removed", playerName, map[string]interface{}{
		"spot_key": spotKey,
	})
	m.broadcastState(session)

	return nil
}

// StartRace opens betting for the current race. Returns false without
// error when the race is already active or the game is over.
func (m *Manager) StartRace(ctx context.Context, sessionID string) (bool, error) {
	entry, err := m.entry(ctx, sessionID)
	if err != nil {
		return false, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.Session
	if session.Status == models.StatusCompleted || session.RaceActive {
		return false, nil
	}

	session.RaceActive = true
	session.Status = models.StatusActive
	session.GameLog = append(session.GameLog, fmt.Sprintf("Race %d started", session.CurrentRace))

	m.persist(ctx, session)
	m.logEvent(ctx, sessionID, "race_started", "", map[string]interface{}{
		"race_number": session.CurrentRace,
	})
	m.broadcastState(session)
	m.broadcast(session.ID, &models.Outbound{
		Type:       models.MsgRaceStarted,
		RaceNumber: session.CurrentRace,
	})

	return true, nil
}

// EndRace closes betting and settles every bet of the current race
// against the entered results. Bets and locked spots stay visible until
// NextRace clears the board.
func (m *Manager) EndRace(ctx context.Context, sessionID string, results *models.RaceResults) (bool, error) {
	if results == nil {
		return false, errors.InvalidInput("missing race results")
	}
	entry, err := m.entry(ctx, sessionID)
	if err != nil {
		return false, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.Session
	if !session.RaceActive {
		return false, nil
	}

	session.RaceActive = false

	m.rngMu.Lock()
	winners, losers := m.payouts.Settle(session.Bets, session.Players, results)
	m.rngMu.Unlock()

	session.GameLog = append(session.GameLog, fmt.Sprintf("Race %d ended", session.CurrentRace))
	session.GameLog = append(session.GameLog, winners...)
	session.GameLog = append(session.GameLog, losers...)

	m.persist(ctx, session)
	m.logEvent(ctx, sessionID, "race_ended", "", map[string]interface{}{
		"race_number": session.CurrentRace,
		"winners":     winners,
		"losers":      losers,
	})
	m.log.Info("Race settled", "session_id", sessionID, "race", session.CurrentRace,
		"winners", len(winners), "losers", len(losers))
	m.broadcastState(session)
	m.broadcast(session.ID, &models.Outbound{
		Type:       models.MsgRaceEnded,
		RaceNumber: session.CurrentRace,
		Results:    results,
	})

	return true, nil
}

// NextRace clears the board, refreshes the rotating bet pools, and
// advances the race counter. Advancing past the last race completes the
// game; completed is terminal.
func (m *Manager) NextRace(ctx context.Context, sessionID string) (bool, error) {
	entry, err := m.entry(ctx, sessionID)
	if err != nil {
		return false, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.Session
	if session.Status == models.StatusCompleted || session.RaceActive {
		return false, nil
	}

	session.Bets = make(map[string]*models.Bet)
	session.LockedSpots = make(map[string]string)
	for _, player := range session.Players {
		ledger.ResetForRace(player.UsedTokens)
	}
	session.CurrentRace++

	if session.CurrentRace > session.MaxRaces {
		session.Status = models.StatusCompleted
		session.GameLog = append(session.GameLog, "Game completed")

		m.persist(ctx, session)
		m.logEvent(ctx, sessionID, "game_completed", "", nil)
		m.log.Info("Game completed", "session_id", sessionID)
		m.broadcastState(session)
		m.broadcast(session.ID, &models.Outbound{Type: models.MsgGameCompleted})

		return true, nil
	}

	m.drawPropBets(session)
	// The final race runs on the exotic finishes already in play.
	if session.CurrentRace < session.MaxRaces {
		m.drawExoticFinish(session)
	}
	session.GameLog = append(session.GameLog, fmt.Sprintf("Betting open for race %d", session.CurrentRace))

	m.persist(ctx, session)
	m.logEvent(ctx, sessionID, "next_race", "", map[string]interface{}{
		"race_number": session.CurrentRace,
	})
	m.broadcastState(session)

	return true, nil
}

// Snapshot returns the read-only projection of a session
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*models.Snapshot, error) {
	entry, err := m.entry(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.RLock()
	defer entry.mu.RUnlock()
	return buildSnapshot(entry.Session), nil
}

// SetConnected records a player's connection state. Best-effort; used
// by the gateway on socket open and close.
func (m *Manager) SetConnected(ctx context.Context, sessionID, playerName string, connected bool) {
	entry, err := m.entry(ctx, sessionID)
	if err != nil {
		return
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	session := entry.Session
	player, ok := session.Players[playerName]
	if !ok {
		return
	}
	player.Connected = connected
	player.LastSeen = time.Now()
	m.persist(ctx, session)
}

// Events returns the persisted event history of a session
func (m *Manager) Events(ctx context.Context, sessionID string) ([]models.Event, error) {
	if _, err := m.entry(ctx, sessionID); err != nil {
		return nil, err
	}
	return m.repo.ListEvents(ctx, sessionID)
}

// entry resolves a session id to its live entry, loading from the
// repository after a restart. Unknown ids are NotFound.
func (m *Manager) entry(ctx context.Context, sessionID string) (*Entry, error) {
	if entry, ok := m.store.Get(sessionID); ok {
		return entry, nil
	}
	session, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.NotFoundf("session %s not found", sessionID)
		}
		return nil, err
	}
	entry := m.store.GetOrPut(session)
	for _, player := range session.Players {
		m.store.IndexToken(player.Token, sessionID)
	}
	return entry, nil
}

// resolveToken finds the session a reconnect token belongs to, falling
// back to a repository scan for sessions not yet loaded
func (m *Manager) resolveToken(ctx context.Context, token string) (string, bool) {
	if sessionID, ok := m.store.SessionForToken(token); ok {
		return sessionID, ok
	}
	sessions, err := m.repo.ListSessions(ctx)
	if err != nil {
		m.log.Warn("Token scan failed", "error", err)
		return "", false
	}
	for _, session := range sessions {
		for _, player := range session.Players {
			if player.Token == token {
				m.store.GetOrPut(session)
				for _, p := range session.Players {
					m.store.IndexToken(p.Token, session.ID)
				}
				return session.ID, true
			}
		}
	}
	return "", false
}

func playerByToken(session *models.Session, token string) *models.Player {
	for _, player := range session.Players {
		if player.Token == token {
			return player
		}
	}
	return nil
}

// drawPropBets refreshes the rotating proposition bet batch, excluding
// ids already used this game. The exclusion pool is reset once fewer
// than a full batch remain, which can reintroduce earlier entries.
func (m *Manager) drawPropBets(session *models.Session) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()

	used := make(map[int]bool, len(session.UsedPropBets))
	for _, id := range session.UsedPropBets {
		used[id] = true
	}
	var available []int
	for _, pb := range catalog.PropBets {
		if !used[pb.ID] {
			available = append(available, pb.ID)
		}
	}
	if len(available) < catalog.PropBetsPerRace {
		session.UsedPropBets = nil
		available = available[:0]
		for _, pb := range catalog.PropBets {
			available = append(available, pb.ID)
		}
	}

	m.rng.Shuffle(len(available), func(i, j int) {
		available[i], available[j] = available[j], available[i]
	})
	picked := available[:catalog.PropBetsPerRace]

	session.CurrentPropBets = make([]models.PropBet, 0, len(picked))
	for _, id := range picked {
		session.UsedPropBets = append(session.UsedPropBets, id)
		pb, _ := catalog.PropBetByID(id)
		session.CurrentPropBets = append(session.CurrentPropBets, pb)
	}
}

// drawExoticFinish adds one unused exotic finish to the ones already in
// play. No-op once the pool is exhausted.
func (m *Manager) drawExoticFinish(session *models.Session) {
	m.rngMu.Lock()
	defer m.rngMu.Unlock()

	used := make(map[int]bool, len(session.UsedExoticFinishes))
	for _, id := range session.UsedExoticFinishes {
		used[id] = true
	}
	var available []int
	for _, ef := range catalog.ExoticFinishes {
		if !used[ef.ID] {
			available = append(available, ef.ID)
		}
	}
	if len(available) == 0 {
		return
	}

	id := available[m.rng.Intn(len(available))]
	session.UsedExoticFinishes = append(session.UsedExoticFinishes, id)
	ef, _ := catalog.ExoticFinishByID(id)
	session.CurrentExoticFinishes = append(session.CurrentExoticFinishes, ef)
}

// persist writes the session through to the repository. In-memory state
// stays authoritative; a failed write is logged and retried on the next
// mutation.
func (m *Manager) persist(ctx context.Context, session *models.Session) {
	session.UpdatedAt = time.Now()
	if err := m.repo.SaveSession(ctx, session); err != nil {
		m.log.Warn("Session persist failed", "session_id", session.ID, "error", err)
	}
}

// logEvent appends to the durable event history. Best-effort.
func (m *Manager) logEvent(ctx context.Context, sessionID, eventType, playerName string, data map[string]interface{}) {
	event := models.Event{
		SessionID:  sessionID,
		Type:       eventType,
		Data:       data,
		PlayerName: playerName,
		CreatedAt:  time.Now(),
	}
	if err := m.repo.AppendEvent(ctx, event); err != nil {
		m.log.Warn("Event append failed", "session_id", sessionID, "event", eventType, "error", err)
	}
}

// broadcastState publishes a fresh snapshot to the whole session. Runs
// under the session lock so fan-out order matches commit order.
func (m *Manager) broadcastState(session *models.Session) {
	m.broadcast(session.ID, &models.Outbound{
		Type: models.MsgStateSync,
		Data: buildSnapshot(session),
	})
}

func (m *Manager) broadcast(sessionID string, msg *models.Outbound) {
	if m.broadcaster != nil {
		m.broadcaster.Broadcast(sessionID, msg)
	}
}

// buildSnapshot deep-copies the client-facing view of a session.
// Reconnect tokens never leave the session package.
func buildSnapshot(session *models.Session) *models.Snapshot {
	snap := &models.Snapshot{
		SessionID:             session.ID,
		Status:                session.Status,
		CurrentRace:           session.CurrentRace,
		MaxRaces:              session.MaxRaces,
		RaceActive:            session.RaceActive,
		LockedSpots:           make(map[string]string, len(session.LockedSpots)),
		CurrentPropBets:       append([]models.PropBet(nil), session.CurrentPropBets...),
		CurrentExoticFinishes: append([]models.ExoticFinish(nil), session.CurrentExoticFinishes...),
		Players:               make([]models.PlayerView, 0, len(session.Players)),
		CurrentBets:           make([]models.Bet, 0, len(session.Bets)),
		GameLog:               append([]string(nil), session.GameLog...),
	}
	for spotKey, holder := range session.LockedSpots {
		snap.LockedSpots[spotKey] = holder
	}
	for _, player := range session.Players {
		snap.Players = append(snap.Players, models.PlayerView{
			Name:       player.Name,
			Money:      player.Money,
			VIPCards:   append([]models.VIPCard(nil), player.VIPCards...),
			Tokens:     stringKeyed(player.Tokens),
			UsedTokens: stringKeyed(player.UsedTokens),
			Connected:  player.Connected,
		})
	}
	// Join order, name as tiebreak, so every client renders the same
	// roster.
	sort.Slice(snap.Players, func(i, j int) bool {
		pi, pj := session.Players[snap.Players[i].Name], session.Players[snap.Players[j].Name]
		if !pi.JoinedAt.Equal(pj.JoinedAt) {
			return pi.JoinedAt.Before(pj.JoinedAt)
		}
		return snap.Players[i].Name < snap.Players[j].Name
	})
	for _, bet := range session.Bets {
		snap.CurrentBets = append(snap.CurrentBets, *bet)
	}
	sort.Slice(snap.CurrentBets, func(i, j int) bool {
		return snap.CurrentBets[i].SpotKey < snap.CurrentBets[j].SpotKey
	})
	return snap
}

// stringKeyed converts a denomination-keyed map to the wire format
// ("5", "3", "2", "1")
func stringKeyed(tokens map[int]int) map[string]int {
	out := make(map[string]int, len(tokens))
	for denomination, count := range tokens {
		out[strconv.Itoa(denomination)] = count
	}
	return out
}
