package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/abrezinsky/trackbet/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite works best with single connection
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// NewWithDB wraps an existing database handle (used by sqlmock tests)
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'waiting',
			current_race INTEGER NOT NULL DEFAULT 1,
			max_races INTEGER NOT NULL DEFAULT 4,
			race_active BOOLEAN NOT NULL DEFAULT 0,
			max_players INTEGER NOT NULL DEFAULT 9,
			locked_spots TEXT NOT NULL DEFAULT '{}',
			used_prop_bets TEXT NOT NULL DEFAULT '[]',
			current_prop_bets TEXT NOT NULL DEFAULT '[]',
			used_exotic_finishes TEXT NOT NULL DEFAULT '[]',
			current_exotic_finishes TEXT NOT NULL DEFAULT '[]',
			game_log TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			session_id TEXT NOT NULL,
			token TEXT UNIQUE NOT NULL,
			name TEXT NOT NULL,
			money INTEGER NOT NULL DEFAULT 0,
			vip_cards TEXT NOT NULL DEFAULT '[]',
			tokens TEXT NOT NULL DEFAULT '{}',
			used_tokens TEXT NOT NULL DEFAULT '{}',
			connected BOOLEAN NOT NULL DEFAULT 1,
			joined_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, name),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS bets (
			session_id TEXT NOT NULL,
			spot_key TEXT NOT NULL,
			player_name TEXT NOT NULL,
			race_number INTEGER NOT NULL,
			horse TEXT NOT NULL,
			bet_type TEXT NOT NULL,
			multiplier INTEGER NOT NULL,
			penalty INTEGER NOT NULL,
			token_value INTEGER NOT NULL,
			row INTEGER,
			col INTEGER,
			prop_bet_id INTEGER,
			exotic_finish_id INTEGER,
			placed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, spot_key),
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			event_data TEXT,
			player_name TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_players_token ON players(token)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_session ON bets(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// ==================== Session Methods ====================

// SaveSession upserts a session and replaces its players and bets in a
// single transaction, so a crash mid-save never leaves a half-written
// session behind.
func (r *Repository) SaveSession(ctx context.Context, session *models.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	lockedSpots, err := json.Marshal(session.LockedSpots)
	if err != nil {
		return err
	}
	usedProps, err := json.Marshal(session.UsedPropBets)
	if err != nil {
		return err
	}
	currentProps, err := json.Marshal(session.CurrentPropBets)
	if err != nil {
		return err
	}
	usedExotics, err := json.Marshal(session.UsedExoticFinishes)
	if err != nil {
		return err
	}
	currentExotics, err := json.Marshal(session.CurrentExoticFinishes)
	if err != nil {
		return err
	}
	gameLog, err := json.Marshal(session.GameLog)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, status, current_race, max_races, race_active, max_players,
			locked_spots, used_prop_bets, current_prop_bets, used_exotic_finishes, current_exotic_finishes,
			game_log, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			current_race = excluded.current_race,
			max_races = excluded.max_races,
			race_active = excluded.race_active,
			max_players = excluded.max_players,
			locked_spots = excluded.locked_spots,
			used_prop_bets = excluded.used_prop_bets,
			current_prop_bets = excluded.current_prop_bets,
			used_exotic_finishes = excluded.used_exotic_finishes,
			current_exotic_finishes = excluded.current_exotic_finishes,
			game_log = excluded.game_log,
			updated_at = excluded.updated_at
	`, session.ID, session.Status, session.CurrentRace, session.MaxRaces, session.RaceActive,
		session.MaxPlayers, string(lockedSpots), string(usedProps), string(currentProps),
		string(usedExotics), string(currentExotics), string(gameLog), session.CreatedAt, time.Now().UTC())
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM players WHERE session_id = ?`, session.ID); err != nil {
		return err
	}
	for _, player := range session.Players {
		vipCards, err := json.Marshal(player.VIPCards)
		if err != nil {
			return err
		}
		tokens, err := json.Marshal(player.Tokens)
		if err != nil {
			return err
		}
		usedTokens, err := json.Marshal(player.UsedTokens)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO players (session_id, token, name, money, vip_cards, tokens, used_tokens, connected, joined_at, last_seen)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, session.ID, player.Token, player.Name, player.Money, string(vipCards),
			string(tokens), string(usedTokens), player.Connected, player.JoinedAt, player.LastSeen)
		if err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bets WHERE session_id = ?`, session.ID); err != nil {
		return err
	}
	for _, bet := range session.Bets {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bets (session_id, spot_key, player_name, race_number, horse, bet_type,
				multiplier, penalty, token_value, row, col, prop_bet_id, exotic_finish_id, placed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, session.ID, bet.SpotKey, bet.Player, bet.RaceNumber, bet.Horse, bet.BetType,
			bet.Multiplier, bet.Penalty, bet.TokenValue, bet.Row, bet.Col,
			nullableID(bet.PropBetID), nullableID(bet.ExoticFinishID), bet.PlacedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetSession loads a session with its players and bets
func (r *Repository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	session, err := r.scanSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.loadPlayers(ctx, session); err != nil {
		return nil, err
	}
	if err := r.loadBets(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions loads every stored session (used to rebuild in-memory
// state at startup)
func (r *Repository) ListSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM sessions`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sessions := make([]*models.Session, 0, len(ids))
	for _, id := range ids {
		session, err := r.GetSession(ctx, id)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// DeleteSession removes a session and (via cascade) its players, bets,
// and events
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// SessionExists reports whether a session code is already in use
func (r *Repository) SessionExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) scanSession(ctx context.Context, id string) (*models.Session, error) {
	var (
		session                              models.Session
		lockedSpots, usedProps, currentProps string
		usedExotics, currentExotics, gameLog string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, status, current_race, max_races, race_active, max_players,
			locked_spots, used_prop_bets, current_prop_bets,
			used_exotic_finishes, current_exotic_finishes, game_log, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.Status, &session.CurrentRace, &session.MaxRaces,
		&session.RaceActive, &session.MaxPlayers, &lockedSpots, &usedProps, &currentProps,
		&usedExotics, &currentExotics, &gameLog, &session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(lockedSpots), &session.LockedSpots); err != nil {
		return nil, fmt.Errorf("session %s locked_spots: %w", id, err)
	}
	if err := json.Unmarshal([]byte(usedProps), &session.UsedPropBets); err != nil {
		return nil, fmt.Errorf("session %s used_prop_bets: %w", id, err)
	}
	if err := json.Unmarshal([]byte(currentProps), &session.CurrentPropBets); err != nil {
		return nil, fmt.Errorf("session %s current_prop_bets: %w", id, err)
	}
	if err := json.Unmarshal([]byte(usedExotics), &session.UsedExoticFinishes); err != nil {
		return nil, fmt.Errorf("session %s used_exotic_finishes: %w", id, err)
	}
	if err := json.Unmarshal([]byte(currentExotics), &session.CurrentExoticFinishes); err != nil {
		return nil, fmt.Errorf("session %s current_exotic_finishes: %w", id, err)
	}
	if err := json.Unmarshal([]byte(gameLog), &session.GameLog); err != nil {
		return nil, fmt.Errorf("session %s game_log: %w", id, err)
	}
	if session.LockedSpots == nil {
		session.LockedSpots = make(map[string]string)
	}
	session.Players = make(map[string]*models.Player)
	session.Bets = make(map[string]*models.Bet)
	return &session, nil
}

func (r *Repository) loadPlayers(ctx context.Context, session *models.Session) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT token, name, money, vip_cards, tokens, used_tokens, connected, joined_at, last_seen
		FROM players WHERE session_id = ?
	`, session.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			player                        models.Player
			vipCards, tokens, usedTokens  string
		)
		if err := rows.Scan(&player.Token, &player.Name, &player.Money, &vipCards,
			&tokens, &usedTokens, &player.Connected, &player.JoinedAt, &player.LastSeen); err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(vipCards), &player.VIPCards); err != nil {
			return fmt.Errorf("player %s vip_cards: %w", player.Name, err)
		}
		if err := json.Unmarshal([]byte(tokens), &player.Tokens); err != nil {
			return fmt.Errorf("player %s tokens: %w", player.Name, err)
		}
		if err := json.Unmarshal([]byte(usedTokens), &player.UsedTokens); err != nil {
			return fmt.Errorf("player %s used_tokens: %w", player.Name, err)
		}
		session.Players[player.Name] = &player
	}
	return rows.Err()
}

func (r *Repository) loadBets(ctx context.Context, session *models.Session) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT spot_key, player_name, race_number, horse, bet_type, multiplier, penalty,
			token_value, row, col, prop_bet_id, exotic_finish_id, placed_at
		FROM bets WHERE session_id = ?
	`, session.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bet                  models.Bet
			propID, exoticID     sql.NullInt64
		)
		if err := rows.Scan(&bet.SpotKey, &bet.Player, &bet.RaceNumber, &bet.Horse,
			&bet.BetType, &bet.Multiplier, &bet.Penalty, &bet.TokenValue,
			&bet.Row, &bet.Col, &propID, &exoticID, &bet.PlacedAt); err != nil {
			return err
		}
		if propID.Valid {
			bet.PropBetID = int(propID.Int64)
		}
		if exoticID.Valid {
			bet.ExoticFinishID = int(exoticID.Int64)
		}
		session.Bets[bet.SpotKey] = &bet
	}
	return rows.Err()
}

// nullableID maps the zero id to NULL so optional catalog references
// stay clean in the database
func nullableID(id int) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

// ==================== Event Methods ====================

// AppendEvent adds one entry to a session's event log
func (r *Repository) AppendEvent(ctx context.Context, event models.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO events (session_id, event_type, event_data, player_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, event.SessionID, event.Type, string(data), event.PlayerName, event.CreatedAt)
	return err
}

// ListEvents returns a session's event log in append order
func (r *Repository) ListEvents(ctx context.Context, sessionID string) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, event_data, player_name, created_at
		FROM events WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.Event
	for rows.Next() {
		var (
			event      models.Event
			data       sql.NullString
			playerName sql.NullString
		)
		if err := rows.Scan(&event.ID, &event.Type, &data, &playerName, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.SessionID = sessionID
		if playerName.Valid {
			event.PlayerName = playerName.String
		}
		if data.Valid && data.String != "" && data.String != "null" {
			if err := json.Unmarshal([]byte(data.String), &event.Data); err != nil {
				return nil, fmt.Errorf("event %d data: %w", event.ID, err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
