package session

import (
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

// SessionPersistence defines the interface for persisting sessions. IDs passed in
// are already lower-cased by the Manager.
type SessionPersistence interface {
	// Save persists a session to storage. The Manager calls it with the session locked.
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. The game is rebuilt by
// replaying History on Initial, so the board and undo log come back exactly.
type PersistedSessionData struct {
	ID             string            `json:"id"`
	Level          int               `json:"level"`
	Initial        string            `json:"initial"`
	History        string            `json:"history"` // LURD
	SolvedLevels   []int             `json:"solved_levels,omitempty"`
	AutoAdvance    bool              `json:"auto_advance,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GameState      *engine.GameState `json:"game_state,omitempty"` // informational only
}

func encodeSession(session *service.Session) (*PersistedSessionData, error) {
	if session == nil {
		return nil, fmt.Errorf("session cannot be nil")
	}
	if session.Game == nil {
		return nil, fmt.Errorf("session %s has no game", session.ID)
	}
	game := session.Game
	return &PersistedSessionData{
		ID:             session.ID,
		Level:          game.Level(),
		Initial:        game.InitialText(),
		History:        game.Solution(),
		SolvedLevels:   game.SolvedLevels(),
		AutoAdvance:    game.AutoAdvance(),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      game.Snapshot(),
	}, nil
}

func decodeSession(data *PersistedSessionData, levels engine.Source) (*service.Session, error) {
	game, err := engine.RestoreGame(levels, data.Level, data.Initial, data.History, engine.WithAutoAdvance(data.AutoAdvance))
	if err != nil {
		return nil, fmt.Errorf("failed to restore game for session %s: %w", data.ID, err)
	}
	game.SetSolvedLevels(data.SolvedLevels)

	return &service.Session{
		ID:             normalizeID(data.ID),
		Game:           game,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
	}, nil
}
