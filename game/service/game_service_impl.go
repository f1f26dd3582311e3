package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions    SessionManager
	levels      LevelStore
	logger      *log.Logger
	autoAdvance bool
	mu          sync.RWMutex
}

// Option configures the game service.
type Option func(*gameServiceImpl)

// WithLogger sets the logger. The standard logrus logger is used by default.
func WithLogger(logger *log.Logger) Option {
	return func(s *gameServiceImpl) { s.logger = logger }
}

// WithAutoAdvance makes new sessions load the next level when one is solved.
func WithAutoAdvance(enabled bool) Option {
	return func(s *gameServiceImpl) { s.autoAdvance = enabled }
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, levels LevelStore, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		logger:   log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession starts a new game at the given level. Level 0 means level 1.
func (s *gameServiceImpl) CreateSession(ctx context.Context, level int) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if level == 0 {
		level = 1
	}

	game, err := engine.NewGame(s.levels, level, engine.WithAutoAdvance(s.autoAdvance))
	if err != nil {
		return nil, fmt.Errorf("level %d is not available (1..%d): %w", level, s.levels.Count(), err)
	}

	session, err := s.sessions.Create("", game)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.WithFields(log.Fields{"session": session.ID, "level": level}).Info("session created")
	session.Lock()
	defer session.Unlock()
	return s.sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var info *SessionInfo
	err := s.view(sessionID, func(sess *Session) {
		info = s.sessionInfo(sess)
	})
	return info, err
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		sess.Lock()
		result = append(result, s.sessionInfo(sess))
		sess.Unlock()
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.WithField("session", sessionID).Info("session deleted")
	return nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string) (*MoveResult, error) {
	m, err := engine.ParseMove(direction)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var result *MoveResult
	err = s.update(sessionID, "move", func(sess *Session) (bool, error) {
		out := s.apply(sess.Game, m, 1)
		result = &MoveResult{
			Success:     out.step != nil,
			Message:     sess.Game.Message(),
			Events:      out.events,
			Step:        out.step,
			AttemptedTo: out.attempt,
			Solved:      out.solved,
			GameState:   s.snapshot(sess),
		}
		return result.Success, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// BulkMove executes moves in sequence, stopping at the first refused move or when
// a level is solved.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result *BulkMoveResult
	err := s.update(sessionID, "bulk move", func(sess *Session) (bool, error) {
		result = s.bulkMove(sess, moves)
		return result.MovesExecuted > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *gameServiceImpl) bulkMove(sess *Session, moves []string) *BulkMoveResult {
	game := sess.Game
	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
		StartPos:       game.Board().Player(),
	}

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	var lurd []byte
	for i, dir := range moves {
		idx := i + 1
		m, err := engine.ParseMove(dir)
		if err != nil {
			result.Success = false
			result.StopReasonCode = StopInvalidDirection
			result.StoppedReason = fmt.Sprintf("move %d: %v", idx, err)
			result.StoppedOnMove = idx
			break
		}

		out := s.apply(game, m, idx)
		result.Events = append(result.Events, out.events...)
		if out.step == nil {
			result.Success = false
			result.AttemptedTo = out.attempt
			result.StopReasonCode = out.attempt.Reason
			result.StoppedReason = fmt.Sprintf("move %d blocked: %s", idx, dir)
			result.StoppedOnMove = idx
			break
		}

		result.MovesExecuted++
		result.Steps = append(result.Steps, *out.step)
		lurd = append(lurd, out.step.Letter[0])
		if out.step.Pushed {
			result.Pushes++
		}
		if out.solved != nil {
			result.Solved = out.solved
			result.StopReasonCode = StopSolved
			result.StoppedReason = fmt.Sprintf("level %d solved", out.solved.Level)
			if idx < len(moves) {
				result.StoppedOnMove = idx
			}
			break
		}
	}

	result.LURD = string(lurd)
	result.GameState = s.snapshot(sess)
	result.EndPos = result.GameState.PlayerPos
	result.Message = game.Message()
	result.PossibleMoves = result.GameState.PossibleMoves
	return result
}

// Undo reverts the last move of the current level.
func (s *gameServiceImpl) Undo(ctx context.Context, sessionID string) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result *MoveResult
	err := s.update(sessionID, "undo", func(sess *Session) (bool, error) {
		result = s.undo(sess)
		return result.Success, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *gameServiceImpl) undo(sess *Session) *MoveResult {
	game := sess.Game
	from := game.Board().Player()
	step, ok := game.Undo()
	result := &MoveResult{
		Success: ok,
		Message: game.Message(),
	}
	if ok {
		to := game.Board().Player()
		result.Step = &StepInfo{
			Idx:     game.Moves() + 1,
			Dir:     step.Move.String(),
			Letter:  string(step.Letter()),
			From:    from,
			To:      to,
			Pushed:  step.Pushed,
			Success: true,
		}
		result.Events = []GameEvent{{
			Type:      "undo",
			Message:   game.Message(),
			Timestamp: time.Now(),
			Position:  to,
		}}
	}
	result.GameState = s.snapshot(sess)
	return result
}

// Restart reloads the current level
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.changeLevel(sessionID, "restart", func(game *engine.Game) error {
		if err := game.Restart(); err != nil {
			return fmt.Errorf("restart level %d: %w", game.Level(), err)
		}
		return nil
	})
}

// SetLevel switches the session to another level. On failure the session keeps
// playing its current level.
func (s *gameServiceImpl) SetLevel(ctx context.Context, sessionID string, level int) (*engine.GameState, error) {
	return s.changeLevel(sessionID, "set level", func(game *engine.Game) error {
		if level < 1 || level > s.levels.Count() {
			return fmt.Errorf("%w: level %d outside 1..%d", engine.ErrLevelNotFound, level, s.levels.Count())
		}
		return game.SetLevel(level)
	})
}

// NextLevel switches the session to the level after the current one.
func (s *gameServiceImpl) NextLevel(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.changeLevel(sessionID, "next level", (*engine.Game).NextLevel)
}

// PrevLevel switches the session to the level before the current one.
func (s *gameServiceImpl) PrevLevel(ctx context.Context, sessionID string) (*engine.GameState, error) {
	return s.changeLevel(sessionID, "previous level", (*engine.Game).PrevLevel)
}

// changeLevel runs load on the session's game and returns the new state. A failed
// load leaves the session on its current level.
func (s *gameServiceImpl) changeLevel(sessionID, op string, load func(*engine.Game) error) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state *engine.GameState
	err := s.update(sessionID, op, func(sess *Session) (bool, error) {
		if err := load(sess.Game); err != nil {
			return false, err
		}
		state = s.snapshot(sess)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(log.Fields{"session": sessionID, "level": state.Level, "op": op}).Debug("level loaded")
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var state *engine.GameState
	err := s.view(sessionID, func(sess *Session) {
		state = s.snapshot(sess)
	})
	return state, err
}

// GetMoveHistory returns paginated move history for the current level
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		steps  []engine.Step
		pushes int
		lurd   string
	)
	err := s.view(sessionID, func(sess *Session) {
		steps = sess.Game.History()
		pushes = sess.Game.Pushes()
		lurd = sess.Game.Solution()
	})
	if err != nil {
		return nil, err
	}

	history := make([]HistoryEntry, len(steps))
	for i, st := range steps {
		history[i] = HistoryEntry{
			Index:  i + 1,
			Move:   st.Move.String(),
			Letter: string(st.Letter()),
			Pushed: st.Pushed,
		}
	}
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []HistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = history[start:end]
	}
	if moves == nil {
		moves = []HistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Pushes:      pushes,
		LURD:        lurd,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListLevels returns the available levels
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// GetLevel returns a level's text and validation report
func (s *gameServiceImpl) GetLevel(ctx context.Context, level int) (*LevelDetail, error) {
	text, err := s.levels.Level(level)
	if err != nil {
		return nil, err
	}
	return &LevelDetail{Number: level, Text: text, Validation: engine.ValidateLevel(text)}, nil
}

// SaveLevel stores level text. The validation report is returned even when the
// level is rejected.
func (s *gameServiceImpl) SaveLevel(ctx context.Context, level int, text string) (*LevelDetail, error) {
	detail := &LevelDetail{Number: level, Text: text, Validation: engine.ValidateLevel(text)}
	if err := s.levels.SaveLevel(level, text); err != nil {
		return detail, err
	}
	s.logger.WithField("level", level).Info("level saved")
	return detail, nil
}

// ReloadLevels drops cached level text so edits made on disk are served, and
// returns the new level count.
func (s *gameServiceImpl) ReloadLevels(ctx context.Context) (int, error) {
	s.levels.RefreshCache()
	count := s.levels.Count()
	s.logger.WithField("levels", count).Info("levels reloaded")
	return count, nil
}

// session looks a session up and records the access. The session is returned
// unlocked.
func (s *gameServiceImpl) session(id string) (*Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("session %q: %w", id, err)
	}
	if err := s.sessions.UpdateLastAccessed(id); err != nil {
		s.logger.WithError(err).WithField("session", id).Warn("failed to update last access")
	}
	return sess, nil
}

// view runs fn with the session locked.
func (s *gameServiceImpl) view(id string, fn func(sess *Session)) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.Lock()
	defer sess.Unlock()
	fn(sess)
	return nil
}

// update runs fn with the session locked. When fn reports a change the session is
// saved after the lock is released, since the manager locks it again to encode it.
func (s *gameServiceImpl) update(id, op string, fn func(sess *Session) (bool, error)) error {
	sess, err := s.session(id)
	if err != nil {
		return err
	}
	sess.Lock()
	changed, err := fn(sess)
	sess.Unlock()
	if changed {
		s.persist(id, op)
	}
	return err
}

func (s *gameServiceImpl) persist(id, op string) {
	if err := s.sessions.Save(id); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{"session": id, "op": op}).Warn("failed to persist session")
	}
}

// snapshot and sessionInfo expect the session lock to be held.
func (s *gameServiceImpl) snapshot(sess *Session) *engine.GameState {
	state := sess.Game.Snapshot()
	state.MaxLevel = s.levels.Count()
	return state
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		Level:          sess.Game.Level(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GameState:      s.snapshot(sess),
	}
}
