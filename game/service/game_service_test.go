package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

const (
	oneStepLevel = "#####\n#@$.#\n#####"
	pushLevel    = "######\n#  . #\n#@$  #\n#    #\n######"
	jammedLevel  = "######\n#@$$.#\n######"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
	saves    int
	mu       sync.Mutex
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{sessions: make(map[string]*service.Session)}
}

func (m *MockSessionManager) Create(id string, game *engine.Game) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, service.ErrSessionAlreadyExists
	}
	session := &service.Session{ID: id, Game: game, CreatedAt: time.Now(), LastAccessedAt: time.Now()}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, exists := m.sessions[id]; exists {
		session.Touch(time.Now())
		return nil
	}
	return service.ErrSessionNotFound
}

func (m *MockSessionManager) Save(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	return nil
}

// MockLevelStore implements service.LevelStore for testing
type MockLevelStore struct {
	levels    map[int]string
	saved     map[int]string
	refreshed int
}

func NewMockLevelStore() *MockLevelStore {
	return &MockLevelStore{
		levels: map[int]string{1: oneStepLevel, 2: pushLevel, 3: jammedLevel},
		saved:  make(map[int]string),
	}
}

func (m *MockLevelStore) Level(index int) (string, error) {
	text, ok := m.levels[index]
	if !ok {
		return "", fmt.Errorf("%w: %d", engine.ErrLevelNotFound, index)
	}
	return text, nil
}

func (m *MockLevelStore) Count() int { return len(m.levels) }

func (m *MockLevelStore) ListLevels() ([]*service.LevelInfo, error) {
	infos := make([]*service.LevelInfo, 0, len(m.levels))
	for n := 1; n <= len(m.levels); n++ {
		infos = append(infos, &service.LevelInfo{Number: n})
	}
	return infos, nil
}

func (m *MockLevelStore) SaveLevel(n int, text string) error {
	if !engine.ValidateLevel(text).Valid {
		return service.ErrInvalidLevel
	}
	m.saved[n] = text
	return nil
}

func (m *MockLevelStore) RefreshCache() { m.refreshed++ }

func newTestService(t *testing.T, opts ...service.Option) (service.GameService, *MockSessionManager) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	sessions := NewMockSessionManager()
	opts = append([]service.Option{service.WithLogger(logger)}, opts...)
	return service.NewGameService(sessions, NewMockLevelStore(), opts...), sessions
}

func createSession(t *testing.T, svc service.GameService, level int) string {
	t.Helper()
	info, err := svc.CreateSession(context.Background(), level)
	require.NoError(t, err)
	return info.ID
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	svc := service.NewGameService(NewMockSessionManager(), NewMockLevelStore(), service.WithLogger(logger))

	info, err := svc.CreateSession(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, info.Level)
	require.NotNil(t, info.GameState)
	assert.Equal(t, engine.StatusLoaded, info.GameState.Status)
	assert.Equal(t, 3, info.GameState.MaxLevel)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "session created", entry.Message)
	assert.Equal(t, info.ID, entry.Data["session"])

	_, err = svc.CreateSession(ctx, 9)
	assert.ErrorIs(t, err, engine.ErrLevelNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	id := createSession(t, svc, 2)

	info, err := svc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Level)

	list, err := svc.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteSession(ctx, id))
	_, err = svc.GetSession(ctx, id)
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
	assert.ErrorIs(t, svc.DeleteSession(ctx, id), service.ErrSessionNotFound)
}

func TestMove(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid direction", func(t *testing.T) {
		svc, _ := newTestService(t)
		id := createSession(t, svc, 2)
		_, err := svc.Move(ctx, id, "sideways")
		assert.ErrorIs(t, err, engine.ErrInvalidDirection)
	})

	t.Run("unknown session", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Move(ctx, "nope", "up")
		assert.ErrorIs(t, err, service.ErrSessionNotFound)
	})

	t.Run("blocked by wall", func(t *testing.T) {
		svc, sessions := newTestService(t)
		id := createSession(t, svc, 2)

		result, err := svc.Move(ctx, id, "left")
		require.NoError(t, err)
		assert.False(t, result.Success)
		require.NotNil(t, result.AttemptedTo)
		assert.Equal(t, service.StopBlockedWall, result.AttemptedTo.Reason)
		assert.Equal(t, "#", result.AttemptedTo.TileChar)
		assert.Equal(t, 0, result.GameState.Moves)
		assert.Equal(t, 0, sessions.saves)
	})

	t.Run("blocked box", func(t *testing.T) {
		svc, _ := newTestService(t)
		id := createSession(t, svc, 3)

		result, err := svc.Move(ctx, id, "right")
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, service.StopBlockedBox, result.AttemptedTo.Reason)
	})

	t.Run("push", func(t *testing.T) {
		svc, sessions := newTestService(t)
		id := createSession(t, svc, 2)

		result, err := svc.Move(ctx, id, "R")
		require.NoError(t, err)
		require.True(t, result.Success)
		require.NotNil(t, result.Step)
		assert.True(t, result.Step.Pushed)
		assert.Equal(t, "R", result.Step.Letter)
		assert.Equal(t, engine.Position{X: 1, Y: 2}, result.Step.From)
		assert.Equal(t, engine.Position{X: 2, Y: 2}, result.Step.To)
		assert.Equal(t, &engine.Position{X: 3, Y: 2}, result.Step.BoxTo)
		assert.False(t, result.Step.OnGoal)
		assert.Equal(t, "push", result.Events[0].Type)
		assert.Equal(t, engine.StatusInProgress, result.GameState.Status)
		assert.Equal(t, 1, sessions.saves)
	})

	t.Run("solving move", func(t *testing.T) {
		svc, _ := newTestService(t)
		id := createSession(t, svc, 1)

		result, err := svc.Move(ctx, id, "right")
		require.NoError(t, err)
		require.NotNil(t, result.Solved)
		assert.Equal(t, 1, result.Solved.Level)
		assert.True(t, result.Step.OnGoal)
		assert.True(t, result.Step.Solved)
		assert.Equal(t, engine.StatusSolved, result.GameState.Status)

		var types []string
		for _, ev := range result.Events {
			types = append(types, ev.Type)
		}
		assert.Equal(t, []string{"push", "box_on_target", "solved"}, types)

		again, err := svc.Move(ctx, id, "left")
		require.NoError(t, err)
		assert.False(t, again.Success)
		assert.Equal(t, service.StopAlreadySolved, again.AttemptedTo.Reason)
	})
}

func TestAutoAdvance(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, service.WithAutoAdvance(true))
	id := createSession(t, svc, 1)

	result, err := svc.Move(ctx, id, "right")
	require.NoError(t, err)
	require.NotNil(t, result.Solved)
	assert.Equal(t, 1, result.Solved.Level)
	assert.Equal(t, 2, result.GameState.Level)
	assert.Equal(t, engine.StatusLoaded, result.GameState.Status)
	assert.Equal(t, "level_loaded", result.Events[len(result.Events)-1].Type)
	assert.Equal(t, []int{1}, result.GameState.SolvedLevels)
}

func TestBulkMove(t *testing.T) {
	ctx := context.Background()

	t.Run("solves level", func(t *testing.T) {
		svc, _ := newTestService(t)
		id := createSession(t, svc, 2)

		result, err := svc.BulkMove(ctx, id, []string{"right", "down", "right", "up"})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 4, result.MovesExecuted)
		assert.Equal(t, 2, result.Pushes)
		assert.Equal(t, "RdrU", result.LURD)
		assert.Equal(t, service.StopSolved, result.StopReasonCode)
		assert.Zero(t, result.StoppedOnMove)
		require.NotNil(t, result.Solved)
		assert.Equal(t, "RdrU", result.Solved.Solution)
		assert.Equal(t, engine.Position{X: 1, Y: 2}, result.StartPos)
		assert.Equal(t, engine.Position{X: 3, Y: 2}, result.EndPos)
		assert.Empty(t, result.PossibleMoves)
	})

	t.Run("stops after solving", func(t *testing.T) {
		svc, _ := newTestService(t)
		id := createSession(t, svc, 2)

		result, err := svc.BulkMove(ctx, id, []string{"r", "d", "r", "u", "d", "d"})
		require.NoError(t, err)
		assert.Equal(t, 4, result.MovesExecuted)
		assert.Equal(t, 4, result.StoppedOnMove)
		assert.Equal(t, 6, result.RequestedMoves)
	})

	t.Run("blocked", func(t *testing.T) {
		svc, _ := newTestService(t)
		id := createSession(t, svc, 2)

		result, err := svc.BulkMove(ctx, id, []string{"up", "up", "up"})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1, result.MovesExecuted)
		assert.Equal(t, 2, result.StoppedOnMove)
		assert.Equal(t, service.StopBlockedWall, result.StopReasonCode)
		assert.Equal(t, engine.Position{X: 1, Y: 0}, engine.Position{X: result.AttemptedTo.X, Y: result.AttemptedTo.Y})
	})

	t.Run("invalid direction", func(t *testing.T) {
		svc, _ := newTestService(t)
		id := createSession(t, svc, 2)

		result, err := svc.BulkMove(ctx, id, []string{"down", "jump"})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, service.StopInvalidDirection, result.StopReasonCode)
		assert.Equal(t, 2, result.StoppedOnMove)
		assert.Equal(t, 1, result.GameState.Moves)
	})

	t.Run("truncated", func(t *testing.T) {
		svc, _ := newTestService(t)
		id := createSession(t, svc, 2)

		moves := make([]string, 0, engine.MaxBulkMoves+10)
		for len(moves) < engine.MaxBulkMoves+10 {
			moves = append(moves, "down", "up")
		}
		result, err := svc.BulkMove(ctx, id, moves)
		require.NoError(t, err)
		assert.True(t, result.Truncated)
		assert.Equal(t, engine.MaxBulkMoves, result.Limit)
		assert.Equal(t, engine.MaxBulkMoves, result.MovesExecuted)
	})
}

func TestUndoAndRestart(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	id := createSession(t, svc, 2)

	result, err := svc.Undo(ctx, id)
	require.NoError(t, err)
	assert.False(t, result.Success)

	_, err = svc.BulkMove(ctx, id, []string{"right", "down"})
	require.NoError(t, err)

	result, err = svc.Undo(ctx, id)
	require.NoError(t, err)
	require.True(t, result.Success)
	assert.Equal(t, "down", result.Step.Dir)
	assert.Equal(t, engine.Position{X: 2, Y: 3}, result.Step.From)
	assert.Equal(t, engine.Position{X: 2, Y: 2}, result.Step.To)
	assert.Equal(t, 1, result.GameState.Moves)
	assert.True(t, result.GameState.CanUndo)

	state, err := svc.Restart(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusLoaded, state.Status)
	assert.Equal(t, 0, state.Moves)
	assert.Equal(t, []string{"######", "#  . #", "#@$  #", "#    #", "######"}, state.Rows)
}

func TestSetLevel(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	id := createSession(t, svc, 2)

	_, err := svc.Move(ctx, id, "right")
	require.NoError(t, err)

	_, err = svc.SetLevel(ctx, id, 4)
	assert.ErrorIs(t, err, engine.ErrLevelNotFound)
	state, err := svc.GetGameState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Level)
	assert.Equal(t, 1, state.Moves)

	state, err = svc.SetLevel(ctx, id, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.Level)
	assert.Equal(t, 0, state.Moves)
}

func TestNextAndPrevLevel(t *testing.T) {
	ctx := context.Background()
	svc, sessions := newTestService(t)
	id := createSession(t, svc, 2)

	state, err := svc.NextLevel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Level)
	assert.Equal(t, engine.StatusLoaded, state.Status)

	_, err = svc.NextLevel(ctx, id)
	assert.ErrorIs(t, err, engine.ErrLevelNotFound)
	state, err = svc.GetGameState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, state.Level, "a failed load keeps the current level")

	state, err = svc.PrevLevel(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, state.Level)
	assert.Equal(t, 2, sessions.saves, "only successful level changes are saved")

	first := createSession(t, svc, 1)
	_, err = svc.PrevLevel(ctx, first)
	assert.ErrorIs(t, err, engine.ErrLevelNotFound)

	_, err = svc.NextLevel(ctx, "missing")
	assert.ErrorIs(t, err, service.ErrSessionNotFound)
}

func TestReloadLevels(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := NewMockLevelStore()
	svc := service.NewGameService(NewMockSessionManager(), store, service.WithLogger(logger))

	count, err := svc.ReloadLevels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, 1, store.refreshed)
}

func TestGetMoveHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	id := createSession(t, svc, 2)

	_, err := svc.BulkMove(ctx, id, []string{"right", "down", "right", "up"})
	require.NoError(t, err)

	page1, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, page1.TotalMoves)
	assert.Equal(t, 2, page1.Pushes)
	assert.Equal(t, "RdrU", page1.LURD)
	assert.Equal(t, 2, page1.TotalPages)
	assert.True(t, page1.HasNext)
	require.Len(t, page1.Moves, 3)
	assert.Equal(t, 4, page1.Moves[0].Index)
	assert.Equal(t, "U", page1.Moves[0].Letter)

	page2, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Page: 2, Limit: 3})
	require.NoError(t, err)
	require.Len(t, page2.Moves, 1)
	assert.Equal(t, 1, page2.Moves[0].Index)
	assert.True(t, page2.HasPrevious)

	asc, err := svc.GetMoveHistory(ctx, id, service.HistoryOptions{Order: "asc"})
	require.NoError(t, err)
	require.Len(t, asc.Moves, 4)
	assert.Equal(t, "right", asc.Moves[0].Move)
	assert.True(t, asc.Moves[0].Pushed)
}

func TestLevels(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	list, err := svc.ListLevels(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	detail, err := svc.GetLevel(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, pushLevel, detail.Text)
	assert.True(t, detail.Validation.Valid)

	_, err = svc.GetLevel(ctx, 7)
	assert.ErrorIs(t, err, engine.ErrLevelNotFound)

	detail, err = svc.SaveLevel(ctx, 4, "#####\n#   #\n#####")
	assert.ErrorIs(t, err, service.ErrInvalidLevel)
	require.NotNil(t, detail)
	assert.False(t, detail.Validation.Valid)

	_, err = svc.SaveLevel(ctx, 4, pushLevel)
	assert.NoError(t, err)
}

func TestConcurrentMoves(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	id := createSession(t, svc, 2)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			dir := "down"
			if i%2 == 1 {
				dir = "up"
			}
			_, err := svc.Move(ctx, id, dir)
			assert.NoError(t, err)
			_, err = svc.GetGameState(ctx, id)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	id := createSession(t, svc, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				info, err := svc.GetSession(ctx, id)
				if assert.NoError(t, err) {
					assert.False(t, info.LastAccessedAt.IsZero())
				}
				_, err = svc.ListSessions(ctx)
				assert.NoError(t, err)
				_, err = svc.GetMoveHistory(ctx, id, service.HistoryOptions{})
				assert.NoError(t, err)
				if i == 0 {
					_, err = svc.Move(ctx, id, []string{"down", "up"}[j%2])
					assert.NoError(t, err)
				}
			}
		}(i)
	}
	wg.Wait()

	state, err := svc.GetGameState(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 20, state.Moves)
}
