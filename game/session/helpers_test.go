package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
)

const (
	testLevelOne = "#####\n#@$.#\n#####"
	testLevelTwo = "######\n#  . #\n#@$  #\n#    #\n######"
)

func testLevels() engine.Source {
	return engine.SourceFunc(func(index int) (string, error) {
		switch index {
		case 1:
			return testLevelOne, nil
		case 2:
			return testLevelTwo, nil
		}
		return "", engine.ErrLevelNotFound
	})
}

func newTestGame(t *testing.T, level int) *engine.Game {
	t.Helper()
	game, err := engine.NewGame(testLevels(), level)
	require.NoError(t, err)
	return game
}

// failingPersistence rejects every write.
type failingPersistence struct{}

var errStorageDown = errors.New("storage down")

func (failingPersistence) Save(*service.Session) error                { return errStorageDown }
func (failingPersistence) Load(string) (*service.Session, error)      { return nil, errStorageDown }
func (failingPersistence) Delete(string) error                        { return errStorageDown }
func (failingPersistence) ListAll() ([]string, error)                 { return nil, errStorageDown }
func (failingPersistence) Exists(string) bool                         { return false }
