// Package engine implements the Sokoban board engine.
//
// A level is plain text, one character per cell:
//
//	#  wall            .  target
//	   floor           $  box
//	@  player          *  box on target
//	+  player on target
//
// Board parses a level, applies moves (pushing at most one box at a time) and
// reports whether every target holds a box. Board keeps no history of its own:
// the caller records each accepted Step and hands it back to UndoMove to revert it.
//
// Game wraps a Board with its History, the current level number and a Source of
// level text, and tracks the play status:
//
//	loaded --move--> in_progress --move--> solved
//	   ^                 |
//	   +---undo to empty-+
//
// Restart, SetLevel, NextLevel and PrevLevel always return to loaded. A failed load
// leaves the previous board playable.
//
// Usage:
//
//	game, err := engine.NewGame(store, 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//	game.Move(engine.Right)
//	fmt.Println(game.Board())
//
// Nothing in this package is safe for concurrent use.
package engine
