// Package levels provides the level store for the Sokoban server.
//
// A store is a directory of plain-text level files named level1.txt, level2.txt
// and so on. Numbering starts at 1 and the store ends at the first missing
// number. Without a directory the levels embedded in the binary are used.
//
// Usage:
//
//	store, err := levels.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, err := engine.NewGame(store, 1, engine.WithMaxLevel(store.Count()))
//
// Levels are validated with engine.ValidateLevel before they are saved.
package levels
