// Package session stores play sessions in memory and, optionally, in a
// persistence backend.
//
// Manager implements service.SessionManager. Session IDs are UUIDs unless the
// caller supplies one, and lookups ignore case.
//
// Persistence:
//
// Two SessionPersistence backends are provided. FilePersistence writes one JSON
// file per session. RedisPersistence stores the same JSON under
// "sokoban:session:<id>" with an optional TTL. Neither stores the board itself:
// a session is saved as the level text it started from plus its LURD history,
// and loading replays the history, which restores the board and the undo log.
//
// Sessions evicted by CleanupExpiredSessions are saved first and reload
// transparently on the next Get.
//
// Usage:
//
//	store, err := session.NewFilePersistence("sessions", levels)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(store, logger)
//
//	game, _ := engine.NewGame(levels, 1)
//	sess, err := manager.Create("", game)
package session
