// Package service provides the business logic layer for the Sokoban server.
//
// GameService is the single entry point used by every transport (HTTP,
// WebSocket and MCP). It owns no storage itself: sessions come from a
// SessionManager and level text from a LevelStore, so each can be swapped
// independently.
//
// Moves:
//
// Move applies one direction and reports events (move, push, box_on_target,
// solved, level_loaded). BulkMove applies up to engine.MaxBulkMoves directions and
// stops at the first one that is invalid or blocked, or once the level is
// solved. The result explains why it stopped and which cell blocked it.
//
// Usage:
//
//	levels := levels.NewEmbeddedManager()
//	sessions := session.NewManager(logger)
//	svc := service.NewGameService(sessions, levels, service.WithLogger(logger))
//
//	info, err := svc.CreateSession(ctx, 1)
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := svc.BulkMove(ctx, info.ID, []string{"R", "d", "r", "U"})
//
// All operations are serialized by a service-wide lock; engine games are not
// safe for concurrent use.
package service
