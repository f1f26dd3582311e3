// Package websocket pushes live game state to browser clients.
//
// A Hub keeps the connected clients grouped by session ID. Clients connect with
// ?session=<id>, receive the current state immediately and then one
// state_update message after every change to that session. Incoming messages
// are ignored; moves go through the REST API or MCP.
//
// Message format:
//
//	{"session_id": "abc", "event": "state_update", "game_state": {...}}
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	hub.ServeWS(w, r, sessionID, state)
//	hub.BroadcastToSession(sessionID, state)
//
// Clients that fall behind by more than a full send buffer are disconnected.
package websocket
