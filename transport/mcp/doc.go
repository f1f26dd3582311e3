// Package mcp exposes Sokoban sessions to AI agents over the Model Context Protocol.
//
// The Client registers one MCP tool per game operation and proxies every call to
// the REST API, so agents and browsers share the same sessions:
//   - create_session, list_sessions, get_session
//   - game_state, move, bulk_move, undo, restart, set_level
//   - move_history, list_levels
//   - game_instructions, describe_cell
//
// Tool results are plain text: a one-line header with level, position and
// counters, the board rows in level notation, and the moves currently possible.
// move and bulk_move take an optional intent argument that is never sent to the
// server; it lets the agent state its plan before acting.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// The HTTP server also mounts the same tools at /mcp.
package mcp
