// Package api provides the HTTP REST API of the Sokoban server.
//
// Endpoints:
//
// Sessions:
//   - POST   /api/sessions               {"level": n} creates a session (default level 1)
//   - GET    /api/sessions               ?sort=created|accessed&order=asc|desc&limit=n
//   - GET    /api/sessions/{id}
//   - DELETE /api/sessions/{id}
//
// Play:
//   - GET  /api/sessions/{id}/state
//   - POST /api/sessions/{id}/move      {"direction": "up"}
//   - POST /api/sessions/{id}/bulk-move {"moves": ["up","left"]} or {"lurd": "uLLd"}
//   - POST /api/sessions/{id}/undo
//   - POST /api/sessions/{id}/restart
//   - POST /api/sessions/{id}/level     {"level": n}
//   - POST /api/sessions/{id}/level/next
//   - POST /api/sessions/{id}/level/prev
//   - GET  /api/sessions/{id}/history   ?page=1&limit=20&order=desc
//
// Levels:
//   - GET  /api/levels
//   - GET  /api/levels/{n}
//   - PUT  /api/levels/{n}              raw level text, or {"text": "..."} as JSON
//   - POST /api/levels/reload           drop cached level text and rescan the store
//
// Other:
//   - GET /api/health
//   - GET /ws?session={id}              WebSocket state push
//
// Errors are returned as {"error": "message"} with a status derived from the
// underlying sentinel error: 404 for unknown sessions and levels, 400 for bad
// directions and invalid level text, 403 when the level store is read-only.
// A rejected move is not an error: the response has "success": false and an
// "attempted_to" block describing what was in the way.
package api
