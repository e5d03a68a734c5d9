// Package api provides the HTTP REST API of the wayfinding server.
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create a session, body {"layout_id": "b3"} (optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get one session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Vehicle and navigation:
//   - PUT /api/sessions/{id}/vehicle - Save the vehicle, body {"label": "B3. Column F8"}
//   - DELETE /api/sessions/{id}/vehicle - Forget the vehicle
//   - GET /api/sessions/{id}/navigation - Route to the vehicle and on to the exit
//     (?locale=vi, or the Accept-Language header)
//
// Layouts:
//   - GET /api/layouts - List layouts
//   - POST /api/layouts - Save a layout (?id=b2, defaults to the lowercased name)
//   - GET /api/layouts/{name} - Get a layout
//   - GET /api/layouts/{name}/path?from=2,2&to=F8 - One leg between two nodes
//
// Other:
//   - GET /api/health - Liveness and version
//   - GET /ws?session={id} - WebSocket stream of route updates
//
// Errors are returned as {"error": "message"} with:
//   - 404 for unknown sessions and layouts
//   - 400 for malformed labels, layouts and out-of-grid points
//   - 409 when navigating without a saved vehicle
//   - 500 otherwise
//
// An unreachable leg is not an error: the navigation response carries
// "reachable": false and an empty path for that leg.
//
// Usage:
//
//	srv := api.NewServer(navService, hub)
//	http.ListenAndServe(":8080", srv)
package api
