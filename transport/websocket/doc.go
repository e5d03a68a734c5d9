// Package websocket pushes route updates to the clients watching a
// navigation session.
//
// A central Hub owns every connection. Clients attach with
// GET /ws?session=<id> and only listen; the server sends one JSON message
// per frame:
//
//	{"session_id": "ab12", "event": "route_update", "navigation": {...}}
//
// Events are route_update (after each navigation), vehicle_saved,
// vehicle_cleared and session_closed.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastRoute(nav)
//
// Broadcasts never block the caller. When the queue is full the update is
// dropped and logged; slow clients whose send buffer fills are disconnected.
package websocket
