// Package session keeps navigation sessions: which basement a user is in and
// where they left their vehicle.
//
// Sessions live in memory keyed by a 4-character hex id (case-insensitive)
// and can be written through to a SessionPersistence backend:
//   - FilePersistence stores sessions/<id>.json
//   - SQLitePersistence stores rows in a "sessions" table
//
// Usage:
//
//	store, err := session.NewSQLitePersistence("sessions.db")
//	manager := session.NewManagerWithPersistence(store)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err := manager.Create("", "b3", layout)
//	sess, err = manager.SetVehicle(sess.ID, "Basement B3. Column F8")
//
// A session missing from memory is loaded from persistence on Get, so
// CleanupExpiredSessions only frees memory.
package session
