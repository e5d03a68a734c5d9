package session

import (
	"time"

	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/service"
)

// SessionPersistence defines the interface for persisting sessions
type SessionPersistence interface {
	// Save persists a session to storage
	Save(session *service.Session) error

	// Load retrieves a session from storage by ID
	Load(id string) (*service.Session, error)

	// Delete removes a session from storage
	Delete(id string) error

	// ListAll returns all persisted session IDs
	ListAll() ([]string, error)

	// Exists checks if a session exists in storage
	Exists(id string) bool
}

// PersistedSessionData is the stored form of a session. The layout is kept
// with the session so it can be restored after its file is removed.
type PersistedSessionData struct {
	ID             string                 `json:"id"`
	LayoutID       string                 `json:"layout_id"`
	Layout         *engine.BasementLayout `json:"layout"`
	VehicleLabel   string                 `json:"vehicle_label,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	LastAccessedAt time.Time              `json:"last_accessed_at"`
}

func toPersisted(s *service.Session) PersistedSessionData {
	return PersistedSessionData{
		ID:             s.ID,
		LayoutID:       s.LayoutID,
		Layout:         s.Layout,
		VehicleLabel:   s.VehicleLabel,
		CreatedAt:      s.CreatedAt,
		LastAccessedAt: s.LastAccessedAt,
	}
}

func (d PersistedSessionData) session() (*service.Session, error) {
	if err := engine.ValidateLayout(d.Layout); err != nil {
		return nil, err
	}
	return &service.Session{
		ID:             d.ID,
		LayoutID:       d.LayoutID,
		Layout:         d.Layout,
		VehicleLabel:   d.VehicleLabel,
		CreatedAt:      d.CreatedAt,
		LastAccessedAt: d.LastAccessedAt,
	}, nil
}
