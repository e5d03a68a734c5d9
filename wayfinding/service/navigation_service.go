package service

import (
	"context"
	"time"

	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
)

// NavigationService defines all wayfinding operations
type NavigationService interface {
	// Session Management
	CreateSession(ctx context.Context, layoutID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Vehicle
	SaveVehicle(ctx context.Context, sessionID, label string) (*SessionInfo, error)
	ClearVehicle(ctx context.Context, sessionID string) (*SessionInfo, error)

	// Routing
	Navigate(ctx context.Context, sessionID, locale string) (*NavigationResult, error)
	FindPath(ctx context.Context, layoutID string, from, to engine.Position) (*LegResult, error)

	// Layouts
	ListLayouts(ctx context.Context) ([]*LayoutInfo, error)
	LoadLayout(ctx context.Context, layoutID string) (*engine.BasementLayout, error)
	SaveLayout(ctx context.Context, layoutID string, layout *engine.BasementLayout) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, layoutID string, layout *engine.BasementLayout) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	SetVehicle(id, label string) (*Session, error)
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// LayoutManager handles basement layout loading
type LayoutManager interface {
	LoadLayout(name string) (*engine.BasementLayout, error)
	ListLayouts() ([]*LayoutInfo, error)
	GetDefault() *engine.BasementLayout
	DefaultID() string
	SaveLayout(name string, layout *engine.BasementLayout) error
}

// Renderer turns narration into text for a locale
type Renderer interface {
	Render(locale string, steps []engine.Instruction) []string
	Sentence(locale string, steps []engine.Instruction) string
}

// Speaker hands text to a speech synthesizer without waiting for it
type Speaker interface {
	SpeakAsync(text, locale string)
}

// Session is one user's navigation session: the basement they parked in and
// the vehicle label they saved
type Session struct {
	ID             string
	LayoutID       string
	Layout         *engine.BasementLayout
	VehicleLabel   string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}

// HasVehicle reports whether a vehicle location has been saved
func (s *Session) HasVehicle() bool {
	return s.VehicleLabel != ""
}
