package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/wricardo/mall-parking/wayfinder/logger"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
)

// DefaultLocale is used when a caller does not ask for one
const DefaultLocale = "en"

// routeKey identifies a memoized route
type routeKey struct {
	layoutID string
	start    engine.Position
	vehicle  engine.Position
}

// navigationServiceImpl implements the NavigationService interface
type navigationServiceImpl struct {
	sessions SessionManager
	layouts  LayoutManager
	renderer Renderer
	speaker  Speaker
	locale   string
	log      *zerolog.Logger

	mu       sync.RWMutex
	planners map[string]*engine.Planner
	routes   map[routeKey]*engine.Route
}

// Option configures the navigation service
type Option func(*navigationServiceImpl)

// WithRenderer renders narration into text for each leg
func WithRenderer(r Renderer) Option {
	return func(s *navigationServiceImpl) { s.renderer = r }
}

// WithSpeaker speaks the leg to the vehicle after each navigation
func WithSpeaker(sp Speaker) Option {
	return func(s *navigationServiceImpl) { s.speaker = sp }
}

// WithDefaultLocale sets the locale used when a request names none
func WithDefaultLocale(locale string) Option {
	return func(s *navigationServiceImpl) {
		if locale != "" {
			s.locale = locale
		}
	}
}

// WithLogger replaces the shared logger
func WithLogger(l *zerolog.Logger) Option {
	return func(s *navigationServiceImpl) { s.log = l }
}

// NewNavigationService creates a new navigation service instance
func NewNavigationService(sessions SessionManager, layouts LayoutManager, opts ...Option) NavigationService {
	s := &navigationServiceImpl{
		sessions: sessions,
		layouts:  layouts,
		locale:   DefaultLocale,
		log:      logger.Get(),
		planners: make(map[string]*engine.Planner),
		routes:   make(map[routeKey]*engine.Route),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new navigation session on the given basement layout
func (s *navigationServiceImpl) CreateSession(ctx context.Context, layoutID string) (*SessionInfo, error) {
	var layout *engine.BasementLayout
	var err error
	if layoutID != "" {
		layout, err = s.layouts.LoadLayout(layoutID)
		if err != nil {
			return nil, s.layoutError(layoutID, err)
		}
	} else {
		layout = s.layouts.GetDefault()
		layoutID = s.layouts.DefaultID()
	}

	// Let session manager generate a 4-character ID
	sess, err := s.sessions.Create("", layoutID, layout)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.Info().Msgf("[SESSION] created id=%s layout=%s", sess.ID, layoutID)
	return s.sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *navigationServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.sessions.UpdateLastAccessed(sessionID)
	return s.sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *navigationServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		info := s.sessionInfo(sess)
		info.Layout = nil
		result = append(result, info)
	}
	return result, nil
}

// DeleteSession removes a session
func (s *navigationServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.log.Info().Msgf("[SESSION] deleted id=%s", sessionID)
	return nil
}

// SaveVehicle validates the label against the session's basement and stores it
func (s *navigationServiceImpl) SaveVehicle(ctx context.Context, sessionID, label string) (*SessionInfo, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	loc, err := sess.Layout.ResolveVehicle(label)
	if err != nil {
		return nil, err
	}

	// Store the canonical form so every client reads the same label back
	sess, err = s.sessions.SetVehicle(sessionID, engine.FormatLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.log.Info().Msgf("[VEHICLE] session=%s saved=%q node=%s", sess.ID, sess.VehicleLabel, loc.Position)
	return s.sessionInfo(sess), nil
}

// ClearVehicle forgets the saved vehicle location
func (s *navigationServiceImpl) ClearVehicle(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.sessions.SetVehicle(sessionID, "")
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}

	s.log.Info().Msgf("[VEHICLE] session=%s cleared", sess.ID)
	return s.sessionInfo(sess), nil
}

// Navigate plans the route from the basement's user start to the saved vehicle
// and on to the exit. An unreachable leg is reported, not returned as an error.
func (s *navigationServiceImpl) Navigate(ctx context.Context, sessionID, locale string) (*NavigationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)

	if !sess.HasVehicle() {
		return nil, fmt.Errorf("session %s: %w", sess.ID, ErrNoVehicle)
	}

	planner, err := s.planner(sess.LayoutID, sess.Layout)
	if err != nil {
		return nil, err
	}
	layout := planner.Layout()

	loc, err := layout.ResolveVehicle(sess.VehicleLabel)
	if err != nil {
		return nil, err
	}

	key := routeKey{layoutID: sess.LayoutID, start: layout.UserStart, vehicle: loc.Position}
	route, cached := s.cachedRoute(key)
	if !cached {
		route, err = planner.Route(sess.VehicleLabel)
		if err != nil {
			return nil, err
		}
		s.storeRoute(key, route)
	}

	if locale == "" {
		locale = s.locale
	}

	result := &NavigationResult{
		SessionID: sess.ID,
		LayoutID:  sess.LayoutID,
		Locale:    locale,
		Vehicle:   *NewVehicleInfo(sess.VehicleLabel, route.Vehicle),
		ToVehicle: NewNarratedLegResult(layout.UserStart, loc.Position, engine.FormatLabel(loc.Position),
			route.ToVehicle, route.ToVehicleNarration),
		ToExit: NewNarratedLegResult(loc.Position, layout.Exit, layout.ExitName(),
			route.ToExit, route.ToExitNarration),
		Cached:    cached,
	}
	s.render(locale, result.ToVehicle)
	s.render(locale, result.ToExit)

	s.log.Info().Msgf("[NAV] session=%s vehicle=%s to_vehicle=%d to_exit=%d reachable=%t/%t cached=%t",
		sess.ID, result.Vehicle.Column, route.ToVehicle.Len(), route.ToExit.Len(),
		result.ToVehicle.Reachable, result.ToExit.Reachable, cached)

	if s.speaker != nil && result.ToVehicle.Reachable && result.ToVehicle.Text != "" {
		s.speaker.SpeakAsync(result.ToVehicle.Text, locale)
	}

	return result, nil
}

// FindPath searches a single leg on a layout with both endpoints made walkable
func (s *navigationServiceImpl) FindPath(ctx context.Context, layoutID string, from, to engine.Position) (*LegResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	layout, err := s.layouts.LoadLayout(layoutID)
	if err != nil {
		return nil, s.layoutError(layoutID, err)
	}
	planner, err := s.planner(layoutID, layout)
	if err != nil {
		return nil, err
	}

	path, err := planner.Leg(from, to)
	if err != nil {
		return nil, err
	}

	leg := NewLegResult(from, to, engine.FormatLabel(to), path)
	s.render(s.locale, leg)

	s.log.Debug().Msgf("[PATH] layout=%s from=%s to=%s nodes=%d", layoutID, from, to, path.Len())
	return leg, nil
}

// ListLayouts returns all available basement layouts
func (s *navigationServiceImpl) ListLayouts(ctx context.Context) ([]*LayoutInfo, error) {
	return s.layouts.ListLayouts()
}

// LoadLayout loads a basement layout by id
func (s *navigationServiceImpl) LoadLayout(ctx context.Context, layoutID string) (*engine.BasementLayout, error) {
	layout, err := s.layouts.LoadLayout(layoutID)
	if err != nil {
		return nil, s.layoutError(layoutID, err)
	}
	return layout, nil
}

// SaveLayout stores a layout and drops every planner and route built from its previous version
func (s *navigationServiceImpl) SaveLayout(ctx context.Context, layoutID string, layout *engine.BasementLayout) error {
	if err := s.layouts.SaveLayout(layoutID, layout); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.planners, layoutID)
	for key := range s.routes {
		if key.layoutID == layoutID {
			delete(s.routes, key)
		}
	}
	s.mu.Unlock()

	s.log.Info().Msgf("[LAYOUT] saved id=%s basement=%s %dx%d obstacles=%d",
		layoutID, layout.Basement, layout.Cols, layout.Rows, len(layout.Obstacles))
	return nil
}

// planner returns the cached planner for a layout id, building it from the
// current layout file or, when the file is gone, from the session's copy
func (s *navigationServiceImpl) planner(layoutID string, fallback *engine.BasementLayout) (*engine.Planner, error) {
	s.mu.RLock()
	p, ok := s.planners[layoutID]
	s.mu.RUnlock()
	if ok {
		return p, nil
	}

	layout, err := s.layouts.LoadLayout(layoutID)
	if err != nil {
		if fallback == nil {
			return nil, s.layoutError(layoutID, err)
		}
		layout = fallback
	}

	p, err = engine.NewPlanner(layout)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.planners[layoutID]; ok {
		return existing, nil
	}
	s.planners[layoutID] = p
	return p, nil
}

func (s *navigationServiceImpl) cachedRoute(key routeKey) (*engine.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	route, ok := s.routes[key]
	return route, ok
}

func (s *navigationServiceImpl) storeRoute(key routeKey, route *engine.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[key] = route
}

// render fills the text fields of a leg when a renderer is configured
func (s *navigationServiceImpl) render(locale string, leg *LegResult) {
	if s.renderer == nil {
		return
	}
	leg.Steps = s.renderer.Render(locale, leg.Narration)
	leg.Text = s.renderer.Sentence(locale, leg.Narration)
}

// layoutError lists the available layouts when the requested one is missing
func (s *navigationServiceImpl) layoutError(layoutID string, err error) error {
	available, listErr := s.layouts.ListLayouts()
	if listErr != nil || len(available) == 0 {
		return fmt.Errorf("layout '%s': %w", layoutID, err)
	}

	ids := make([]string, 0, len(available))
	for _, l := range available {
		ids = append(ids, l.LayoutID)
	}
	return fmt.Errorf("layout '%s': %w (available layouts: %v)", layoutID, err, ids)
}

func (s *navigationServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	info := &SessionInfo{
		ID:             sess.ID,
		LayoutID:       sess.LayoutID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		Layout:         sess.Layout,
	}
	if sess.Layout != nil {
		info.Basement = sess.Layout.Basement
	}
	if sess.HasVehicle() {
		if loc, err := engine.ParseLocation(sess.VehicleLabel); err == nil {
			info.Vehicle = NewVehicleInfo(sess.VehicleLabel, loc)
		}
	}
	return info
}
