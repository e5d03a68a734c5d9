// Package service defines the navigation service layer shared by the REST API,
// the WebSocket hub and the MCP tools.
//
// The service ties together:
//   - Session storage (one saved vehicle per session)
//   - Basement layouts
//   - Route planning and narration from the engine package
//   - Optional text rendering and speech output
//
// Usage:
//
//	svc := service.NewNavigationService(sessionManager, layoutManager,
//		service.WithRenderer(catalog),
//		service.WithSpeaker(speechClient),
//	)
//
//	info, err := svc.CreateSession(ctx, "b3")
//	info, err = svc.SaveVehicle(ctx, info.ID, "B3. Column F8")
//
//	nav, err := svc.Navigate(ctx, info.ID, "vi")
//	if !nav.ToExit.Reachable {
//		// no way out from the vehicle
//	}
//
// Routes are memoized per layout, start node and vehicle node. Saving a
// layout drops the routes cached for it.
package service
