// Package mcp exposes the wayfinding REST API as Model Context Protocol tools.
//
// The client holds no state of its own. Every tool call is proxied to a
// running API server, so an AI agent and the mobile app see the same
// sessions.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - save_vehicle, clear_vehicle
//   - navigate: both legs with localized steps
//   - find_path: one leg between two nodes of a layout
//   - list_layouts
//   - describe_cell: column label, obstacle and role of a node
//   - wayfinding_instructions: grid conventions and label formats
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
