package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Mall Parking Wayfinder",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mall Parking Wayfinder - MCP Interface

This is a thin client that proxies all requests to the REST API server.

PURPOSE:
Help a shopper get back to their car in an underground basement and then out
through the exit. Vehicle locations are labels such as "B3. Column F8".

AVAILABLE TOOLS:
- create_session: Start a session on a basement layout
- list_sessions / get_session: Inspect sessions
- save_vehicle / clear_vehicle: Remember or forget where the car is parked
- navigate: Turn-by-turn route to the car and on to the exit
- find_path: One leg between two grid nodes on a layout
- list_layouts: Available basements
- describe_cell: What is at a grid node (column label, elevator, entrance, exit)
- wayfinding_instructions: Grid conventions and label formats`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new wayfinding session on a basement layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layout_id": map[string]interface{}{
					"type":        "string",
					"description": "Layout to use, e.g. b3 (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Vehicle
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_vehicle",
		Description: "Remember where the vehicle is parked",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"label": map[string]interface{}{
					"type":        "string",
					"description": `Vehicle location, e.g. "B3. Column F8" or "Hầm B3. Cột F8"`,
				},
			},
			Required: []string{"session_id", "label"},
		},
	}, c.handleSaveVehicle)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "clear_vehicle",
		Description: "Forget the saved vehicle location",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleClearVehicle)

	// Routing
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "navigate",
		Description: "Route from the entrance to the saved vehicle and from the vehicle to the exit",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"locale": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"en", "vi"},
					"description": "Language of the spoken instructions (default en)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleNavigate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "find_path",
		Description: "Shortest path between two nodes of a layout",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layout_id": map[string]interface{}{
					"type":        "string",
					"description": "Layout ID, e.g. b3",
				},
				"from": map[string]interface{}{
					"type":        "string",
					"description": `Start node as "x,y" or a column label such as "B2"`,
				},
				"to": map[string]interface{}{
					"type":        "string",
					"description": `Target node as "x,y" or a column label such as "F8"`,
				},
			},
			Required: []string{"layout_id", "from", "to"},
		},
	}, c.handleFindPath)

	// Layouts
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_layouts",
		Description: "List available basement layouts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLayouts)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe a grid node of a layout: its column label and whether it is blocked",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"layout_id": map[string]interface{}{
					"type":        "string",
					"description": "Layout ID, e.g. b3",
				},
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Node X (0 = left aisle)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Node Y (0 = top aisle, grows downward)",
				},
			},
			Required: []string{"layout_id", "x", "y"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "wayfinding_instructions",
		Description: "Explain the grid conventions and vehicle label formats",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if layoutID := stringArg(args, "layout_id"); layoutID != "" {
		body["layout_id"] = layoutID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Created session: %s\nLayout: %s (basement %s)\n",
		session.ID, session.LayoutID, session.Basement)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active Sessions (%d):\n\n", response.Count)
	for i := range response.Sessions {
		s := &response.Sessions[i]
		vehicle := "no vehicle"
		if s.Vehicle != nil {
			vehicle = s.Vehicle.Label
		}
		fmt.Fprintf(&sb, "- %s (Layout: %s, %s, Created: %s)\n",
			s.ID, s.LayoutID, vehicle, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleSaveVehicle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")
	label := stringArg(args, "label")

	var session service.SessionInfo
	path := fmt.Sprintf("/api/sessions/%s/vehicle", url.PathEscape(sessionID))
	if err := c.apiCall(ctx, "PUT", path, map[string]string{"label": label}, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Vehicle saved.\n" + formatSessionInfo(&session)), nil
}

func (c *Client) handleClearVehicle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := stringArg(arguments(request), "session_id")

	var session service.SessionInfo
	path := fmt.Sprintf("/api/sessions/%s/vehicle", url.PathEscape(sessionID))
	if err := c.apiCall(ctx, "DELETE", path, nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Vehicle location cleared for session " + session.ID), nil
}

func (c *Client) handleNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID := stringArg(args, "session_id")

	path := fmt.Sprintf("/api/sessions/%s/navigation", url.PathEscape(sessionID))
	if locale := stringArg(args, "locale"); locale != "" {
		path += "?locale=" + url.QueryEscape(locale)
	}

	var nav service.NavigationResult
	if err := c.apiCall(ctx, "GET", path, nil, &nav); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatNavigation(&nav)), nil
}

func (c *Client) handleFindPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	query := url.Values{}
	query.Set("from", stringArg(args, "from"))
	query.Set("to", stringArg(args, "to"))
	path := fmt.Sprintf("/api/layouts/%s/path?%s", url.PathEscape(stringArg(args, "layout_id")), query.Encode())

	var leg service.LegResult
	if err := c.apiCall(ctx, "GET", path, nil, &leg); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatLeg(fmt.Sprintf("Path %s -> %s", leg.From, leg.To), &leg)), nil
}

func (c *Client) handleListLayouts(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var layouts []service.LayoutInfo
	if err := c.apiCall(ctx, "GET", "/api/layouts", nil, &layouts); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	sb.WriteString("Available Layouts:\n\n")
	for _, l := range layouts {
		fmt.Fprintf(&sb, "• %s (basement %s)\n  %s\n  Columns: %dx%d, Blocked nodes: %d\n\n",
			l.LayoutID, l.Basement, l.Description, l.Cols, l.Rows, l.Obstacles)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	layoutID := stringArg(args, "layout_id")
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return mcp.NewToolResultError("x and y are required integers"), nil
	}

	var layout engine.BasementLayout
	if err := c.apiCall(ctx, "GET", "/api/layouts/"+url.PathEscape(layoutID), nil, &layout); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text, err := describeNode(&layout, engine.Position{X: x, Y: y})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Mall Parking Wayfinder - Conventions

GRID:
• A basement with C columns and R rows has (C+1) x (R+1) walkable nodes
• x grows to the right, y grows downward; (0,0) is the top-left corner
• Column F8 is the node at x=6 (F is the 6th letter), y=8
• Row 0 and column 0 are the outer aisles and carry no label

LABELS:
• "B3. Column F8", "B3, Column F8", "Basement B3. Column F8"
• Vietnamese: "Hầm B3. Cột F8"

ROUTES:
• navigate returns two legs: entrance to vehicle, then vehicle to exit
• Movement is up, down, left or right only; every step costs the same
• An unreachable leg has reachable=false and no instructions
• Instructions are "Head towards", "Go straight N nodes", "Turn left/right"
  and "You have arrived at"`

// describeNode explains what occupies a node of the layout
func describeNode(layout *engine.BasementLayout, p engine.Position) (string, error) {
	grid, err := layout.Build()
	if err != nil {
		return "", err
	}
	if !grid.InBounds(p) {
		return "", fmt.Errorf("node %s is outside the %dx%d node grid (0-%d, 0-%d)",
			p, layout.Cols+1, layout.Rows+1, layout.Cols, layout.Rows)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Node %s on basement %s\n", p, layout.Basement)
	fmt.Fprintf(&sb, "Label: %s\n", engine.FormatLabel(p))

	if grid.IsObstacle(p) {
		region := "obstacle"
		for _, r := range layout.Obstacles {
			for _, cell := range r.Cells() {
				if cell == p {
					region = r.Name
				}
			}
		}
		fmt.Fprintf(&sb, "Blocked: yes (%s)\n", region)
	} else {
		sb.WriteString("Blocked: no\n")
	}

	switch p {
	case layout.UserStart:
		sb.WriteString("Role: entrance, where routes to the vehicle begin\n")
	case layout.Exit:
		fmt.Fprintf(&sb, "Role: %s\n", layout.ExitName())
	}

	return sb.String(), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session: %s\nLayout: %s (basement %s)\n", session.ID, session.LayoutID, session.Basement)
	if session.Vehicle != nil {
		fmt.Fprintf(&sb, "Vehicle: %s at %s\n", session.Vehicle.Label, session.Vehicle.Position)
	} else {
		sb.WriteString("Vehicle: not saved\n")
	}
	if !session.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "Created: %s\n", session.CreatedAt.Format(time.RFC3339))
	}
	return sb.String()
}

func formatNavigation(nav *service.NavigationResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Vehicle: %s (%s)\n\n", nav.Vehicle.Label, nav.Vehicle.Position)
	sb.WriteString(formatLeg("To your vehicle", nav.ToVehicle))
	sb.WriteString("\n")
	sb.WriteString(formatLeg("To the exit", nav.ToExit))
	return sb.String()
}

func formatLeg(title string, leg *service.LegResult) string {
	if leg == nil {
		return title + ": not planned\n"
	}
	if !leg.Reachable {
		return fmt.Sprintf("%s: no route found\n", title)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d moves):\n", title, leg.Moves)
	if len(leg.Steps) > 0 {
		for i, step := range leg.Steps {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, step)
		}
	} else {
		for i, step := range leg.Narration {
			fmt.Fprintf(&sb, "  %d. %s\n", i+1, step)
		}
	}

	nodes := make([]string, len(leg.Path))
	for i, p := range leg.Path {
		nodes[i] = p.String()
	}
	fmt.Fprintf(&sb, "  Path: %s\n", strings.Join(nodes, " -> "))
	return sb.String()
}
