// Command survey drives a running wayfinding server through its REST API. It
// saves every free column of a basement as the vehicle location in turn,
// requests the route for each, and reports columns that cannot be reached
// together with the longest walks.
//
//	survey --url http://localhost:8080 --layout b3
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mall-parking/wayfinder/logger"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/service"
)

// Client is a minimal REST client bound to one session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, errResp.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// CreateSession starts a session on a layout and binds the client to it
func (c *Client) CreateSession(ctx context.Context, layoutID string) (*service.SessionInfo, error) {
	var info service.SessionInfo
	if err := c.do(ctx, "POST", "/api/sessions", map[string]string{"layout_id": layoutID}, &info); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	c.sessionID = info.ID
	return &info, nil
}

// DeleteSession removes the bound session
func (c *Client) DeleteSession(ctx context.Context) error {
	return c.do(ctx, "DELETE", "/api/sessions/"+url.PathEscape(c.sessionID), nil, nil)
}

// Layout fetches a basement layout
func (c *Client) Layout(ctx context.Context, layoutID string) (*engine.BasementLayout, error) {
	var layout engine.BasementLayout
	if err := c.do(ctx, "GET", "/api/layouts/"+url.PathEscape(layoutID), nil, &layout); err != nil {
		return nil, err
	}
	return &layout, nil
}

// SaveVehicle stores the vehicle label on the bound session
func (c *Client) SaveVehicle(ctx context.Context, label string) error {
	path := fmt.Sprintf("/api/sessions/%s/vehicle", url.PathEscape(c.sessionID))
	return c.do(ctx, "PUT", path, map[string]string{"label": label}, nil)
}

// Navigate asks for both legs of the bound session
func (c *Client) Navigate(ctx context.Context, locale string) (*service.NavigationResult, error) {
	path := fmt.Sprintf("/api/sessions/%s/navigation?locale=%s", url.PathEscape(c.sessionID), url.QueryEscape(locale))
	var nav service.NavigationResult
	if err := c.do(ctx, "GET", path, nil, &nav); err != nil {
		return nil, err
	}
	return &nav, nil
}

// ColumnResult is the surveyed route for one vehicle column
type ColumnResult struct {
	Label     string
	Position  engine.Position
	ToVehicle int
	ToExit    int
	Reachable bool
}

// Walk is the total number of moves, entrance to vehicle to exit
func (r ColumnResult) Walk() int {
	return r.ToVehicle + r.ToExit
}

// Survey collects the results for every free column of a layout
type Survey struct {
	LayoutID    string
	Basement    string
	Columns     []ColumnResult
	Unreachable []string
}

// Longest returns the n columns with the longest walk, longest first
func (s *Survey) Longest(n int) []ColumnResult {
	reachable := make([]ColumnResult, 0, len(s.Columns))
	for _, c := range s.Columns {
		if c.Reachable {
			reachable = append(reachable, c)
		}
	}
	sort.SliceStable(reachable, func(i, j int) bool {
		return reachable[i].Walk() > reachable[j].Walk()
	})
	if n < len(reachable) {
		reachable = reachable[:n]
	}
	return reachable
}

// runSurvey creates a session on layoutID, walks every free column row by
// row, and deletes the session again
func runSurvey(ctx context.Context, c *Client, layoutID, locale string, delay time.Duration, log *zerolog.Logger) (*Survey, error) {
	layout, err := c.Layout(ctx, layoutID)
	if err != nil {
		return nil, err
	}
	grid, err := layout.Build()
	if err != nil {
		return nil, err
	}

	if _, err := c.CreateSession(ctx, layoutID); err != nil {
		return nil, err
	}
	defer func() {
		if err := c.DeleteSession(context.Background()); err != nil {
			log.Warn().Err(err).Msgf("[SURVEY] failed to delete session=%s", c.sessionID)
		}
	}()
	log.Info().Msgf("[SURVEY] session=%s layout=%s basement=%s", c.sessionID, layoutID, layout.Basement)

	survey := &Survey{LayoutID: layoutID, Basement: layout.Basement}
	for y := 1; y <= layout.Rows; y++ {
		for x := 1; x <= layout.Cols; x++ {
			p := engine.Position{X: x, Y: y}
			if grid.IsObstacle(p) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			label := engine.FormatLocation(engine.Location{Basement: layout.Basement, Position: p})
			if err := c.SaveVehicle(ctx, label); err != nil {
				return nil, err
			}
			nav, err := c.Navigate(ctx, locale)
			if err != nil {
				return nil, err
			}

			result := ColumnResult{
				Label:     engine.FormatLabel(p),
				Position:  p,
				ToVehicle: nav.ToVehicle.Moves,
				ToExit:    nav.ToExit.Moves,
				Reachable: nav.ToVehicle.Reachable && nav.ToExit.Reachable,
			}
			survey.Columns = append(survey.Columns, result)
			if !result.Reachable {
				survey.Unreachable = append(survey.Unreachable, result.Label)
			}
			log.Debug().Msgf("[SURVEY] column=%s to_vehicle=%d to_exit=%d reachable=%t",
				result.Label, result.ToVehicle, result.ToExit, result.Reachable)

			if delay > 0 {
				time.Sleep(delay)
			}
		}
	}

	return survey, nil
}

func printSurvey(out io.Writer, s *Survey, top int) {
	fmt.Fprintf(out, "Layout %s (basement %s): %d columns surveyed\n", s.LayoutID, s.Basement, len(s.Columns))

	if len(s.Unreachable) > 0 {
		fmt.Fprintf(out, "❌ %d columns without a complete route: %s\n", len(s.Unreachable), strings.Join(s.Unreachable, ", "))
	} else {
		fmt.Fprintln(out, "✅ Every column has a route from the entrance and on to the exit")
	}

	longest := s.Longest(top)
	if len(longest) == 0 {
		return
	}
	fmt.Fprintln(out, "Longest walks:")
	for _, c := range longest {
		fmt.Fprintf(out, "  %-4s %3d moves (%d to vehicle, %d to exit)\n", c.Label, c.Walk(), c.ToVehicle, c.ToExit)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "survey",
		Usage: "route to every column of a basement through the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "wayfinding server URL"},
			&cli.StringFlag{Name: "layout", Value: "b3", Usage: "layout id to survey"},
			&cli.StringFlag{Name: "locale", Value: "en", Usage: "narration locale requested from the server"},
			&cli.IntFlag{Name: "top", Value: 5, Usage: "number of longest walks to print"},
			&cli.DurationFlag{Name: "delay", Usage: "pause between columns"},
			&cli.BoolFlag{Name: "v", Usage: "log every column"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := zerolog.InfoLevel
			if cmd.Bool("v") {
				level = zerolog.DebugLevel
			}
			log := logger.Configure(level)

			survey, err := runSurvey(ctx, NewClient(cmd.String("url")), cmd.String("layout"),
				cmd.String("locale"), cmd.Duration("delay"), log)
			if err != nil {
				return err
			}

			printSurvey(out, survey, int(cmd.Int("top")))
			if len(survey.Unreachable) > 0 {
				return fmt.Errorf("%d unreachable columns", len(survey.Unreachable))
			}
			return nil
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
