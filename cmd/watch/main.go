// Command watch follows a session over the server's WebSocket and prints
// each route and vehicle change as the server pushes it.
//
//	watch --url http://localhost:8080 --session AB12
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mall-parking/wayfinder/logger"
	wshub "github.com/wricardo/mall-parking/wayfinder/transport/websocket"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/service"
)

// errSessionClosed stops the watch once the server deletes the session
var errSessionClosed = errors.New("session closed")

// wsURL turns the server's HTTP base URL into the session's WebSocket URL
func wsURL(server, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session id is required")
	}
	u, err := url.Parse(server)
	if err != nil {
		return "", fmt.Errorf("invalid server url %q: %w", server, err)
	}

	switch u.Scheme {
	case "http", "ws", "":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server url %q: missing host", server)
	}

	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("session", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// watch prints messages until ctx is done, the session closes, or limit
// messages have arrived. A limit of 0 means no limit.
func watch(ctx context.Context, target string, out io.Writer, limit int, log *zerolog.Logger) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", target, err)
	}
	defer conn.Close()
	log.Info().Msgf("[WATCH] connected to %s", target)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	received := 0
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var msg wshub.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Msg("[WATCH] skipping malformed message")
			continue
		}

		if err := printMessage(out, &msg); err != nil {
			if errors.Is(err, errSessionClosed) {
				return nil
			}
			return err
		}

		received++
		if limit > 0 && received >= limit {
			return nil
		}
	}
}

func printMessage(out io.Writer, msg *wshub.Message) error {
	switch msg.Event {
	case wshub.EventRouteUpdate:
		if msg.Navigation == nil {
			return nil
		}
		nav := msg.Navigation
		fmt.Fprintf(out, "[%s] route to %s\n", msg.SessionID, nav.Vehicle.Label)
		printLeg(out, "To vehicle", nav.ToVehicle)
		printLeg(out, "To exit", nav.ToExit)

	case wshub.EventVehicleSaved:
		label := ""
		if msg.Session != nil && msg.Session.Vehicle != nil {
			label = msg.Session.Vehicle.Label
		}
		fmt.Fprintf(out, "[%s] vehicle saved: %s\n", msg.SessionID, label)

	case wshub.EventVehicleClear:
		fmt.Fprintf(out, "[%s] vehicle cleared\n", msg.SessionID)

	case wshub.EventSessionClosed:
		fmt.Fprintf(out, "[%s] session closed\n", msg.SessionID)
		return errSessionClosed

	default:
		fmt.Fprintf(out, "[%s] %s\n", msg.SessionID, msg.Event)
	}
	return nil
}

func printLeg(out io.Writer, title string, leg *service.LegResult) {
	switch {
	case leg == nil:
		return
	case !leg.Reachable:
		fmt.Fprintf(out, "  %s: no route found\n", title)
		return
	}

	fmt.Fprintf(out, "  %s (%d moves):\n", title, leg.Moves)
	if len(leg.Steps) > 0 {
		for _, step := range leg.Steps {
			fmt.Fprintf(out, "    %s\n", step)
		}
		return
	}
	for _, step := range leg.Narration {
		fmt.Fprintf(out, "    %s\n", step)
	}
}

func newCommand(out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "print live route updates for a session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "wayfinding server URL"},
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "session id to follow", Sources: cli.EnvVars("WAYFINDER_SESSION")},
			&cli.IntFlag{Name: "count", Usage: "exit after this many messages (0 follows forever)"},
			&cli.BoolFlag{Name: "debug", Usage: "enable debug logging"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := zerolog.InfoLevel
			if cmd.Bool("debug") {
				level = zerolog.DebugLevel
			}
			log := logger.Configure(level)

			target, err := wsURL(cmd.String("url"), cmd.String("session"))
			if err != nil {
				return err
			}
			return watch(ctx, target, out, int(cmd.Int("count")), log)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(os.Stdout).Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
