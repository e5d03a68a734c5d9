package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wricardo/mall-parking/wayfinder/logger"
	wshub "github.com/wricardo/mall-parking/wayfinder/transport/websocket"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/engine"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/service"
)

func TestWSURL(t *testing.T) {
	tests := []struct {
		server  string
		session string
		want    string
		wantErr bool
	}{
		{"http://localhost:8080", "AB12", "ws://localhost:8080/ws?session=AB12", false},
		{"https://mall.example.com/", "ab12", "wss://mall.example.com/ws?session=ab12", false},
		{"http://localhost:8080/wayfinder", "AB12", "ws://localhost:8080/wayfinder/ws?session=AB12", false},
		{"ftp://localhost", "AB12", "", true},
		{"http://localhost:8080", "", "", true},
		{"localhost", "AB12", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.server+"/"+tt.session, func(t *testing.T) {
			got, err := wsURL(tt.server, tt.session)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wsURL() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("wsURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintMessage(t *testing.T) {
	t.Run("Route update", func(t *testing.T) {
		var out bytes.Buffer
		err := printMessage(&out, &wshub.Message{
			SessionID: "AB12",
			Event:     wshub.EventRouteUpdate,
			Navigation: &service.NavigationResult{
				SessionID: "AB12",
				Vehicle:   service.VehicleInfo{Label: "Basement B3. Column F8"},
				ToVehicle: &service.LegResult{Reachable: true, Moves: 10, Steps: []string{"Head towards F8", "You have arrived at F8"}},
				ToExit:    &service.LegResult{Reachable: false},
			},
		})
		if err != nil {
			t.Fatalf("printMessage failed: %v", err)
		}
		text := out.String()
		for _, want := range []string{
			"[AB12] route to Basement B3. Column F8",
			"To vehicle (10 moves):",
			"    Head towards F8",
			"To exit: no route found",
		} {
			if !strings.Contains(text, want) {
				t.Errorf("Expected %q in output:\n%s", want, text)
			}
		}
	})

	t.Run("Narration without steps", func(t *testing.T) {
		var out bytes.Buffer
		printLeg(&out, "To exit", &service.LegResult{
			Reachable: true,
			Moves:     2,
			Narration: []engine.Instruction{{Kind: engine.KindBegin, Destination: "Exit"}},
		})
		if !strings.Contains(out.String(), "begin(Exit)") {
			t.Errorf("Expected raw instruction in output:\n%s", out.String())
		}
	})

	t.Run("Session closed", func(t *testing.T) {
		var out bytes.Buffer
		err := printMessage(&out, &wshub.Message{SessionID: "AB12", Event: wshub.EventSessionClosed})
		if err != errSessionClosed {
			t.Errorf("Expected errSessionClosed, got %v", err)
		}
	})
}

func TestWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := wshub.NewHub()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	defer srv.Close()

	target, err := wsURL(srv.URL, "AB12")
	if err != nil {
		t.Fatalf("wsURL failed: %v", err)
	}

	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, target, &out, 0, logger.Nop())
	}()

	deadline := time.Now().Add(5 * time.Second)
	for hub.ClientCount("AB12") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("watcher never attached to the hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.BroadcastSession(wshub.EventVehicleSaved, &service.SessionInfo{
		ID:      "AB12",
		Vehicle: &service.VehicleInfo{Label: "Basement B3. Column F8"},
	})
	hub.BroadcastRoute(&service.NavigationResult{
		SessionID: "AB12",
		Vehicle:   service.VehicleInfo{Label: "Basement B3. Column F8"},
		ToVehicle: &service.LegResult{Reachable: true, Moves: 10, Steps: []string{"Head towards F8"}},
		ToExit:    &service.LegResult{Reachable: true, Moves: 7, Steps: []string{"Head towards Exit ramp"}},
	})
	hub.BroadcastEvent("AB12", wshub.EventSessionClosed, nil)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after the session closed")
	}

	text := out.String()
	for _, want := range []string{
		"[AB12] vehicle saved: Basement B3. Column F8",
		"[AB12] route to Basement B3. Column F8",
		"To exit (7 moves):",
		"[AB12] session closed",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output:\n%s", want, text)
		}
	}
}

func TestWatch_ConnectError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	target, _ := wsURL(srv.URL, "AB12")
	if err := watch(context.Background(), target, &bytes.Buffer{}, 1, logger.Nop()); err == nil {
		t.Fatal("Expected error dialing a non-websocket endpoint")
	}
}
