// Command wayfinder starts the mall parking wayfinding server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, layout and session storage, speech output, debug
// logging, version output, and optional ngrok tunneling for external access
// during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mall-parking/wayfinder/api"
	"github.com/wricardo/mall-parking/wayfinder/logger"
	"github.com/wricardo/mall-parking/wayfinder/transport/mcp"
	"github.com/wricardo/mall-parking/wayfinder/transport/websocket"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/config"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/service"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/session"
	"github.com/wricardo/mall-parking/wayfinder/wayfinding/speech"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Mall Parking Wayfinder"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	layoutsDir   = flag.String("layouts-dir", "layouts", "Directory containing basement layouts (LAYOUTS_DIR)")
	sessionsDir  = flag.String("sessions-dir", "sessions", "Directory for session files when -store=file (SESSIONS_DIR)")
	store        = flag.String("store", "file", "Session store: file or sqlite (SESSION_STORE)")
	sqlitePath   = flag.String("sqlite-path", "sessions.db", "SQLite database path when -store=sqlite (SQLITE_PATH)")
	speechURL    = flag.String("speech-url", "", "Speech synthesis endpoint; empty disables speech (SPEECH_URL)")
	locale       = flag.String("locale", service.DefaultLocale, "Default narration locale (DEFAULT_LOCALE)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// envFlags maps flags to the environment variables that fill them when the
// flag is not given on the command line
var envFlags = map[string]string{
	"layouts-dir":  "LAYOUTS_DIR",
	"sessions-dir": "SESSIONS_DIR",
	"store":        "SESSION_STORE",
	"sqlite-path":  "SQLITE_PATH",
	"speech-url":   "SPEECH_URL",
	"locale":       "DEFAULT_LOCALE",
	"ngrok-domain": "NGROK_DOMAIN",
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio, mcp   Aliases for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -store sqlite            # Keep sessions in sessions.db\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -locale vi stdio-mcp     # Run MCP stdio server, Vietnamese narration\n", os.Args[0])
	}
}

// applyEnv fills flags of fs that were not set on the command line from the environment
func applyEnv(fs *flag.FlagSet) {
	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	for name, key := range envFlags {
		if fs.Lookup(name) == nil || explicit[name] {
			continue
		}
		if v := os.Getenv(key); v != "" {
			fs.Set(name, v)
		}
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists
	envErr := godotenv.Load()

	flag.Parse()
	applyEnv(flag.CommandLine)

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log := logger.Configure(level)

	if envErr == nil {
		log.Info().Msg("Loaded environment variables from .env file")
	} else if !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("Error loading .env file")
	}

	mode := "server"
	if args := flag.Args(); len(args) > 0 {
		mode = args[0]
	}

	log.Info().Msgf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	navService, err := initializeServices(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(ctx, navService, log)

	case "server", "http":
		runHTTPServer(ctx, navService, log)

	default:
		log.Fatal().Msgf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// mcpHandler serves single JSON-RPC MCP messages over HTTP POST
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// newRouter mounts the REST API at the root and the MCP proxy at /mcp
func newRouter(apiServer http.Handler, mcpClient *mcp.Client) *http.ServeMux {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, navService service.NavigationService, log *zerolog.Logger) {
	hub := websocket.NewHub()
	go hub.Run(ctx)

	apiServer := api.NewServer(navService, hub).WithVersion(Version)

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mcpClient := mcp.NewClient(fmt.Sprintf("http://%s", addr))
	mainRouter := newRouter(apiServer, mcpClient)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Info().Msgf("HTTP server listening on %s", addr)
		log.Info().Msgf("REST API: http://%s/api", addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	if ngrokRequested() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, mainRouter, log)
		}()
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info().Msg("Server stopped")
}

// ngrokRequested checks the -ngrok flag and the NGROK_ENABLED environment variable
func ngrokRequested() bool {
	if *ngrokEnabled {
		return true
	}
	envEnabled := os.Getenv("NGROK_ENABLED")
	return envEnabled == "true" || envEnabled == "1"
}

// ngrokAuthToken returns the token from the flag or either environment spelling
func ngrokAuthToken() string {
	if *ngrokAuth != "" {
		return *ngrokAuth
	}
	if token := os.Getenv("NGROK_AUTHTOKEN"); token != "" {
		return token
	}
	return os.Getenv("NGROK_AUTH_TOKEN")
}

// runNgrok serves handler through an ngrok tunnel until ctx is done
func runNgrok(ctx context.Context, handler http.Handler, log *zerolog.Logger) {
	authToken := ngrokAuthToken()
	if authToken == "" {
		log.Warn().Msg("Ngrok enabled but no auth token provided (use -ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Info().Msg("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if *ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(*ngrokDomain))
		log.Info().Msgf("Using custom ngrok domain: %s", *ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.Error().Err(err).Msg("Failed to start ngrok tunnel")
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close ngrok tunnel")
		}
	}()

	ngrokURL := tun.URL()
	log.Info().Msgf("Ngrok tunnel established: %s", ngrokURL)
	log.Info().Msgf("  REST API (ngrok): %s/api", ngrokURL)
	log.Info().Msgf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Info().Msgf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.Error().Err(err).Msg("Ngrok server error")
	}
	log.Info().Msg("Ngrok tunnel closed")
}

// openPersistence builds the session store selected by -store
func openPersistence() (session.SessionPersistence, error) {
	switch *store {
	case "file", "":
		return session.NewFilePersistence(*sessionsDir)
	case "sqlite":
		return session.NewSQLitePersistence(*sqlitePath)
	default:
		return nil, fmt.Errorf("unknown session store %q, use file or sqlite", *store)
	}
}

// initializeServices wires the layout and session managers, the speech output
// and the navigation service. Background routines stop when ctx is done.
func initializeServices(ctx context.Context, log *zerolog.Logger) (service.NavigationService, error) {
	layoutManager, err := config.NewManager(*layoutsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create layout manager: %w", err)
	}

	persistence, err := openPersistence()
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	sessionManager := session.NewManagerWithPersistence(persistence)
	if err := sessionManager.LoadPersistedSessions(); err != nil {
		log.Warn().Err(err).Msg("Failed to load persisted sessions")
	}

	catalog, err := speech.NewCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load speech catalogs: %w", err)
	}

	opts := []service.Option{
		service.WithRenderer(catalog),
		service.WithDefaultLocale(*locale),
		service.WithLogger(log),
	}
	if *speechURL != "" {
		opts = append(opts, service.WithSpeaker(speech.NewClient(*speechURL).WithLogger(log)))
		log.Info().Msgf("Speech output enabled: %s", *speechURL)
	}

	navService := service.NewNavigationService(sessionManager, layoutManager, opts...)

	go sessionCleanupRoutine(ctx, sessionManager, log)
	go persistenceSyncRoutine(ctx, sessionManager, persistence, log)

	return navService, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, log *zerolog.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(24 * time.Hour); removed > 0 {
				log.Info().Msgf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// persistenceSyncRoutine drops sessions from memory once they disappear from
// the store, so deleting a session file ends that session. On shutdown it
// flushes every session and closes the store.
func persistenceSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, log *zerolog.Logger) {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := manager.SaveAllSessions(); err != nil {
				log.Error().Err(err).Msg("Failed to save sessions on shutdown")
			}
			if closer, ok := persistence.(io.Closer); ok {
				closer.Close()
			}
			return
		case <-ticker.C:
			pruneOrphans(manager, persistence, log)
		}
	}
}

// pruneOrphans removes in-memory sessions whose stored copy is gone
func pruneOrphans(manager *session.Manager, persistence session.SessionPersistence, log *zerolog.Logger) int {
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.Debug().Msgf("[SYNC] pruned session=%s from memory (no longer stored)", s.ID)
		}
	}

	if pruned > 0 {
		log.Info().Msgf("[SYNC] pruned %d orphaned sessions from memory", pruned)
	}
	return pruned
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API server already listening on -host/-port; otherwise it
// starts an internal HTTP API on a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, navService service.NavigationService, log *zerolog.Logger) {
	externalURL := fmt.Sprintf("http://%s:%d", *host, *port)
	baseURL := externalURL

	log.Info().Msgf("Checking for external API server at %s...", externalURL)

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Info().Msgf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Info().Msg("No external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to get available port")
		}
		internalAddr := listener.Addr().String()

		hub := websocket.NewHub()
		go hub.Run(ctx)

		httpServer := &http.Server{
			Handler: api.NewServer(navService, hub).WithVersion(Version),
		}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("Internal HTTP server error")
			}
		}()
		go func() {
			<-ctx.Done()
			httpServer.Close()
		}()

		baseURL = fmt.Sprintf("http://%s", internalAddr)
		log.Info().Msgf("Internal HTTP server on %s for MCP stdio", internalAddr)
	}

	mcpClient := mcp.NewClient(baseURL)

	log.Info().Msg("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Fatal().Err(err).Msg("MCP stdio server error")
	}
}
