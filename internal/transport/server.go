package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"liveclass/internal/handlers"
	"liveclass/internal/middleware"
	"liveclass/internal/store"

	"github.com/gorilla/websocket"
)

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // Send pings at 90% of pong deadline

	// idleLimiterThreshold: per-user message limiters unused this long are dropped
	idleLimiterThreshold = 1 * time.Hour
)

type Options struct {
	// AllowedOrigins lists browser origins allowed to connect; empty or "*" allows any
	AllowedOrigins []string
	Limits         middleware.RateLimit
	AuthTimeout    time.Duration
}

// Server hosts a store over websocket connections
type Server struct {
	router        *handlers.MessageRouter
	authenticator *Authenticator
	ipLimiter     *middleware.IPRateLimit
	msgLimiter    *middleware.KeyedLimiter
	upgrader      websocket.Upgrader
	opts          Options
	log           *slog.Logger

	conns map[*connection]struct{}
	mu    sync.Mutex
}

func NewServer(s store.Store, opts Options, log *slog.Logger) *Server {
	srv := &Server{
		router:        handlers.NewMessageRouter(s, opts.Limits, log),
		authenticator: NewAuthenticator(),
		ipLimiter:     middleware.NewIPRateLimit(),
		msgLimiter:    middleware.NewKeyedLimiter(opts.Limits.MessagesPerSecond, opts.Limits.BurstSize),
		opts:          opts,
		log:           log,
		conns:         make(map[*connection]struct{}),
	}
	srv.upgrader = websocket.Upgrader{CheckOrigin: srv.checkOrigin}
	return srv
}

// Handler: /ws for store connections, /healthz for probes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// checkOrigin: CORS. Non-browser clients send no origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.opts.AllowedOrigins, "*") || slices.Contains(s.opts.AllowedOrigins, origin)
}

// GetClientIP: extracts the client IP from the request.
// Uses RemoteAddr only, forwarded headers can be spoofed.
func GetClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// HandleWebSocket: upgrades HTTP to WebSocket, authenticates and serves requests
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)
	if !s.ipLimiter.Allow(clientIP) {
		s.log.Warn("Rate limit exceeded", "ip", clientIP)
		http.Error(w, "Too many connections", http.StatusTooManyRequests)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("Failed to upgrade connection", "ip", clientIP, "error", err)
		return
	}
	conn := newConnection(ws)
	s.track(conn)
	defer s.untrack(conn)

	userID, err := s.authenticator.Authenticate(ws, s.opts.AuthTimeout)
	if err != nil {
		s.log.Warn("Authentication failed", "ip", clientIP, "error", err)
		return
	}
	if err := conn.Send(handlers.AuthFrame{Type: handlers.FrameAuthenticated, UserID: userID}); err != nil {
		s.log.Warn("Failed to send auth response", "user", userID, "error", err)
		return
	}
	s.log.Info("Client connected", "user", userID, "ip", clientIP)

	peer := handlers.NewPeer(r.Context(), userID, conn)
	defer peer.Close()

	s.run(r.Context(), ws, conn, peer)
	s.log.Info("Client disconnected", "user", userID)
}

// run: message loop for one connection
func (s *Server) run(ctx context.Context, ws *websocket.Conn, conn *connection, peer *handlers.Peer) {
	// Set up pong handler to extend deadline when pong received
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.ping(); err != nil {
					return // Connection dead
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("Connection read failed", "user", peer.UserID, "error", err)
			}
			return
		}

		if !s.opts.Limits.ValidateMessageSize(len(msg)) {
			s.log.Warn("Message too large", "user", peer.UserID, "bytes", len(msg))
			s.reject(peer, msg, fmt.Errorf("%w: message of %d bytes exceeds limit", handlers.ErrInvalidArgument, len(msg)))
			continue
		}

		if !s.msgLimiter.Allow(peer.UserID) {
			s.log.Warn("Message rate limit exceeded", "user", peer.UserID)
			s.reject(peer, msg, fmt.Errorf("%w: rate limit exceeded", store.ErrUnavailable))
			continue
		}

		if err := s.router.Route(ctx, peer, msg); err != nil {
			s.log.Warn("Error handling message", "user", peer.UserID, "error", err)
			continue
		}
	}
}

// reject answers a dropped request so the client does not wait for it
func (s *Server) reject(peer *handlers.Peer, msg []byte, reason error) {
	var req struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(msg, &req); err != nil || req.ID == 0 {
		return
	}
	_ = peer.Send(handlers.Response{
		Type:    handlers.FrameResponse,
		ID:      req.ID,
		Error:   handlers.ErrorCode(reason),
		Message: reason.Error(),
	})
}

// RunCleanup: periodically drops idle rate limiters until ctx is done
func (s *Server) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ips := s.ipLimiter.Cleanup()
			users := s.msgLimiter.Cleanup(idleLimiterThreshold)
			if ips > 0 || users > 0 {
				s.log.Debug("Dropped idle rate limiters", "ips", ips, "users", users)
			}
		}
	}
}

// CloseConnections: closes every open connection; hijacked connections outlive http.Server.Shutdown
func (s *Server) CloseConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) track(conn *connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[conn] = struct{}{}
}

func (s *Server) untrack(conn *connection) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	_ = conn.Close()
}
