// Package wearable provides the WebSocket endpoint the wearable platform
// connects to, one connection per user session.
package wearable

import (
	"crypto/subtle"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-lumiere/pkg/protocol"
)

// DefaultPhotoTimeout bounds how long RequestPhoto waits for the camera.
const DefaultPhotoTimeout = 30 * time.Second

// HeaderPackageName identifies the app the platform is connecting for.
const HeaderPackageName = "X-Package-Name"

// Listener receives the events of one session. Callbacks run on the
// connection's read loop and must not block.
type Listener interface {
	OnTranscription(data *protocol.TranscriptionData)
	OnButtonPress(data *protocol.ButtonPressData)
	OnClose()
}

// SessionHandler is invoked once per new session and returns the listener
// for its events.
type SessionHandler func(s *Session) Listener

// ObjectLookup returns what the app knows about a session for the API.
type ObjectLookup func(sessionID string) (any, bool)

// Hub manages WebSocket connections from the wearable platform.
type Hub struct {
	apiKey       string
	packageName  string
	photoTimeout time.Duration
	logger       *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	handler  SessionHandler
	lookup   ObjectLookup

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	photosReceived   atomic.Uint64
}

// Option configures a Hub.
type Option func(*Hub)

// WithAPIKey requires clients to present key as a bearer token or an
// api_key query parameter. Empty disables authentication.
func WithAPIKey(key string) Option {
	return func(h *Hub) { h.apiKey = key }
}

// WithPackageName rejects connections announcing a different package.
func WithPackageName(name string) Option {
	return func(h *Hub) { h.packageName = name }
}

// WithPhotoTimeout overrides DefaultPhotoTimeout.
func WithPhotoTimeout(d time.Duration) Option {
	return func(h *Hub) { h.photoTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// NewHub creates a new session hub
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		sessions:     make(map[string]*Session),
		photoTimeout: DefaultPhotoTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.photoTimeout <= 0 {
		h.photoTimeout = DefaultPhotoTimeout
	}
	h.logger = h.logger.With("component", "wearable.hub")
	return h
}

// OnSession sets the factory invoked for every new session
func (h *Hub) OnSession(handler SessionHandler) {
	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()
}

// OnObjects sets the lookup backing GET /api/sessions/:id/objects
func (h *Hub) OnObjects(lookup ObjectLookup) {
	h.mu.Lock()
	h.lookup = lookup
	h.mu.Unlock()
}

// RegisterRoutes registers WebSocket routes on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	}, h.authorize)

	app.Get("/ws/session", websocket.New(h.handleSession))
	app.Get("/ws/session/:id", websocket.New(h.handleSession))
}

// authorize checks the platform credentials.
func (h *Hub) authorize(c *fiber.Ctx) error {
	if h.apiKey != "" {
		token := c.Query("api_key")
		if auth := c.Get(fiber.HeaderAuthorization); auth != "" {
			token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.apiKey)) != 1 {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid api key")
		}
	}
	if pkg := c.Get(HeaderPackageName); pkg != "" && h.packageName != "" && pkg != h.packageName {
		return fiber.NewError(fiber.StatusForbidden, "unknown package "+pkg)
	}
	return c.Next()
}

// handleSession handles a session WebSocket connection
func (h *Hub) handleSession(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = uuid.NewString()
	}

	session := newSession(id, c, h.photoTimeout, h.logger)
	session.onSend = func() { h.messagesSent.Add(1) }

	h.mu.Lock()
	previous := h.sessions[id]
	h.sessions[id] = session
	count := len(h.sessions)
	handler := h.handler
	h.mu.Unlock()

	if previous != nil {
		h.logger.Warn("session replaced by new connection", "session_id", id)
		previous.close()
		previous.conn.Close()
	}
	h.logger.Info("session connected", "session_id", id, "sessions", count)

	var listener Listener = nopListener{}
	if handler != nil {
		if l := handler(session); l != nil {
			listener = l
		}
	}

	defer func() {
		session.close()
		listener.OnClose()

		h.mu.Lock()
		if h.sessions[id] == session {
			delete(h.sessions, id)
		}
		count := len(h.sessions)
		h.mu.Unlock()

		h.logger.Info("session disconnected", "session_id", id, "sessions", count)
	}()

	// Read loop
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("session read ended", "session_id", id, "error", err)
			return
		}

		session.touch()
		h.messagesReceived.Add(1)
		h.handleMessage(session, listener, data)
	}
}

// handleMessage processes an incoming message from the platform
func (h *Hub) handleMessage(s *Session, listener Listener, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.logger.Warn("parse error", "session_id", s.ID, "error", err)
		return
	}

	switch msg.Type {
	case protocol.TypeTranscription:
		t, err := msg.GetTranscriptionData()
		if err != nil {
			h.logger.Warn("bad transcription", "session_id", s.ID, "error", err)
			return
		}
		listener.OnTranscription(t)

	case protocol.TypeButtonPress:
		b, err := msg.GetButtonPressData()
		if err != nil {
			h.logger.Warn("bad button press", "session_id", s.ID, "error", err)
			return
		}
		listener.OnButtonPress(b)

	case protocol.TypePhotoResponse:
		p, err := msg.GetPhotoResponseData()
		if err != nil {
			h.logger.Warn("bad photo response", "session_id", s.ID, "error", err)
			return
		}
		h.photosReceived.Add(1)
		if !s.resolvePhoto(p) {
			h.logger.Debug("photo response without waiter", "session_id", s.ID, "request_id", p.RequestID)
		}

	case protocol.TypePing:
		ping, _ := msg.GetPingData()
		pingID := ""
		if ping != nil {
			pingID = ping.ID
		}
		pong, err := protocol.NewPongMessage(pingID, msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			err = s.send(pong)
		}
		if err != nil {
			h.logger.Warn("pong failed", "session_id", s.ID, "error", err)
		}

	default:
		h.logger.Debug("ignoring message", "session_id", s.ID, "type", msg.Type)
	}
}

// GetSession returns a session by ID
func (h *Hub) GetSession(id string) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id]
}

// SessionCount returns the number of connected sessions
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Stats contains hub statistics
type Stats struct {
	SessionCount     int    `json:"session_count"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	PhotosReceived   uint64 `json:"photos_received"`
}

// GetStats returns hub statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		SessionCount:     h.SessionCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		PhotosReceived:   h.photosReceived.Load(),
	}
}

// SessionInfo contains info about a connected session
type SessionInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// GetSessionInfos returns info about all connected sessions, oldest first
func (h *Hub) GetSessionInfos() []SessionInfo {
	h.mu.RLock()
	infos := make([]SessionInfo, 0, len(h.sessions))
	for _, s := range h.sessions {
		infos = append(infos, SessionInfo{
			ID:        s.ID,
			Connected: s.Connected,
			LastSeen:  s.LastSeen(),
		})
	}
	h.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Connected.Before(infos[j].Connected)
	})
	return infos
}

// RegisterAPIRoutes registers API routes for session inspection
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	sessions := api.Group("/sessions", h.authorize)

	// List connected sessions
	sessions.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"sessions": h.GetSessionInfos(),
			"count":    h.SessionCount(),
		})
	})

	// Get hub stats
	sessions.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})

	// Detected objects of one session
	sessions.Get("/:id/objects", func(c *fiber.Ctx) error {
		id := c.Params("id")

		h.mu.RLock()
		lookup := h.lookup
		h.mu.RUnlock()

		if lookup == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no object registry"})
		}
		objects, ok := lookup(id)
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "session not found"})
		}
		return c.JSON(fiber.Map{
			"session_id": id,
			"objects":    objects,
		})
	})
}

type nopListener struct{}

func (nopListener) OnTranscription(*protocol.TranscriptionData) {}
func (nopListener) OnButtonPress(*protocol.ButtonPressData) {}
func (nopListener) OnClose() {}
