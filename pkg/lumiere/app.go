package lumiere

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-lumiere/internal/httpc"
	"github.com/teslashibe/go-lumiere/pkg/inference"
	"github.com/teslashibe/go-lumiere/pkg/protocol"
	"github.com/teslashibe/go-lumiere/pkg/vision"
	"github.com/teslashibe/go-lumiere/pkg/wearable"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// App is the lumiere server: the wearable hub plus one Agent per session.
type App struct {
	config    Config
	logger    *slog.Logger
	provider  inference.Provider
	detector  vision.Detector
	personas  *PersonaGenerator
	responder *Responder

	hub *wearable.Hub
	web *fiber.App

	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewApp validates cfg and builds the production clients.
func NewApp(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []inference.Option{
		inference.WithAPIKey(cfg.OpenAIKey),
		inference.WithModel(cfg.OpenAIModel),
		inference.WithHTTPClient(httpc.Client),
		inference.WithLogger(logger),
	}
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, inference.WithBaseURL(cfg.OpenAIBaseURL))
	}
	provider, err := inference.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("create inference client: %w", err)
	}

	detector, err := vision.NewWorkflow(cfg.WorkflowURL, cfg.WorkflowKey,
		vision.WithHTTPClient(httpc.Client),
		vision.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create vision workflow: %w", err)
	}

	return newApp(cfg, provider, detector, NewLanguageDetector(), logger), nil
}

// newApp assembles an App from its collaborators.
func newApp(cfg Config, provider inference.Provider, detector vision.Detector, language LanguageDetector, logger *slog.Logger) *App {
	a := &App{
		config:    cfg,
		logger:    logger.With("component", "lumiere.app"),
		provider:  provider,
		detector:  detector,
		personas:  NewPersonaGenerator(provider, cfg.OpenAIModel, logger),
		responder: NewResponder(provider, cfg.OpenAIModel, language, logger),
		agents:    make(map[string]*Agent),
	}

	a.hub = wearable.NewHub(
		wearable.WithAPIKey(cfg.PlatformAPIKey),
		wearable.WithPackageName(cfg.PackageName),
		wearable.WithPhotoTimeout(cfg.PhotoTimeout),
		wearable.WithLogger(logger),
	)
	a.hub.OnSession(a.newSession)
	a.hub.OnObjects(a.objects)

	a.web = fiber.New(fiber.Config{
		AppName:               "lumiere",
		DisableStartupMessage: true,
	})
	a.web.Use(recover.New())
	if cfg.Debug {
		a.web.Use(fiberlogger.New())
	}

	a.hub.RegisterRoutes(a.web)
	a.hub.RegisterAPIRoutes(a.web.Group("/api"))

	a.web.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"version":  Version,
			"sessions": a.hub.SessionCount(),
		})
	})

	return a
}

// Handler returns the HTTP application.
func (a *App) Handler() *fiber.App {
	return a.web
}

// Hub returns the wearable session hub.
func (a *App) Hub() *wearable.Hub {
	return a.hub
}

// Agent returns the agent of a connected session.
func (a *App) Agent(sessionID string) *Agent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.agents[sessionID]
}

// Run serves until ctx is done, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.config.Port)
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server",
			"addr", addr,
			"websocket", fmt.Sprintf("ws://localhost:%d/ws/session/:id", a.config.Port),
			"wake_word", a.config.WakeWord,
			"voices", a.config.Voices.Len(),
		)
		errCh <- a.web.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	a.closeAgents()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.web.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return a.provider.Close()
}

func (a *App) newSession(s *wearable.Session) wearable.Listener {
	agent := NewAgent(s, a.detector, a.personas, a.responder,
		WithWakeWord(a.config.WakeWord),
		WithVoices(a.config.Voices),
		WithAgentLogger(a.logger.With("session_id", s.ID)),
	)

	a.mu.Lock()
	if previous := a.agents[s.ID]; previous != nil {
		previous.Close()
	}
	a.agents[s.ID] = agent
	a.mu.Unlock()

	return &sessionListener{app: a, id: s.ID, agent: agent}
}

func (a *App) objects(sessionID string) (any, bool) {
	agent := a.Agent(sessionID)
	if agent == nil {
		return nil, false
	}
	return agent.Registry().Snapshot(), true
}

func (a *App) removeAgent(id string, agent *Agent) {
	agent.Close()
	a.mu.Lock()
	if a.agents[id] == agent {
		delete(a.agents, id)
	}
	a.mu.Unlock()
}

func (a *App) closeAgents() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, agent := range a.agents {
		agent.Close()
		delete(a.agents, id)
	}
}

// sessionListener feeds hub events to a session's agent.
type sessionListener struct {
	app   *App
	id    string
	agent *Agent
}

func (l *sessionListener) OnTranscription(d *protocol.TranscriptionData) {
	l.agent.HandleTranscription(d.Text, d.IsFinal)
}

func (l *sessionListener) OnButtonPress(d *protocol.ButtonPressData) {
	l.agent.HandleButton(d.PressType)
}

func (l *sessionListener) OnClose() {
	l.app.removeAgent(l.id, l.agent)
}
