// Package web provides the proctor dashboard server: the REST API for
// session control and the live websocket feed of participant state.
package web

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/jaehyun-p/overwatch/internal/log"
	"github.com/jaehyun-p/overwatch/pkg/hub"
	"github.com/jaehyun-p/overwatch/pkg/presence"
	"github.com/jaehyun-p/overwatch/pkg/session"
)

// FeedSnapshot is one full-state frame on the dashboard feed. Every
// broadcast carries the whole roster, so clients need no delta handling.
type FeedSnapshot struct {
	Timestamp     int64             `json:"timestamp"`
	SessionActive bool              `json:"session_active"`
	Stats         session.Stats     `json:"stats"`
	Participants  []presence.Record `json:"participants"`
}

// Server is the dashboard web server.
type Server struct {
	app  *fiber.App
	port string

	store        *presence.Store
	agg          *session.Aggregator
	participants *presence.Server

	// Feed hub for websocket broadcast (thread-safe!)
	feedHub *hub.Hub

	unsubscribe func()
}

// NewServer creates the dashboard server over the given presence store and
// session aggregator. The participant websocket endpoint is registered on
// the same app.
func NewServer(port string, store *presence.Store, agg *session.Aggregator) *Server {
	s := &Server{
		port:         port,
		store:        store,
		agg:          agg,
		participants: presence.NewServer(store),
		feedHub:      hub.New("feed"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Overwatch Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// Static files
	app.Static("/", "./web")

	// API routes
	api := app.Group("/api")
	api.Get("/participants", s.handleParticipants)
	api.Get("/stats", s.handleStats)
	api.Get("/session", s.handleSessionStatus)
	api.Post("/session/start", s.handleSessionStart)
	api.Post("/session/stop", s.handleSessionStop)
	api.Get("/session/report", s.handleSessionReport)
	api.Post("/reset", s.handleReset)
	api.Post("/thresholds", s.handleThresholds)

	// Participant websocket endpoint
	s.participants.RegisterRoutes(app)

	// Dashboard feed
	app.Get("/ws/feed", websocket.New(s.handleFeedWS))

	s.app = app
	return s
}

// Start starts the web server. Every store change is pushed to the feed
// hub; the subscription delivers the current snapshot immediately.
func (s *Server) Start() error {
	go s.feedHub.Run()

	s.unsubscribe = s.store.SubscribeAll(func(records []presence.Record) {
		s.feedHub.BroadcastJSON(s.snapshotOf(records))
	})

	log.Info("dashboard listening", "addr", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	return s.app.Shutdown()
}

// snapshotOf builds a feed frame from a record list.
func (s *Server) snapshotOf(records []presence.Record) FeedSnapshot {
	return FeedSnapshot{
		Timestamp:     time.Now().UnixMilli(),
		SessionActive: s.agg.Active(),
		Stats:         session.StatsOf(records),
		Participants:  records,
	}
}

// handleFeedWS serves one dashboard feed connection: current state first,
// then every change via the hub.
func (s *Server) handleFeedWS(c *websocket.Conn) {
	if data, err := json.Marshal(s.snapshotOf(s.store.Snapshot())); err == nil {
		c.WriteMessage(websocket.TextMessage, data)
	}
	hub.NewClient(s.feedHub, c).Run()
}
