package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jaehyun-p/overwatch/pkg/fusion"
	"github.com/jaehyun-p/overwatch/pkg/session"
)

// handleParticipants returns the current roster ordered by key.
func (s *Server) handleParticipants(c *fiber.Ctx) error {
	return c.JSON(s.store.Snapshot())
}

// handleStats returns the live dashboard counters.
func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(session.StatsOf(s.store.Snapshot()))
}

// handleSessionStatus reports whether a session is running.
func (s *Server) handleSessionStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"active": s.agg.Active()})
}

// handleSessionStart begins a monitoring session. Starting an already
// active session is a no-op and still returns 200.
func (s *Server) handleSessionStart(c *fiber.Ctx) error {
	s.agg.Start()
	return c.JSON(fiber.Map{"active": true})
}

// handleSessionStop ends the session and returns the frozen report.
func (s *Server) handleSessionStop(c *fiber.Ctx) error {
	report := s.agg.Stop()
	return c.JSON(report)
}

// handleSessionReport returns the report from the last stopped session.
func (s *Server) handleSessionReport(c *fiber.Ctx) error {
	report, ok := s.agg.Report()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no stopped session",
		})
	}
	return c.JSON(report)
}

// handleReset resets every participant's monitored fields back to defaults
// while keeping their identity.
func (s *Server) handleReset(c *fiber.Ctx) error {
	s.store.ResetAll(nil)
	return c.JSON(fiber.Map{"reset": s.store.Len()})
}

// handleThresholds pushes new decision thresholds to every connected
// participant. They take effect on each participant's next tick.
func (s *Server) handleThresholds(c *fiber.Ctx) error {
	var t fusion.Thresholds
	if err := c.BodyParser(&t); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "malformed thresholds: " + err.Error(),
		})
	}
	if t.ConfidenceMin < 0 || t.ConfidenceMin > 1 ||
		t.Strictness < 1 || t.Strictness > fusion.WindowSize {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "thresholds out of range",
		})
	}

	s.participants.BroadcastThresholds(t)
	return c.JSON(t)
}
