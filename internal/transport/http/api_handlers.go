package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/syncwatch-server/internal/proto"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	hub Hub
	log *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub Hub, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub: hub,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse reports liveness with hub counters.
type HealthResponse struct {
	Status  string `json:"status"`
	Rooms   int    `json:"rooms"`
	Clients int    `json:"clients"`
}

// RoomsResponse is the admin room table.
type RoomsResponse struct {
	Rooms []proto.RoomSummary `json:"rooms"`
}

// Health reports whether the hub is still serving.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	rooms, clients, err := h.hub.Stats(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
		return
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok", Rooms: rooms, Clients: clients})
}

// Rooms lists every room, public and private.
// GET /api/admin/rooms
func (h *APIHandlers) Rooms(c *gin.Context) {
	rooms, err := h.hub.RoomTable(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("room table query failed")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
		return
	}

	h.log.Debug().Str("admin", c.GetString(ContextKeyAdmin)).Int("rooms", len(rooms)).Msg("admin listed rooms")
	c.JSON(http.StatusOK, RoomsResponse{Rooms: rooms})
}
