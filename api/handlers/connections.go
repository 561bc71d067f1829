package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/threefoldtech/cloud-console/internal/audit"
	"github.com/threefoldtech/cloud-console/internal/model"
)

// ConnectionsHandler serves the connection audit records.
type ConnectionsHandler struct {
	repo *audit.ConnectionRepository
}

// NewConnectionsHandler creates a new ConnectionsHandler.
func NewConnectionsHandler(repo *audit.ConnectionRepository) *ConnectionsHandler {
	return &ConnectionsHandler{repo: repo}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// List handles GET /api/connections - lists recent connections.
func (h *ConnectionsHandler) List(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	conns, err := h.repo.List(c.Request.Context(), limit)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list connections: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

// Get handles GET /api/connections/:id - returns one connection record.
func (h *ConnectionsHandler) Get(c *gin.Context) {
	id := c.Param("id")

	conn, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, model.ErrConnectionNotFound) {
			sendError(c, http.StatusNotFound, "CONNECTION_NOT_FOUND", "Connection "+id+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get connection: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, conn)
}

// RegisterRoutes registers the connection audit routes on a router group.
func (h *ConnectionsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/connections", h.List)
	rg.GET("/connections/:id", h.Get)
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}
