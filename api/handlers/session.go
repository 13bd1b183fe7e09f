// Package handlers provides HTTP API request handlers.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/collab-editor/backend/internal/model"
	"github.com/collab-editor/backend/internal/repository"
	"github.com/collab-editor/backend/internal/session"
)

// SessionHandler handles HTTP requests for session management.
type SessionHandler struct {
	sessionManager *session.Manager
	fileRepo       *repository.FileRepository
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionManager *session.Manager, fileRepo *repository.FileRepository) *SessionHandler {
	return &SessionHandler{
		sessionManager: sessionManager,
		fileRepo:       fileRepo,
	}
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"ownerId"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Status      string  `json:"status"`
	ScheduledAt *string `json:"scheduledAt,omitempty"`
	StartedAt   *string `json:"startedAt,omitempty"`
	EndedAt     *string `json:"endedAt,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
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

// toSessionResponse converts a model.Session to SessionResponse.
func toSessionResponse(s *model.Session) *SessionResponse {
	return &SessionResponse{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Title:       s.Title,
		Description: s.Description,
		Status:      string(s.Status),
		ScheduledAt: formatTimePtr(s.ScheduledAt),
		StartedAt:   formatTimePtr(s.StartedAt),
		EndedAt:     formatTimePtr(s.EndedAt),
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   s.UpdatedAt.Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(time.RFC3339)
	return &formatted
}

// getUserID extracts the user ID from the request context.
// In a real implementation, this would come from authentication middleware.
func getUserID(c *gin.Context) string {
	// Try to get from context (set by auth middleware)
	if userID, exists := c.Get("userID"); exists {
		if id, ok := userID.(string); ok {
			return id
		}
	}
	// Default user for development/testing
	return "default-user"
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

// Create handles POST /api/sessions - creates a new session.
func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}
	req.OwnerID = getUserID(c)

	sess, err := h.sessionManager.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrTitleRequired) {
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, toSessionResponse(sess))
}

// List handles GET /api/sessions - lists all sessions for the user.
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.sessionManager.List(c.Request.Context(), getUserID(c))
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list sessions: "+err.Error())
		return
	}

	response := make([]*SessionResponse, len(sessions))
	for i, sess := range sessions {
		response[i] = toSessionResponse(sess)
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/sessions/:id - gets a specific session.
func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := h.fetchSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Delete handles DELETE /api/sessions/:id - deletes a session along
// with its files, snapshots and comments.
func (h *SessionHandler) Delete(c *gin.Context) {
	sess, ok := h.fetchSession(c)
	if !ok {
		return
	}

	if err := h.sessionManager.Delete(c.Request.Context(), sess.ID); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session "+sess.ID+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete session: "+err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// Start handles POST /api/sessions/:id/start - moves a session to live.
func (h *SessionHandler) Start(c *gin.Context) {
	h.applyTransition(c, h.sessionManager.Start)
}

// Finish handles POST /api/sessions/:id/finish - finishes a live session.
func (h *SessionHandler) Finish(c *gin.Context) {
	h.applyTransition(c, h.sessionManager.Finish)
}

// Cancel handles POST /api/sessions/:id/cancel - cancels a session.
func (h *SessionHandler) Cancel(c *gin.Context) {
	h.applyTransition(c, h.sessionManager.Cancel)
}

// SaveFiles handles PUT /api/sessions/:id/files - replaces the live file set.
func (h *SessionHandler) SaveFiles(c *gin.Context) {
	sess, ok := h.fetchSession(c)
	if !ok {
		return
	}

	var files model.FileSet
	if err := c.ShouldBindJSON(&files); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid file set: "+err.Error())
		return
	}

	if err := h.fileRepo.SaveFileSet(c.Request.Context(), sess.ID, files); err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save files: "+err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// GetFiles handles GET /api/sessions/:id/files - returns the live file set.
func (h *SessionHandler) GetFiles(c *gin.Context) {
	sess, ok := h.fetchSession(c)
	if !ok {
		return
	}

	files, err := h.fileRepo.GetLatestFileSet(c.Request.Context(), sess.ID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load files: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, files)
}

// fetchSession loads the session from the :id param, writing the error
// response itself when the session is missing.
func (h *SessionHandler) fetchSession(c *gin.Context) (*model.Session, bool) {
	sessionID := c.Param("id")
	if sessionID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Session ID is required")
		return nil, false
	}

	sess, err := h.sessionManager.Get(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session "+sessionID+" not found")
			return nil, false
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get session: "+err.Error())
		return nil, false
	}

	return sess, true
}

func (h *SessionHandler) applyTransition(c *gin.Context, apply func(ctx context.Context, id string) (*model.Session, error)) {
	sess, ok := h.fetchSession(c)
	if !ok {
		return
	}

	updated, err := apply(c.Request.Context(), sess.ID)
	if err != nil {
		if errors.Is(err, model.ErrInvalidTransition) {
			sendError(c, http.StatusConflict, "INVALID_STATE", err.Error())
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update session: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(updated))
}

// RegisterRoutes registers the session handler routes on a Gin router group.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("", h.List)
		sessions.GET("/:id", h.Get)
		sessions.DELETE("/:id", h.Delete)
		sessions.POST("/:id/start", h.Start)
		sessions.POST("/:id/finish", h.Finish)
		sessions.POST("/:id/cancel", h.Cancel)
		sessions.PUT("/:id/files", h.SaveFiles)
		sessions.GET("/:id/files", h.GetFiles)
	}
}
