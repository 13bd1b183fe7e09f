package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/collab-editor/backend/internal/model"
	"github.com/collab-editor/backend/internal/repository"
	"github.com/collab-editor/backend/internal/session"
	"github.com/collab-editor/backend/internal/snapshot"
	"github.com/collab-editor/backend/internal/ws"
)

// SnapshotHandler handles HTTP requests for snapshot capture, history
// browsing, restore materialization and comments.
type SnapshotHandler struct {
	sessionManager *session.Manager
	captureService *snapshot.Service
	snapshotRepo   *repository.SnapshotRepository
	commentRepo    *repository.CommentRepository
	fileRepo       *repository.FileRepository
	wsService      *ws.Service
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(
	sessionManager *session.Manager,
	captureService *snapshot.Service,
	snapshotRepo *repository.SnapshotRepository,
	commentRepo *repository.CommentRepository,
	fileRepo *repository.FileRepository,
	wsService *ws.Service,
) *SnapshotHandler {
	return &SnapshotHandler{
		sessionManager: sessionManager,
		captureService: captureService,
		snapshotRepo:   snapshotRepo,
		commentRepo:    commentRepo,
		fileRepo:       fileRepo,
		wsService:      wsService,
	}
}

// CaptureSnapshotRequest represents the request body for capturing a snapshot.
type CaptureSnapshotRequest struct {
	Description string        `json:"description"`
	Files       model.FileSet `json:"files"`
}

// Capture handles POST /api/sessions/:id/snapshots - captures an
// immutable snapshot of the session's file set. When the body carries
// no files, the stored live file set is captured instead. Session peers
// are notified with a snapshot-created broadcast.
func (h *SnapshotHandler) Capture(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Session ID is required")
		return
	}

	if _, err := h.sessionManager.Get(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session "+sessionID+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get session: "+err.Error())
		return
	}

	// An empty body captures the stored live file set
	var req CaptureSnapshotRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
			return
		}
	}

	files := req.Files
	if len(files) == 0 {
		var err error
		files, err = h.fileRepo.GetLatestFileSet(c.Request.Context(), sessionID)
		if err != nil {
			sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load live files: "+err.Error())
			return
		}
	}

	snap, err := h.captureService.Capture(c.Request.Context(), sessionID, getUserID(c), req.Description, files)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to capture snapshot: "+err.Error())
		return
	}

	if err := h.wsService.NotifySnapshotCreated(snap); err != nil {
		// Broadcast is best-effort; the snapshot itself is persisted
		log.Printf("Failed to broadcast snapshot-created for %s: %v", snap.ID, err)
	}

	c.JSON(http.StatusCreated, snap)
}

// List handles GET /api/sessions/:id/snapshots - lists a session's
// snapshots in creation order.
func (h *SnapshotHandler) List(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Session ID is required")
		return
	}

	snapshots, err := h.snapshotRepo.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list snapshots: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, snapshots)
}

// Get handles GET /api/snapshots/:id - returns one snapshot.
func (h *SnapshotHandler) Get(c *gin.Context) {
	snap, ok := h.fetchSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Files handles GET /api/snapshots/:id/files - materializes the
// snapshot's normalized file set for read-only restore. A snapshot with
// no files after normalization is a reportable failure.
func (h *SnapshotHandler) Files(c *gin.Context) {
	snap, ok := h.fetchSnapshot(c)
	if !ok {
		return
	}

	files, err := snapshot.Materialize(snap)
	if err != nil {
		if errors.Is(err, model.ErrNoFilesInSnapshot) {
			sendError(c, http.StatusUnprocessableEntity, "EMPTY_SNAPSHOT", err.Error())
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to materialize snapshot: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, files)
}

// CreateComment handles POST /api/snapshots/:id/comments - attaches a
// comment to the snapshot.
func (h *SnapshotHandler) CreateComment(c *gin.Context) {
	snap, ok := h.fetchSnapshot(c)
	if !ok {
		return
	}

	var req model.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	comment := &model.Comment{
		ID:         uuid.New().String(),
		SnapshotID: snap.ID,
		AuthorID:   getUserID(c),
		Body:       req.Body,
		CreatedAt:  time.Now(),
	}

	if err := h.commentRepo.Create(c.Request.Context(), comment); err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create comment: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// ListComments handles GET /api/snapshots/:id/comments.
func (h *SnapshotHandler) ListComments(c *gin.Context) {
	snap, ok := h.fetchSnapshot(c)
	if !ok {
		return
	}

	comments, err := h.commentRepo.ListBySnapshot(c.Request.Context(), snap.ID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list comments: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, comments)
}

func (h *SnapshotHandler) fetchSnapshot(c *gin.Context) (*model.Snapshot, bool) {
	snapshotID := c.Param("id")
	if snapshotID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Snapshot ID is required")
		return nil, false
	}

	snap, err := h.snapshotRepo.GetByID(c.Request.Context(), snapshotID)
	if err != nil {
		if errors.Is(err, model.ErrSnapshotNotFound) {
			sendError(c, http.StatusNotFound, "SNAPSHOT_NOT_FOUND", "Snapshot "+snapshotID+" not found")
			return nil, false
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get snapshot: "+err.Error())
		return nil, false
	}

	return snap, true
}

// RegisterRoutes registers the snapshot handler routes on a Gin router group.
func (h *SnapshotHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/sessions/:id/snapshots", h.Capture)
	rg.GET("/sessions/:id/snapshots", h.List)

	snapshots := rg.Group("/snapshots")
	{
		snapshots.GET("/:id", h.Get)
		snapshots.GET("/:id/files", h.Files)
		snapshots.POST("/:id/comments", h.CreateComment)
		snapshots.GET("/:id/comments", h.ListComments)
	}
}
