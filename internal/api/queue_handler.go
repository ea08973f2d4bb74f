package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/federicoviola/AppTwitter/internal/dispatch"
	"github.com/federicoviola/AppTwitter/internal/models"
	"github.com/federicoviola/AppTwitter/internal/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// QueueHandler exposes the review queue over HTTP. It is a thin wrapper
// over the scheduler; all state rules live there.
type QueueHandler struct {
	scheduler  *scheduler.Scheduler
	dispatcher *dispatch.Dispatcher
	log        zerolog.Logger
}

// NewQueueHandler creates a new QueueHandler
func NewQueueHandler(sched *scheduler.Scheduler, dispatcher *dispatch.Dispatcher, log zerolog.Logger) *QueueHandler {
	return &QueueHandler{
		scheduler:  sched,
		dispatcher: dispatcher,
		log:        log.With().Str("handler", "queue").Logger(),
	}
}

// ListQueue handles GET /v1/queue
func (h *QueueHandler) ListQueue(c *gin.Context) {
	ctx := c.Request.Context()

	var status models.QueueStatus
	if raw := c.Query("status"); raw != "" {
		status = models.QueueStatus(raw)
		valid := false
		for _, s := range models.AllStatuses {
			if s == status {
				valid = true
				break
			}
		}
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status " + raw})
			return
		}
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	items, err := h.scheduler.List(ctx, status, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list queue")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list queue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count": len(items),
		"items": items,
	})
}

// Approve handles POST /v1/queue/:id/approve
func (h *QueueHandler) Approve(c *gin.Context) {
	ctx := c.Request.Context()
	queueID := c.Param("id")

	ok, err := h.scheduler.Approve(ctx, queueID)
	if err != nil {
		h.log.Error().Err(err).Str("queue_id", queueID).Msg("Failed to approve entry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve entry"})
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "entry not found or not in drafted state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": queueID, "status": models.StatusApproved})
}

// Skip handles POST /v1/queue/:id/skip
func (h *QueueHandler) Skip(c *gin.Context) {
	ctx := c.Request.Context()
	queueID := c.Param("id")

	ok, err := h.scheduler.Skip(ctx, queueID)
	if err != nil {
		h.log.Error().Err(err).Str("queue_id", queueID).Msg("Failed to skip entry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to skip entry"})
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "entry not found or not in drafted/approved state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": queueID, "status": models.StatusSkipped})
}

// Reschedule handles POST /v1/queue/:id/reschedule
func (h *QueueHandler) Reschedule(c *gin.Context) {
	ctx := c.Request.Context()
	queueID := c.Param("id")

	var req struct {
		ScheduledAt string `json:"scheduled_at"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at is required"})
		return
	}

	newTime, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "scheduled_at must be RFC3339"})
		return
	}

	ok, err := h.scheduler.Reschedule(ctx, queueID, newTime)
	if err != nil {
		h.log.Error().Err(err).Str("queue_id", queueID).Msg("Failed to reschedule entry")
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "entry not found or not in scheduled state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": queueID, "scheduled_at": newTime.Format(time.RFC3339)})
}

// RunSchedule handles POST /v1/schedule/run
func (h *QueueHandler) RunSchedule(c *gin.Context) {
	ctx := c.Request.Context()

	scheduled, err := h.scheduler.ScheduleApproved(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Scheduling pass failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scheduling pass failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scheduled": scheduled})
}

// RunDispatch handles POST /v1/dispatch/run
func (h *QueueHandler) RunDispatch(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := h.dispatcher.Run(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Dispatch pass failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dispatch pass failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"posted": summary.Posted,
		"failed": summary.Failed,
	})
}

// Stats handles GET /v1/stats
func (h *QueueHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.scheduler.Stats(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to aggregate stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
