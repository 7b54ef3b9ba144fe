package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nutrilog/nutrilog/internal/domain/models"
	"github.com/nutrilog/nutrilog/internal/repository/mongodb"
	"github.com/nutrilog/nutrilog/internal/server/middleware"
	"github.com/nutrilog/nutrilog/internal/service/pipeline"
)

// LogHandler serves the logging and summary routes.
type LogHandler struct {
	pipeline pipeline.Processor
	store    mongodb.LogStore
	logger   *zap.Logger
}

// NewLogHandler constructs the HTTP handler adapter. The store may be nil;
// persistence is best-effort and never fails a request.
func NewLogHandler(pipeline pipeline.Processor, store mongodb.LogStore, logger *zap.Logger) *LogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogHandler{pipeline: pipeline, store: store, logger: logger}
}

// LogRaw processes free text and returns the assembled LogEntry as-is.
func (h *LogHandler) LogRaw(c *gin.Context) {
	req, ok := h.bindLogRequest(c)
	if !ok {
		return
	}

	entry := h.process(c, req)
	c.JSON(http.StatusOK, entry)
}

// LogMeal processes free text and returns the meal-shaped view.
func (h *LogHandler) LogMeal(c *gin.Context) {
	req, ok := h.bindLogRequest(c)
	if !ok {
		return
	}

	entry := h.process(c, req)
	c.JSON(http.StatusOK, entry.MealView(req.Input, req.MealType))
}

// LogWorkout processes free text and returns the workout-shaped view.
func (h *LogHandler) LogWorkout(c *gin.Context) {
	req, ok := h.bindLogRequest(c)
	if !ok {
		return
	}

	entry := h.process(c, req)
	c.JSON(http.StatusOK, entry.WorkoutView(req.Input))
}

// SummaryToday returns the caller's aggregates for the current UTC day.
func (h *LogHandler) SummaryToday(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "summary store not configured"})
		return
	}

	userID := middleware.UserID(c)
	summary, err := h.store.SummarizeDay(c.Request.Context(), userID, time.Now().UTC())
	if err != nil {
		h.logger.Error("failed building day summary", zap.String("user", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *LogHandler) bindLogRequest(c *gin.Context) (models.LogRequest, bool) {
	var req models.LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid log payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return req, false
	}
	if strings.TrimSpace(req.Input) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "input must not be empty"})
		return req, false
	}
	return req, true
}

// process runs the pipeline and persists the result. Pipeline and
// persistence both follow the availability-first policy: the response is a
// complete entry even when stages or the store degraded.
func (h *LogHandler) process(c *gin.Context, req models.LogRequest) models.LogEntry {
	result := h.pipeline.ProcessLogInput(c.Request.Context(), req.Input, req.Timestamp)
	if result.Degraded() {
		h.logger.Warn("log request degraded",
			zap.Int("degradations", len(result.Degradations)))
	}

	if h.store != nil {
		stored := models.StoredLogEntry{
			UserID:   middleware.UserID(c),
			RawInput: req.Input,
			Entry:    result.Entry,
		}
		if err := h.store.SaveLogEntry(c.Request.Context(), stored); err != nil {
			h.logger.Warn("failed persisting log entry", zap.Error(err))
		}
	}

	return result.Entry
}
