package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"calibration-backend/internal/calibration"
	"calibration-backend/internal/parse"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc *calibration.Service
	log *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *calibration.Service, log *zap.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log,
	}
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error  string   `json:"error"`
	Kind   string   `json:"kind"`
	Fields []string `json:"fields,omitempty"`
}

func statusOf(kind calibration.Kind) int {
	switch kind {
	case calibration.KindValidation, calibration.KindInvalidFrequency, calibration.KindInvalidDate:
		return http.StatusBadRequest
	case calibration.KindImmutableField:
		return http.StatusUnprocessableEntity
	case calibration.KindNotFound:
		return http.StatusNotFound
	case calibration.KindDuplicate, calibration.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps an engine error onto a status code and JSON body.
// Storage failures are not echoed to the caller.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var e *calibration.Error
	if !errors.As(err, &e) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorResponse{
			Error: "internal server error",
			Kind:  string(calibration.KindInternal),
		})
		return
	}
	c.AbortWithStatusJSON(statusOf(e.Kind), errorResponse{
		Error:  e.Message,
		Kind:   string(e.Kind),
		Fields: e.Fields,
	})
}

func badRequest(c *gin.Context, message string, fields ...string) {
	respondError(c, &calibration.Error{Kind: calibration.KindValidation, Message: message, Fields: fields})
}

// idParam reads the registry id path parameter.
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid registry id", "id")
		return 0, false
	}
	return id, true
}

// dateQuery reads an optional YYYY-MM-DD query parameter.
func dateQuery(c *gin.Context, name string) (time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, true
	}
	d, err := parse.Date(raw)
	if err != nil {
		respondError(c, &calibration.Error{
			Kind:    calibration.KindInvalidDate,
			Message: err.Error(),
			Fields:  []string{name},
		})
		return time.Time{}, false
	}
	return d, true
}

// nowQuery is the classification instant: ?now= or today (UTC).
func (h *Handler) nowQuery(c *gin.Context) (time.Time, bool) {
	now, ok := dateQuery(c, "now")
	if !ok {
		return time.Time{}, false
	}
	if now.IsZero() {
		now = h.svc.Today()
	}
	return now, true
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
