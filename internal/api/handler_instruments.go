package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"calibration-backend/internal/calibration"
	"calibration-backend/internal/model"
)

// CreateInstrument handles POST /instruments.
func (h *Handler) CreateInstrument(c *gin.Context) {
	var in calibration.NewInstrument
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	inst, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newInstrumentResponse(inst).withBand(inst, h.svc.Today()))
}

// ListInstruments handles GET /instruments?status=all|active|obsolete&now=.
func (h *Handler) ListInstruments(c *gin.Context) {
	var status *model.InstrumentStatus
	switch strings.ToLower(c.DefaultQuery("status", "all")) {
	case "all":
	case "active":
		s := model.InstrumentStatusInUse
		status = &s
	case "obsolete":
		s := model.InstrumentStatusObsolete
		status = &s
	default:
		badRequest(c, "status must be one of all, active, obsolete", "status")
		return
	}
	now, ok := h.nowQuery(c)
	if !ok {
		return
	}

	insts, err := h.svc.List(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]instrumentResponse, len(insts))
	for i := range insts {
		out[i] = newInstrumentResponse(&insts[i]).withBand(&insts[i], now)
	}
	c.JSON(http.StatusOK, out)
}

// GetInstrument handles GET /instruments/{id}.
func (h *Handler) GetInstrument(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	now, ok := h.nowQuery(c)
	if !ok {
		return
	}

	inst, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newInstrumentResponse(inst).withBand(inst, now))
}

// UpdateInstrument handles PATCH /instruments/{id}.
func (h *Handler) UpdateInstrument(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var patch calibration.InstrumentPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	inst, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newInstrumentResponse(inst).withBand(inst, h.svc.Today()))
}

type statusRequest struct {
	InstrumentStatus string `json:"instrument_status"`
}

// SetStatus handles POST /instruments/{id}/status.
func (h *Handler) SetStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	inst, err := h.svc.SetStatus(c.Request.Context(), id, req.InstrumentStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newInstrumentResponse(inst).withBand(inst, h.svc.Today()))
}

// DeleteInstrument handles DELETE /instruments/{number}.
func (h *Handler) DeleteInstrument(c *gin.Context) {
	number := c.Param("number")
	purged, err := h.svc.Delete(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"instrument_number": strings.TrimSpace(number),
		"history_purged":    purged,
	})
}

// CompleteCycle handles POST /instruments/{id}/complete.
func (h *Handler) CompleteCycle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var in calibration.CompletionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	inst, entry, err := h.svc.CompleteCycle(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"instrument":    newInstrumentResponse(inst).withBand(inst, h.svc.Today()),
		"history_entry": newCycleResponse(entry),
	})
}

// CloseCycle handles POST /instruments/{id}/close.
func (h *Handler) CloseCycle(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	inst, err := h.svc.CloseCycle(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newInstrumentResponse(inst).withBand(inst, h.svc.Today()))
}

// InstrumentHistory handles GET /instruments/{id}/history.
func (h *Handler) InstrumentHistory(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	cycles, err := h.svc.InstrumentHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCycleResponses(cycles))
}
