package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ComplianceCounts handles GET /compliance/counts?now=.
func (h *Handler) ComplianceCounts(c *gin.Context) {
	now, ok := h.nowQuery(c)
	if !ok {
		return
	}

	counts, err := h.svc.CountByBand(c.Request.Context(), now)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// UniqueInstruments handles GET /instruments/unique.
func (h *Handler) UniqueInstruments(c *gin.Context) {
	rows, err := h.svc.UniqueInstrumentList(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]summaryResponse, len(rows))
	for i := range rows {
		out[i] = newSummaryResponse(&rows[i])
	}
	c.JSON(http.StatusOK, out)
}

// History handles GET /history?from=&to=. Both bounds are optional UTC
// calendar days matched against the day each entry was logged.
func (h *Handler) History(c *gin.Context) {
	from, ok := dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := dateQuery(c, "to")
	if !ok {
		return
	}

	cycles, err := h.svc.HistoryInRange(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newCycleResponses(cycles))
}
