package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opsintel/backend/internal/session"
)

type SynthesizeResponse struct {
	Started bool               `json:"started"`
	Global  session.GlobalView `json:"global"`
}

// @Summary Start the cross-period synthesis
// @Description Needs at least two analyzed datasets. A refusal is not an error: started is false.
// @Tags global
// @Produce json
// @Success 200 {object} SynthesizeResponse
// @Router /api/global/synthesize [post]
func (h *Handler) Synthesize(c *gin.Context) {
	started := h.Session.Synthesize()
	c.JSON(http.StatusOK, SynthesizeResponse{Started: started, Global: h.Session.Global()})
}

// @Summary Synthesis status and result
// @Tags global
// @Produce json
// @Success 200 {object} session.GlobalView
// @Router /api/global [get]
func (h *Handler) Global(c *gin.Context) {
	c.JSON(http.StatusOK, h.Session.Global())
}

// @Summary List archived results
// @Tags archive
// @Produce json
// @Param dataset_id query string false "filter by dataset id"
// @Param limit query int false "max records (default 50)"
// @Success 200 {array} models.ArchivedAnalysis
// @Failure 501 {object} ErrorResponse
// @Router /api/archive [get]
func (h *Handler) ArchiveList(c *gin.Context) {
	if h.Archive == nil {
		writeError(c, http.StatusNotImplemented, "NOT_CONFIGURED", "Archive is not configured", nil)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	recs, err := h.Archive.ListArchived(c.Request.Context(), c.Query("dataset_id"), limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list archive", err.Error())
		return
	}
	c.JSON(http.StatusOK, recs)
}
