package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/opsintel/backend/internal/models"
	"github.com/opsintel/backend/internal/service"
	"github.com/opsintel/backend/internal/session"
	"github.com/opsintel/backend/internal/storage"
)

// multipartSlack covers boundaries and part headers on top of the file itself.
const multipartSlack = 64 << 10

type SetContentRequest struct {
	Content string `json:"content" validate:"required"`
}

// ActionResponse reports whether the call started an analysis, with the
// session state right after it.
type ActionResponse struct {
	Started  bool             `json:"started"`
	Snapshot session.Snapshot `json:"snapshot"`
}

type PublishResponse struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// @Summary List datasets
// @Description Dataset slots with their status, readiness and the surfaced error
// @Tags datasets
// @Produce json
// @Success 200 {object} session.Snapshot
// @Router /api/datasets [get]
func (h *Handler) DatasetsList(c *gin.Context) {
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

// @Summary Activate a dataset
// @Description Makes the dataset the active view. Starts its analysis when it has content and no result yet.
// @Tags datasets
// @Produce json
// @Param id path string true "dataset id (curr, prev, hist or global)"
// @Success 200 {object} ActionResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/datasets/{id}/activate [post]
func (h *Handler) Activate(c *gin.Context) {
	started, err := h.Session.Activate(c.Param("id"))
	h.respondAction(c, started, err)
}

// @Summary Upload a dataset file
// @Tags datasets
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "dataset id"
// @Param file formData file true ".xlsx, .xls, .csv or .json"
// @Success 200 {object} ActionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 415 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/datasets/{id}/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	if h.MaxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadSize+multipartSlack)
	}
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds upload limit", gin.H{"limit_bytes": h.MaxUploadSize})
			return
		}
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file required", nil)
		return
	}
	if h.MaxUploadSize > 0 && file.Size > h.MaxUploadSize {
		writeError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds upload limit", gin.H{"limit_bytes": h.MaxUploadSize})
		return
	}
	f, err := file.Open()
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read file", err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read file", err.Error())
		return
	}

	started, err := h.Session.Ingest(c.Param("id"), file.Filename, data)
	h.respondAction(c, started, err)
}

// @Summary Paste from the host clipboard
// @Tags datasets
// @Produce json
// @Param id path string true "dataset id"
// @Success 200 {object} ActionResponse
// @Failure 422 {object} ErrorResponse
// @Router /api/datasets/{id}/paste [post]
func (h *Handler) Paste(c *gin.Context) {
	started, err := h.Session.PasteClipboard(c.Param("id"))
	h.respondAction(c, started, err)
}

// @Summary Set dataset content
// @Description Stores raw text (JSON or CSV) pasted by the client
// @Tags datasets
// @Accept json
// @Produce json
// @Param id path string true "dataset id"
// @Param payload body SetContentRequest true "content"
// @Success 200 {object} ActionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/datasets/{id}/content [put]
func (h *Handler) SetContent(c *gin.Context) {
	var req SetContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	started, err := h.Session.SetContent(c.Param("id"), req.Content)
	h.respondAction(c, started, err)
}

// @Summary Load the demo ticket log
// @Tags datasets
// @Produce json
// @Param id path string true "dataset id"
// @Success 200 {object} ActionResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/datasets/{id}/sample [post]
func (h *Handler) LoadSample(c *gin.Context) {
	started, err := h.Session.LoadSample(c.Param("id"))
	h.respondAction(c, started, err)
}

// @Summary Analysis status and result
// @Tags datasets
// @Produce json
// @Param id path string true "dataset id"
// @Success 200 {object} session.AnalysisView
// @Failure 404 {object} ErrorResponse
// @Router /api/datasets/{id}/analysis [get]
func (h *Handler) Analysis(c *gin.Context) {
	view, err := h.Session.Analysis(c.Param("id"))
	if err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary Dashboard view model
// @Description KPI cards, benchmarks, heatmap grid and staffing totals for an analyzed dataset
// @Tags datasets
// @Produce json
// @Param id path string true "dataset id"
// @Success 200 {object} service.Dashboard
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/datasets/{id}/dashboard [get]
func (h *Handler) Dashboard(c *gin.Context) {
	id := c.Param("id")
	res, ok := h.result(c, id)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, service.BuildDashboard(id, res))
}

// @Summary Export a table as CSV
// @Description With publish=1 the file is uploaded to the export bucket and its URL returned instead.
// @Tags datasets
// @Produce text/csv
// @Produce json
// @Param id path string true "dataset id"
// @Param table path string true "benchmarks, staffing_recommendations or agent_performance_analysis"
// @Param publish query bool false "upload to the export bucket"
// @Success 200 {string} string
// @Failure 404 {object} ErrorResponse
// @Failure 501 {object} ErrorResponse
// @Router /api/datasets/{id}/export/{table} [get]
func (h *Handler) Export(c *gin.Context) {
	id := c.Param("id")
	res, ok := h.result(c, id)
	if !ok {
		return
	}
	label, rows, err := service.ExportTable(res, c.Param("table"))
	if err != nil {
		h.writeSessionError(c, err)
		return
	}
	if len(rows) == 0 {
		writeError(c, http.StatusNotFound, "EMPTY_EXPORT", "Nothing to export", nil)
		return
	}
	data := service.ExportCSV(rows)
	filename := service.ExportFilename(label, h.now())

	if publish, _ := strconv.ParseBool(c.Query("publish")); publish {
		if h.Exports == nil {
			writeError(c, http.StatusNotImplemented, "NOT_CONFIGURED", "Export publishing is not configured", nil)
			return
		}
		url, err := h.Exports.Publish(c.Request.Context(), storage.ExportKey(id, filename), data)
		if err != nil {
			h.Logger.Error().Err(err).Str("dataset_id", id).Msg("export publish failed")
			writeError(c, http.StatusBadGateway, "PUBLISH_FAILED", "Export upload failed", err.Error())
			return
		}
		c.JSON(http.StatusOK, PublishResponse{Filename: filename, URL: url})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// @Summary Reset one dataset
// @Description Drops the dataset's result, content and status. Other datasets are untouched.
// @Tags datasets
// @Produce json
// @Param id path string true "dataset id"
// @Success 200 {object} session.Snapshot
// @Failure 404 {object} ErrorResponse
// @Router /api/datasets/{id} [delete]
func (h *Handler) ResetDataset(c *gin.Context) {
	if err := h.Session.Reset(c.Param("id")); err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

// @Summary Reset the whole session
// @Tags session
// @Produce json
// @Success 200 {object} session.Snapshot
// @Router /api/reset [post]
func (h *Handler) ResetAll(c *gin.Context) {
	h.Session.ResetAll()
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

// @Summary Dismiss the surfaced error
// @Tags session
// @Success 204
// @Router /api/error [delete]
func (h *Handler) DismissError(c *gin.Context) {
	h.Session.DismissError()
	c.Status(http.StatusNoContent)
}

func (h *Handler) respondAction(c *gin.Context, started bool, err error) {
	if err != nil {
		h.writeSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, ActionResponse{Started: started, Snapshot: h.Session.Snapshot()})
}

func (h *Handler) result(c *gin.Context, id string) (models.AnalysisResult, bool) {
	if _, err := h.Session.Dataset(id); err != nil {
		h.writeSessionError(c, err)
		return models.AnalysisResult{}, false
	}
	res, ok := h.Session.Result(id)
	if !ok {
		if h.Session.Status(id) == models.StatusAnalyzing {
			writeError(c, http.StatusConflict, "ANALYSIS_PENDING", "Analysis in progress", nil)
		} else {
			writeError(c, http.StatusNotFound, "NO_RESULT", "Dataset has no analysis result", nil)
		}
		return models.AnalysisResult{}, false
	}
	return res, true
}
