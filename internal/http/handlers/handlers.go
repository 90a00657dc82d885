package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/opsintel/backend/internal/clipboard"
	"github.com/opsintel/backend/internal/ingest"
	"github.com/opsintel/backend/internal/models"
	"github.com/opsintel/backend/internal/service"
	"github.com/opsintel/backend/internal/session"
)

// Archive is the read side of the optional result archive.
type Archive interface {
	Ping(ctx context.Context) error
	ListArchived(ctx context.Context, datasetID string, limit int) ([]models.ArchivedAnalysis, error)
}

// Publisher uploads an export and returns where it can be downloaded.
type Publisher interface {
	Publish(ctx context.Context, key string, data []byte) (string, error)
}

type Handler struct {
	Session       *session.Controller
	Archive       Archive
	Exports       Publisher
	Validator     *validator.Validate
	Logger        zerolog.Logger
	MaxUploadSize int64
	Now           func() time.Time
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorResponse
// @Router /healthz [get]
func (h *Handler) Healthz(c *gin.Context) {
	if h.Archive != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := h.Archive.Ping(ctx); err != nil {
			writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// writeSessionError maps controller and ingestion errors onto the error
// envelope.
func (h *Handler) writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrUnknownDataset):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Dataset not found", err.Error())
	case errors.Is(err, session.ErrDatasetBusy):
		writeError(c, http.StatusConflict, "DATASET_BUSY", "Dataset is analyzing or already analyzed", err.Error())
	case errors.Is(err, session.ErrNoContent):
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Content is empty", nil)
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		writeError(c, http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", "Unsupported file format. Use .xlsx, .xls, .csv or .json", err.Error())
	case errors.Is(err, ingest.ErrParseFailed):
		writeError(c, http.StatusUnprocessableEntity, "PARSE_ERROR", "Parsing failed. Check file structure.", err.Error())
	case errors.Is(err, clipboard.ErrEmpty), errors.Is(err, clipboard.ErrUnavailable):
		writeError(c, http.StatusUnprocessableEntity, "CLIPBOARD_ERROR", "Clipboard access denied or empty.", err.Error())
	case errors.Is(err, service.ErrUnknownTable):
		writeError(c, http.StatusNotFound, "NOT_FOUND", "Unknown export table", service.ExportTables())
	default:
		h.Logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		writeError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Request failed", err.Error())
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
