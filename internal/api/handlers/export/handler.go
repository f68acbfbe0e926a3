package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarkd/internal/api/respond"
	exportpkg "github.com/aliskhannn/watermarkd/internal/export"
	"github.com/aliskhannn/watermarkd/internal/model"
	exportsvc "github.com/aliskhannn/watermarkd/internal/service/export"
)

// service defines the export operations the handler depends on.
type service interface {
	SubmitBatch(ctx context.Context, files []string, outputFolder string, settings model.ExportSettings) (uuid.UUID, error)
	Batch(id uuid.UUID) (model.BatchStatus, error)
	Preview(ctx context.Context, imagePath string, settings model.ExportSettings) (image.Image, error)
}

// Handler provides HTTP handlers for export batches and previews.
type Handler struct {
	service service
}

// NewHandler creates a new Handler with the given service.
func NewHandler(s service) *Handler {
	return &Handler{service: s}
}

// SubmitRequest is the body of POST /api/export.
type SubmitRequest struct {
	Files        []string             `json:"files"`
	OutputFolder string               `json:"output_folder"`
	Settings     model.ExportSettings `json:"settings"`
}

// Submit validates and enqueues an export batch, responding with its ID.
func (h *Handler) Submit(c *ginext.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return
	}

	id, err := h.service.SubmitBatch(c.Request.Context(), req.Files, req.OutputFolder, req.Settings)
	if err != nil {
		switch {
		case errors.Is(err, exportsvc.ErrNoInputFiles),
			errors.Is(err, exportpkg.ErrOutputFolderMissing),
			errors.Is(err, exportpkg.ErrSameDirectory):
			respond.Fail(c, http.StatusBadRequest, err)
		default:
			zlog.Logger.Err(err).Msg("failed to submit export batch")
			respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to submit batch"))
		}
		return
	}

	respond.Accepted(c, map[string]interface{}{"id": id})
}

// Status reports queue state, progress and the final result of one batch.
func (h *Handler) Status(c *ginext.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return
	}

	st, err := h.service.Batch(id)
	if err != nil {
		if errors.Is(err, exportsvc.ErrBatchNotFound) {
			respond.Fail(c, http.StatusNotFound, err)
			return
		}
		zlog.Logger.Err(err).Msg("failed to get batch status")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to get batch status"))
		return
	}

	respond.OK(c, st)
}

// PreviewRequest is the body of POST /api/preview.
type PreviewRequest struct {
	ImagePath string               `json:"image_path"`
	Settings  model.ExportSettings `json:"settings"`
}

// Preview renders one watermarked preview and streams it back as JPEG.
func (h *Handler) Preview(c *ginext.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %v", err))
		return
	}

	img, err := h.service.Preview(c.Request.Context(), req.ImagePath, req.Settings)
	if err != nil {
		respond.Fail(c, http.StatusUnprocessableEntity, err)
		return
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		zlog.Logger.Err(err).Msg("failed to encode preview")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to encode preview"))
		return
	}

	// Previews reflect live settings; never let browsers cache them.
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")

	respond.JPEG(c, http.StatusOK, &buf)
}
