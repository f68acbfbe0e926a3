package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/watermarkd/internal/api/respond"
	"github.com/aliskhannn/watermarkd/internal/template"
)

// store is the template collaborator: an opaque named settings-bag registry.
type store interface {
	Get(name string) (json.RawMessage, error)
	Put(name string, bag json.RawMessage) error
	Delete(name string) error
	List() []string
}

// Handler provides HTTP handlers for named watermark templates.
type Handler struct {
	store store
}

// NewHandler creates a new Handler backed by the given store.
func NewHandler(s store) *Handler {
	return &Handler{store: s}
}

// List responds with all template names.
func (h *Handler) List(c *ginext.Context) {
	respond.OK(c, h.store.List())
}

// Get responds with the raw settings bag stored under a name.
func (h *Handler) Get(c *ginext.Context) {
	bag, err := h.store.Get(c.Param("name"))
	if err != nil {
		if errors.Is(err, template.ErrTemplateNotFound) {
			respond.Fail(c, http.StatusNotFound, err)
			return
		}
		zlog.Logger.Err(err).Msg("failed to get template")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to get template"))
		return
	}
	c.Data(http.StatusOK, "application/json", bag)
}

// Put stores the request body verbatim as the settings bag for a name.
func (h *Handler) Put(c *ginext.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || len(body) == 0 {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("empty template body"))
		return
	}
	if !json.Valid(body) {
		respond.Fail(c, http.StatusBadRequest, fmt.Errorf("template body is not valid JSON"))
		return
	}

	if err := h.store.Put(c.Param("name"), body); err != nil {
		zlog.Logger.Err(err).Msg("failed to store template")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to store template"))
		return
	}

	respond.OK(c, map[string]interface{}{"name": c.Param("name")})
}

// Delete removes a named template.
func (h *Handler) Delete(c *ginext.Context) {
	if err := h.store.Delete(c.Param("name")); err != nil {
		if errors.Is(err, template.ErrTemplateNotFound) {
			respond.Fail(c, http.StatusNotFound, err)
			return
		}
		zlog.Logger.Err(err).Msg("failed to delete template")
		respond.Fail(c, http.StatusInternalServerError, fmt.Errorf("failed to delete template"))
		return
	}

	c.Status(http.StatusNoContent)
}
