package export

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/aliskhannn/watermarkd/internal/model"
)

type service interface {
	ProcessTask(ctx context.Context, task model.ExportTask) error
}

// RequestedHandler decodes export-requested messages and hands the contained
// task to the service.
type RequestedHandler struct {
	service service
}

func NewRequestedHandler(s service) *RequestedHandler {
	return &RequestedHandler{service: s}
}

func (h *RequestedHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var task model.ExportTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		return fmt.Errorf("unmarshal task: %w", err)
	}

	if err := h.service.ProcessTask(ctx, task); err != nil {
		return fmt.Errorf("process task: %w", err)
	}

	return nil
}
