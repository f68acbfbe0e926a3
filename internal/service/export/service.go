// Package export (service) owns batch lifecycle: it freezes a settings
// snapshot at submit time, enqueues the batch for the background worker,
// tracks progress in an in-memory registry and renders interactive previews
// through the same compositor path the worker uses.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	exportpkg "github.com/aliskhannn/watermarkd/internal/export"
	"github.com/aliskhannn/watermarkd/internal/model"
	"github.com/aliskhannn/watermarkd/internal/watermark/compositor"
	"github.com/aliskhannn/watermarkd/internal/watermark/fontres"
)

// ErrBatchNotFound is returned when the registry holds no batch for an ID.
var ErrBatchNotFound = errors.New("batch not found")

// ErrNoInputFiles is returned when a batch is submitted without inputs.
var ErrNoInputFiles = errors.New("no input files")

// producer enqueues export tasks into the message broker.
type producer interface {
	Enqueue(ctx context.Context, task model.ExportTask) error
}

// archive mirrors exported files into long-term storage (local FS or MinIO).
type archive interface {
	Save(ctx context.Context, batch, filename string, src io.Reader) (string, error)
}

// Service provides business logic for export batches and previews.
type Service struct {
	coordinator *exportpkg.Coordinator
	producer    producer
	resolver    *fontres.Resolver
	archive     archive // nil when archiving is disabled
	viewport    image.Point

	mu      sync.RWMutex
	batches map[uuid.UUID]*model.BatchStatus
}

// NewService creates a Service. archive may be nil.
func NewService(c *exportpkg.Coordinator, p producer, r *fontres.Resolver, a archive, viewport image.Point) *Service {
	return &Service{
		coordinator: c,
		producer:    p,
		resolver:    r,
		archive:     a,
		viewport:    viewport,
		batches:     make(map[uuid.UUID]*model.BatchStatus),
	}
}

// SubmitBatch validates the request, snapshots the settings and enqueues the
// batch. Validation errors surface here, before anything is queued; settings
// edited after this call cannot affect the batch.
func (s *Service) SubmitBatch(ctx context.Context, files []string, outputFolder string, settings model.ExportSettings) (uuid.UUID, error) {
	if len(files) == 0 {
		return uuid.Nil, ErrNoInputFiles
	}
	if err := s.coordinator.Validate(files, outputFolder); err != nil {
		return uuid.Nil, err
	}

	task := model.ExportTask{
		ID:           uuid.New(),
		Files:        append([]string(nil), files...),
		OutputFolder: outputFolder,
		Settings:     settings.Snapshot(),
		CreatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	s.batches[task.ID] = &model.BatchStatus{ID: task.ID, State: model.BatchQueued}
	s.mu.Unlock()

	if err := s.producer.Enqueue(ctx, task); err != nil {
		s.mu.Lock()
		delete(s.batches, task.ID)
		s.mu.Unlock()
		return uuid.Nil, fmt.Errorf("enqueue batch: %w", err)
	}

	return task.ID, nil
}

// ProcessTask runs one batch. It is called from the single consumer
// goroutine, so batches execute strictly sequentially.
func (s *Service) ProcessTask(ctx context.Context, task model.ExportTask) error {
	s.setState(task.ID, model.BatchRunning)

	zlog.Logger.Info().
		Str("batch", task.ID.String()).
		Int("files", len(task.Files)).
		Msg("starting export batch")

	rf := s.resolveFont(task.Settings)

	res, err := s.coordinator.Run(ctx, task.Files, task.OutputFolder, task.Settings, rf,
		func(current, total int, filename string) {
			s.setProgress(task.ID, model.Progress{Current: current, Total: total, Filename: filename})
		})
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		s.finish(task.ID, res)
		return fmt.Errorf("run batch %s: %w", task.ID, err)
	}

	s.mirror(ctx, task, res)
	s.finish(task.ID, res)

	zlog.Logger.Info().
		Str("batch", task.ID.String()).
		Int("success", res.SuccessCount).
		Int("errors", res.ErrorCount).
		Msg(exportpkg.Summarize(res))

	return nil
}

// Batch returns a copy of the registry entry for one batch.
func (s *Service) Batch(id uuid.UUID) (model.BatchStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.batches[id]
	if !ok {
		return model.BatchStatus{}, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}

	out := *st
	if st.Result != nil {
		r := *st.Result
		out.Result = &r
	}
	return out, nil
}

// Preview renders one watermarked image at preview resolution. It resolves
// the font through the shared cache and renders through the shared
// compositor, so the preview cannot diverge from a later export.
func (s *Service) Preview(_ context.Context, imagePath string, settings model.ExportSettings) (image.Image, error) {
	src, err := imaging.Open(imagePath)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(imagePath), err)
	}

	rf := s.resolveFont(settings)
	full := compositor.Render(src, settings.Watermark, rf, s.viewport)

	return imaging.Fit(full, s.viewport.X, s.viewport.Y, imaging.Lanczos), nil
}

func (s *Service) resolveFont(settings model.ExportSettings) *fontres.ResolvedFont {
	t := settings.Watermark.Text
	if settings.Watermark.Type != model.WatermarkText || t == nil || t.Content == "" {
		return nil
	}
	return s.resolver.Resolve(t.FontFamily, t.FontSizePx, t.Bold, t.Italic, t.Content)
}

// mirror copies the written outputs into the archive backend, best effort.
func (s *Service) mirror(ctx context.Context, task model.ExportTask, res model.ExportResult) {
	if s.archive == nil {
		return
	}
	for _, name := range res.Written {
		src, err := os.Open(filepath.Join(task.OutputFolder, name))
		if err != nil {
			zlog.Logger.Err(err).Str("file", name).Msg("failed to open exported file for archiving")
			continue
		}
		if _, err := s.archive.Save(ctx, task.ID.String(), name, src); err != nil {
			zlog.Logger.Err(err).Str("file", name).Msg("failed to archive exported file")
		}
		_ = src.Close()
	}
}

func (s *Service) setState(id uuid.UUID, state model.BatchState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.batches[id]; ok {
		st.State = state
	}
}

func (s *Service) setProgress(id uuid.UUID, p model.Progress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.batches[id]; ok {
		st.Progress = p
	}
}

func (s *Service) finish(id uuid.UUID, res model.ExportResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.batches[id]
	if !ok {
		// The worker may process tasks that outlived a restart of the API
		// layer; register them on completion so status queries still work.
		st = &model.BatchStatus{ID: id}
		s.batches[id] = st
	}
	st.State = model.BatchDone
	st.Result = &res
}
