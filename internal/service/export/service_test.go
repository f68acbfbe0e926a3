package export

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"

	exportpkg "github.com/aliskhannn/watermarkd/internal/export"
	"github.com/aliskhannn/watermarkd/internal/model"
	"github.com/aliskhannn/watermarkd/internal/watermark/fontres"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

// fakeProducer records enqueued tasks instead of talking to Kafka.
type fakeProducer struct {
	tasks []model.ExportTask
	err   error
}

func (f *fakeProducer) Enqueue(_ context.Context, task model.ExportTask) error {
	if f.err != nil {
		return f.err
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func newService(p *fakeProducer) *Service {
	resolver := fontres.NewResolver()
	viewport := image.Pt(400, 300)
	return NewService(exportpkg.New(resolver, viewport), p, resolver, nil, viewport)
}

func testSettings() model.ExportSettings {
	return model.ExportSettings{
		Format:     model.FormatPNG,
		NamingRule: model.NamingOriginal,
		Watermark: model.WatermarkDescriptor{
			Type:      model.WatermarkText,
			Placement: model.Placement{Anchor: model.AnchorBottomRight},
			Opacity:   70,
			Text: &model.TextWatermark{
				Content:    "sample",
				FontFamily: "Arial",
				FontSizePx: 20,
				Color:      model.Color{R: 255, G: 255, B: 255, A: 180},
			},
		},
	}
}

func writeTestImage(t *testing.T, path string) {
	t.Helper()
	img := imaging.New(200, 150, color.NRGBA{40, 40, 40, 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("write test image: %v", err)
	}
}

func TestSubmitBatchSnapshotsSettings(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	out := t.TempDir()
	file := filepath.Join(in, "a.jpg")
	writeTestImage(t, file)

	p := &fakeProducer{}
	svc := newService(p)

	settings := testSettings()
	id, err := svc.SubmitBatch(context.Background(), []string{file}, out, settings)
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if id == uuid.Nil {
		t.Fatal("SubmitBatch returned nil id")
	}

	// Edits after submission must not reach the queued task.
	settings.Watermark.Text.Content = "changed"
	settings.Watermark.Placement.CustomPosition = &model.Point{X: 1, Y: 1}

	if len(p.tasks) != 1 {
		t.Fatalf("enqueued %d tasks, want 1", len(p.tasks))
	}
	got := p.tasks[0].Settings.Watermark
	if got.Text.Content != "sample" {
		t.Fatalf("snapshot content = %q, want %q", got.Text.Content, "sample")
	}
	if got.Placement.CustomPosition != nil {
		t.Fatal("snapshot gained a custom position set after submit")
	}

	st, err := svc.Batch(id)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if st.State != model.BatchQueued {
		t.Fatalf("state = %s, want queued", st.State)
	}
}

func TestSubmitBatchValidates(t *testing.T) {
	t.Parallel()

	svc := newService(&fakeProducer{})

	if _, err := svc.SubmitBatch(context.Background(), nil, t.TempDir(), testSettings()); !errors.Is(err, ErrNoInputFiles) {
		t.Fatalf("empty batch: err = %v, want ErrNoInputFiles", err)
	}

	dir := t.TempDir()
	file := filepath.Join(dir, "a.jpg")
	writeTestImage(t, file)

	// Exporting into the source directory must be rejected before enqueueing.
	if _, err := svc.SubmitBatch(context.Background(), []string{file}, dir, testSettings()); !errors.Is(err, exportpkg.ErrSameDirectory) {
		t.Fatalf("same dir: err = %v, want ErrSameDirectory", err)
	}
}

func TestProcessTaskCompletesBatch(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	out := t.TempDir()
	files := []string{filepath.Join(in, "a.jpg"), filepath.Join(in, "b.jpg")}
	writeTestImage(t, files[0])
	if err := os.WriteFile(files[1], []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &fakeProducer{}
	svc := newService(p)

	id, err := svc.SubmitBatch(context.Background(), files, out, testSettings())
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}

	if err := svc.ProcessTask(context.Background(), p.tasks[0]); err != nil {
		t.Fatalf("ProcessTask: %v", err)
	}

	st, err := svc.Batch(id)
	if err != nil {
		t.Fatalf("Batch: %v", err)
	}
	if st.State != model.BatchDone {
		t.Fatalf("state = %s, want done", st.State)
	}
	if st.Result == nil || st.Result.SuccessCount != 1 || st.Result.ErrorCount != 1 {
		t.Fatalf("result = %+v, want 1 success / 1 error", st.Result)
	}
	if st.Progress.Current != 2 || st.Progress.Total != 2 {
		t.Fatalf("final progress = %+v, want 2/2", st.Progress)
	}

	if _, err := os.Stat(filepath.Join(out, "a.png")); err != nil {
		t.Fatalf("expected exported file: %v", err)
	}
}

func TestBatchUnknownID(t *testing.T) {
	t.Parallel()

	svc := newService(&fakeProducer{})
	if _, err := svc.Batch(uuid.New()); !errors.Is(err, ErrBatchNotFound) {
		t.Fatalf("err = %v, want ErrBatchNotFound", err)
	}
}

func TestPreviewFitsViewport(t *testing.T) {
	t.Parallel()

	in := t.TempDir()
	file := filepath.Join(in, "a.jpg")
	writeTestImage(t, file)

	svc := newService(&fakeProducer{})
	img, err := svc.Preview(context.Background(), file, testSettings())
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	b := img.Bounds()
	if b.Dx() > 400 || b.Dy() > 300 {
		t.Fatalf("preview %dx%d exceeds the viewport", b.Dx(), b.Dy())
	}
}
