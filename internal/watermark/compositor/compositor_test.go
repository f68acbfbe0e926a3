package compositor

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/aliskhannn/watermarkd/internal/model"
	"github.com/aliskhannn/watermarkd/internal/watermark/fontres"
)

var testViewport = image.Pt(400, 300)

func textDescriptor(content string) model.WatermarkDescriptor {
	return model.WatermarkDescriptor{
		Type:      model.WatermarkText,
		Placement: model.Placement{Anchor: model.AnchorCenter},
		Opacity:   100,
		Text: &model.TextWatermark{
			Content:    content,
			FontFamily: "Test",
			FontSizePx: 24,
			Color:      model.Color{R: 255, G: 255, B: 255, A: 255},
		},
	}
}

func equalImages(a, b *image.NRGBA) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			return false
		}
	}
	return true
}

// litPixels counts pixels that are not pure black.
func litPixels(img *image.NRGBA) int {
	n := 0
	for i := 0; i < len(img.Pix); i += 4 {
		if img.Pix[i] != 0 || img.Pix[i+1] != 0 || img.Pix[i+2] != 0 {
			n++
		}
	}
	return n
}

func TestRenderDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	base := imaging.New(200, 100, color.NRGBA{0, 0, 0, 255})
	before := imaging.Clone(base)

	rf := fontres.NewResolver().Default(24)
	Render(base, textDescriptor("mark"), rf, testViewport)

	if !equalImages(base, before) {
		t.Fatal("Render mutated its input image")
	}
}

func TestRenderEmptyTextIsNoop(t *testing.T) {
	t.Parallel()

	base := imaging.New(200, 100, color.NRGBA{10, 20, 30, 255})
	rf := fontres.NewResolver().Default(24)

	out := Render(base, textDescriptor(""), rf, testViewport)
	if !equalImages(out, base) {
		t.Fatal("empty content must render nothing")
	}
}

func TestRenderTextDrawsGlyphs(t *testing.T) {
	t.Parallel()

	base := imaging.New(200, 100, color.NRGBA{0, 0, 0, 255})
	rf := fontres.NewResolver().Default(24)

	out := Render(base, textDescriptor("mark"), rf, testViewport)
	if litPixels(out) == 0 {
		t.Fatal("text watermark drew no pixels")
	}
}

func TestPseudoBoldOnlyWithoutRealBold(t *testing.T) {
	t.Parallel()

	base := imaging.New(300, 150, color.NRGBA{0, 0, 0, 255})
	resolver := fontres.NewResolver()

	d := textDescriptor("mark")
	plain := Render(base, d, resolver.Default(24), testViewport)

	d.Text.Bold = true
	synthetic := Render(base, d, resolver.Default(24), testViewport)

	// Synthetic bold strokes the glyphs four times at 1px offsets, so it
	// must cover strictly more pixels than the single pass.
	if litPixels(synthetic) <= litPixels(plain) {
		t.Fatal("pseudo-bold did not widen the glyph coverage")
	}

	// With a real bold face the 4-offset stroke must not fire: the output
	// is the same single draw as the non-bold request.
	realBold := resolver.Default(24)
	realBold.HasRealBold = true
	single := Render(base, d, realBold, testViewport)
	if !equalImages(single, plain) {
		t.Fatal("real bold still triggered the synthetic stroke")
	}
}

func TestShadowPassChangesOutput(t *testing.T) {
	t.Parallel()

	// Mid-gray base so the black shadow pass is visible.
	base := imaging.New(300, 150, color.NRGBA{120, 120, 120, 255})
	rf := fontres.NewResolver().Default(24)

	d := textDescriptor("mark")
	without := Render(base, d, rf, testViewport)

	d.Text.Shadow = true
	with := Render(base, d, rf, testViewport)

	if equalImages(with, without) {
		t.Fatal("shadow pass had no visible effect")
	}
}

func TestRenderImageWatermark(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wmPath := filepath.Join(dir, "wm.png")
	wm := imaging.New(10, 10, color.NRGBA{255, 0, 0, 255})
	if err := imaging.Save(wm, wmPath); err != nil {
		t.Fatalf("save watermark: %v", err)
	}

	base := imaging.New(100, 100, color.NRGBA{255, 255, 255, 255})
	d := model.WatermarkDescriptor{
		Type:      model.WatermarkImage,
		Placement: model.Placement{Anchor: model.AnchorTopLeft},
		Opacity:   100,
		Image:     &model.ImageWatermark{SourcePath: wmPath},
	}

	out := Render(base, d, nil, testViewport)
	// Anchor top_left with margin 20 puts the 10x10 watermark at (20,20).
	got := out.NRGBAAt(25, 25)
	if got.R != 255 || got.G != 0 || got.B != 0 {
		t.Fatalf("pixel inside watermark = %v, want opaque red", got)
	}
	if c := out.NRGBAAt(50, 50); c.R != 255 || c.G != 255 || c.B != 255 {
		t.Fatalf("pixel outside watermark = %v, want untouched white", c)
	}
}

func TestRenderImageWatermarkOpacity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wmPath := filepath.Join(dir, "wm.png")
	wm := imaging.New(10, 10, color.NRGBA{255, 0, 0, 255})
	if err := imaging.Save(wm, wmPath); err != nil {
		t.Fatalf("save watermark: %v", err)
	}

	base := imaging.New(100, 100, color.NRGBA{255, 255, 255, 255})
	d := model.WatermarkDescriptor{
		Type:      model.WatermarkImage,
		Placement: model.Placement{Anchor: model.AnchorTopLeft},
		Opacity:   50,
		Image:     &model.ImageWatermark{SourcePath: wmPath},
	}

	out := Render(base, d, nil, testViewport)
	got := out.NRGBAAt(25, 25)
	// 50% red over white: red stays saturated, green/blue land near 128.
	if got.R < 250 {
		t.Fatalf("red channel = %d, want near 255", got.R)
	}
	if got.G < 118 || got.G > 138 {
		t.Fatalf("green channel = %d, want near 128", got.G)
	}
}

func TestRenderMissingImageFallsBack(t *testing.T) {
	t.Parallel()

	base := imaging.New(100, 100, color.NRGBA{7, 7, 7, 255})
	d := model.WatermarkDescriptor{
		Type:      model.WatermarkImage,
		Placement: model.Placement{Anchor: model.AnchorCenter},
		Opacity:   100,
		Image:     &model.ImageWatermark{SourcePath: filepath.Join(t.TempDir(), "missing.png")},
	}

	out := Render(base, d, nil, testViewport)
	if !equalImages(out, base) {
		t.Fatal("missing watermark source must degrade to a clean copy")
	}
}

func TestRenderRotatedImageWatermarkStaysInside(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wmPath := filepath.Join(dir, "wm.png")
	wm := imaging.New(20, 10, color.NRGBA{0, 0, 255, 255})
	if err := imaging.Save(wm, wmPath); err != nil {
		t.Fatalf("save watermark: %v", err)
	}

	base := imaging.New(100, 100, color.NRGBA{0, 0, 0, 255})
	d := model.WatermarkDescriptor{
		Type:            model.WatermarkImage,
		Placement:       model.Placement{Anchor: model.AnchorBottomRight},
		Opacity:         100,
		RotationDegrees: 45,
		Image:           &model.ImageWatermark{SourcePath: wmPath},
	}

	out := Render(base, d, nil, testViewport)
	if litPixels(out) == 0 {
		t.Fatal("rotated watermark drew nothing")
	}
}
