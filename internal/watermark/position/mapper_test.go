package position

import (
	"image"
	"testing"

	"github.com/aliskhannn/watermarkd/internal/model"
)

func TestForAnchor(t *testing.T) {
	t.Parallel()

	// container 800x600, overlay 100x30, margin 20
	cases := []struct {
		anchor model.Anchor
		want   image.Point
	}{
		{model.AnchorTopLeft, image.Pt(20, 20)},
		{model.AnchorTopCenter, image.Pt(350, 20)},
		{model.AnchorTopRight, image.Pt(680, 20)},
		{model.AnchorMiddleLeft, image.Pt(20, 285)},
		{model.AnchorCenter, image.Pt(350, 285)},
		{model.AnchorMiddleRight, image.Pt(680, 285)},
		{model.AnchorBottomLeft, image.Pt(20, 550)},
		{model.AnchorBottomCenter, image.Pt(350, 550)},
		{model.AnchorBottomRight, image.Pt(680, 550)},
		{model.Anchor("bogus"), image.Pt(680, 550)}, // unknown falls back to bottom-right
	}

	for _, c := range cases {
		if got := ForAnchor(800, 600, 100, 30, c.anchor, 20); got != c.want {
			t.Errorf("ForAnchor(%s) = %v, want %v", c.anchor, got, c.want)
		}
	}
}

func TestForAnchorStaysInsideMargins(t *testing.T) {
	t.Parallel()

	anchors := []model.Anchor{
		model.AnchorTopLeft, model.AnchorTopCenter, model.AnchorTopRight,
		model.AnchorMiddleLeft, model.AnchorCenter, model.AnchorMiddleRight,
		model.AnchorBottomLeft, model.AnchorBottomCenter, model.AnchorBottomRight,
	}
	dims := []struct{ W, H, w, h, m int }{
		{800, 600, 100, 30, 20},
		{1920, 1080, 400, 120, 20},
		{101, 99, 50, 40, 10},
		{640, 480, 1, 1, 0},
	}

	for _, d := range dims {
		for _, a := range anchors {
			p := ForAnchor(d.W, d.H, d.w, d.h, a, d.m)
			if p.X < d.m || p.X > d.W-d.w-d.m || p.Y < d.m || p.Y > d.H-d.h-d.m {
				t.Errorf("ForAnchor(%s, %+v) = %v escapes margin band", a, d, p)
			}
		}
	}
}

func TestPreviewToImage(t *testing.T) {
	t.Parallel()

	// image 1600x1200 fit into 400x300 gives scale 0.25
	got := PreviewToImage(image.Pt(100, 100), 1600, 1200, 50, 50, 400, 300)
	if got != image.Pt(400, 400) {
		t.Fatalf("PreviewToImage = %v, want (400,400)", got)
	}
}

func TestPreviewToImageClamps(t *testing.T) {
	t.Parallel()

	points := []image.Point{
		{X: -50, Y: -50},
		{X: 0, Y: 0},
		{X: 399, Y: 299},
		{X: 1000, Y: 1000}, // far outside the viewport
		{X: 400, Y: 0},
	}
	for _, p := range points {
		got := PreviewToImage(p, 1600, 1200, 50, 50, 400, 300)
		if got.X < 0 || got.X > 1600-50 || got.Y < 0 || got.Y > 1200-50 {
			t.Errorf("PreviewToImage(%v) = %v outside valid range", p, got)
		}
	}
}

func TestPreviewToImageDegenerate(t *testing.T) {
	t.Parallel()

	cases := []struct{ iw, ih, vw, vh int }{
		{0, 1200, 400, 300},
		{1600, 0, 400, 300},
		{1600, 1200, 0, 300},
		{1600, 1200, 400, 0},
	}
	for _, c := range cases {
		got := PreviewToImage(image.Pt(10, 10), c.iw, c.ih, 50, 50, c.vw, c.vh)
		if got != image.Pt(20, 20) {
			t.Errorf("degenerate input %+v: got %v, want (20,20)", c, got)
		}
	}
}

func TestResolvePrefersCustomPosition(t *testing.T) {
	t.Parallel()

	p := model.Placement{
		Anchor:         model.AnchorTopLeft,
		CustomPosition: &model.Point{X: 100, Y: 100},
	}
	got := Resolve(p, 1600, 1200, 50, 50, 400, 300)
	if got != image.Pt(400, 400) {
		t.Fatalf("Resolve with custom position = %v, want (400,400)", got)
	}

	p.CustomPosition = nil
	got = Resolve(p, 1600, 1200, 50, 50, 400, 300)
	if got != image.Pt(20, 20) {
		t.Fatalf("Resolve with anchor = %v, want (20,20)", got)
	}
}
