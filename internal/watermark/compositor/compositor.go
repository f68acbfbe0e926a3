// Package compositor renders a single watermark descriptor onto a decoded
// image. The same code path serves interactive previews and batch export, so
// the two can never visually diverge.
package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/aliskhannn/watermarkd/internal/model"
	"github.com/aliskhannn/watermarkd/internal/watermark/fontres"
	"github.com/aliskhannn/watermarkd/internal/watermark/position"
)

// Render composites the watermark described by d onto base and returns the
// result as a fresh RGBA buffer. The input image is never mutated. A missing
// or unreadable image watermark degrades to rendering nothing; it is not an
// error. viewport is the preview viewport size used to interpret custom
// placement coordinates.
func Render(base image.Image, d model.WatermarkDescriptor, rf *fontres.ResolvedFont, viewport image.Point) *image.NRGBA {
	dst := imaging.Clone(base)
	overlay := image.NewNRGBA(dst.Bounds())

	switch d.Type {
	case model.WatermarkText:
		drawText(overlay, d, rf, viewport)
	case model.WatermarkImage:
		drawImage(overlay, d, viewport)
	}

	draw.Draw(dst, dst.Bounds(), overlay, image.Point{}, draw.Over)
	return dst
}

// MeasureText returns the tight bounding box of content rendered with rf.
// The box is what the position mapper treats as the overlay size.
func MeasureText(rf *fontres.ResolvedFont, content string) (w, h int) {
	if rf == nil || content == "" {
		return 0, 0
	}
	b, _ := font.BoundString(rf.Face(), content)
	return (b.Max.X - b.Min.X).Ceil(), (b.Max.Y - b.Min.Y).Ceil()
}

func drawText(overlay *image.NRGBA, d model.WatermarkDescriptor, rf *fontres.ResolvedFont, viewport image.Point) {
	if d.Text == nil || d.Text.Content == "" || rf == nil {
		return
	}

	tw, th := MeasureText(rf, d.Text.Content)
	if tw <= 0 || th <= 0 {
		return
	}

	face := rf.Face()
	b, _ := font.BoundString(face, d.Text.Content)
	// Glyph origin inside the canvas so the ink's top-left sits at (0,0).
	ox := -float64(b.Min.X) / 64
	oy := -float64(b.Min.Y) / 64

	alpha := alpha255(d.Opacity)
	c := d.Text.Color

	// The canvas is padded by 3px on the right and bottom: the shadow pass
	// lands at (+2,+2) and the pseudo-bold strokes at (+1,+1), both outside
	// the tight text box.
	dc := gg.NewContext(tw+3, th+3)
	dc.SetFontFace(face)

	if d.Text.Shadow {
		dc.SetRGBA255(0, 0, 0, alpha/2)
		dc.DrawString(d.Text.Content, ox+2, oy+2)
	}

	dc.SetRGBA255(int(c.R), int(c.G), int(c.B), alpha)
	if d.Text.Bold && !rf.HasRealBold {
		// No true bold glyphs: emulate the weight with a 4-offset stroke.
		for _, off := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			dc.DrawString(d.Text.Content, ox+off[0], oy+off[1])
		}
	} else {
		dc.DrawString(d.Text.Content, ox, oy)
	}

	wm := imaging.Clone(dc.Image())
	ow, oh := tw, th
	if d.RotationDegrees != 0 {
		wm = imaging.Rotate(wm, d.RotationDegrees, color.NRGBA{})
		ow, oh = wm.Bounds().Dx(), wm.Bounds().Dy()
	}

	bounds := overlay.Bounds()
	pos := position.Resolve(d.Placement, bounds.Dx(), bounds.Dy(), ow, oh, viewport.X, viewport.Y)
	paste(overlay, wm, pos)
}

func drawImage(overlay *image.NRGBA, d model.WatermarkDescriptor, viewport image.Point) {
	if d.Image == nil || d.Image.SourcePath == "" {
		return
	}
	src, err := imaging.Open(d.Image.SourcePath)
	if err != nil {
		// Expected, recoverable condition: render without the watermark
		// rather than failing the whole image.
		return
	}
	wm := imaging.Clone(src)

	if sp := d.Image.ScalePercent; sp > 0 && sp != 100 {
		w := wm.Bounds().Dx() * sp / 100
		h := wm.Bounds().Dy() * sp / 100
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
		wm = imaging.Resize(wm, w, h, imaging.Lanczos)
	}

	if op := clampPct(d.Opacity); op < 100 {
		scaleAlpha(wm, op)
	}

	if d.RotationDegrees != 0 {
		wm = imaging.Rotate(wm, d.RotationDegrees, color.NRGBA{})
	}

	bounds := overlay.Bounds()
	pos := position.Resolve(d.Placement, bounds.Dx(), bounds.Dy(), wm.Bounds().Dx(), wm.Bounds().Dy(), viewport.X, viewport.Y)
	paste(overlay, wm, pos)
}

func paste(dst *image.NRGBA, src *image.NRGBA, at image.Point) {
	r := image.Rect(at.X, at.Y, at.X+src.Bounds().Dx(), at.Y+src.Bounds().Dy())
	draw.Draw(dst, r, src, src.Bounds().Min, draw.Over)
}

// scaleAlpha multiplies the alpha channel by pct/100 in place, keeping
// already-transparent regions proportionally transparent. Integer truncation,
// matching 8-bit channel math everywhere else.
func scaleAlpha(img *image.NRGBA, pct int) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(int(img.Pix[i]) * pct / 100)
	}
}

// alpha255 maps a 0-100 opacity slider value onto an 8-bit alpha channel.
func alpha255(pct int) int {
	return int(math.Round(255 * float64(clampPct(pct)) / 100))
}

func clampPct(pct int) int {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
