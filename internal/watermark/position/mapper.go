// Package position maps watermark placements to full-image coordinates.
// It is the single source of truth for both preview rendering and export,
// so the exported watermark lands exactly where the preview showed it.
package position

import (
	"image"

	"github.com/aliskhannn/watermarkd/internal/model"
)

// DefaultMargin is the distance in pixels kept between an anchored watermark
// and the image edge.
const DefaultMargin = 20

// defaultPoint is returned for degenerate inputs instead of failing.
var defaultPoint = image.Pt(20, 20)

// ForAnchor returns the top-left point of an overlay of size w×h placed at
// the given anchor inside a W×H container. Unrecognized anchors fall back to
// bottom-right.
func ForAnchor(containerW, containerH, overlayW, overlayH int, anchor model.Anchor, margin int) image.Point {
	W, H := containerW, containerH
	w, h := overlayW, overlayH
	m := margin

	switch anchor {
	case model.AnchorTopLeft:
		return image.Pt(m, m)
	case model.AnchorTopCenter:
		return image.Pt((W-w)/2, m)
	case model.AnchorTopRight:
		return image.Pt(W-w-m, m)
	case model.AnchorMiddleLeft:
		return image.Pt(m, (H-h)/2)
	case model.AnchorCenter:
		return image.Pt((W-w)/2, (H-h)/2)
	case model.AnchorMiddleRight:
		return image.Pt(W-w-m, (H-h)/2)
	case model.AnchorBottomLeft:
		return image.Pt(m, H-h-m)
	case model.AnchorBottomCenter:
		return image.Pt((W-w)/2, H-h-m)
	default: // bottom_right and anything unrecognized
		return image.Pt(W-w-m, H-h-m)
	}
}

// PreviewToImage converts a preview-space point into image-space. The preview
// shows the full image scaled uniformly to fit the viewport, so the inverse
// transform divides by min(viewportW/imageW, viewportH/imageH). The result is
// clamped so the overlay stays fully inside the image. Degenerate sizes yield
// a fixed default point.
func PreviewToImage(preview image.Point, imageW, imageH, overlayW, overlayH, viewportW, viewportH int) image.Point {
	if imageW <= 0 || imageH <= 0 || viewportW <= 0 || viewportH <= 0 {
		return defaultPoint
	}

	scaleX := float64(viewportW) / float64(imageW)
	scaleY := float64(viewportH) / float64(imageH)
	scale := scaleX
	if scaleY < scale {
		scale = scaleY
	}
	if scale <= 0 {
		return defaultPoint
	}

	x := int(float64(preview.X) / scale)
	y := int(float64(preview.Y) / scale)

	return image.Pt(
		clamp(x, 0, imageW-overlayW),
		clamp(y, 0, imageH-overlayH),
	)
}

// Resolve dispatches a placement to the appropriate transform: a custom
// preview-space position when present, the named anchor otherwise.
func Resolve(p model.Placement, imageW, imageH, overlayW, overlayH, viewportW, viewportH int) image.Point {
	if p.CustomPosition != nil {
		pt := image.Pt(p.CustomPosition.X, p.CustomPosition.Y)
		return PreviewToImage(pt, imageW, imageH, overlayW, overlayH, viewportW, viewportH)
	}
	return ForAnchor(imageW, imageH, overlayW, overlayH, p.Anchor, DefaultMargin)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
