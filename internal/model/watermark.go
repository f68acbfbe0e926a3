package model

// WatermarkType discriminates the two watermark kinds.
type WatermarkType string

const (
	WatermarkText  WatermarkType = "text"
	WatermarkImage WatermarkType = "image"
)

// Anchor is one of the nine named grid positions.
type Anchor string

const (
	AnchorTopLeft      Anchor = "top_left"
	AnchorTopCenter    Anchor = "top_center"
	AnchorTopRight     Anchor = "top_right"
	AnchorMiddleLeft   Anchor = "middle_left"
	AnchorCenter       Anchor = "center"
	AnchorMiddleRight  Anchor = "middle_right"
	AnchorBottomLeft   Anchor = "bottom_left"
	AnchorBottomCenter Anchor = "bottom_center"
	AnchorBottomRight  Anchor = "bottom_right"
)

// Point is a pixel coordinate pair.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Placement describes where the watermark goes: either a named anchor or an
// explicit preview-space position. A custom position overrides the anchor.
type Placement struct {
	Anchor         Anchor `json:"anchor,omitempty"`
	CustomPosition *Point `json:"custom_position,omitempty"`
}

// Color is an RGB color plus a base alpha.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// TextWatermark holds the fields specific to a text watermark.
type TextWatermark struct {
	Content    string `json:"content"`
	FontFamily string `json:"font_family"`
	FontSizePx int    `json:"font_size_px"`
	Bold       bool   `json:"bold"`
	Italic     bool   `json:"italic"`
	Shadow     bool   `json:"shadow"`
	Color      Color  `json:"color"`
}

// ImageWatermark holds the fields specific to an image watermark.
// ScalePercent of 0 means no scaling.
type ImageWatermark struct {
	SourcePath   string `json:"source_path"`
	ScalePercent int    `json:"scale_percent,omitempty"`
}

// WatermarkDescriptor describes one watermark to draw. It is a tagged union:
// Type selects which of Text/Image is active.
type WatermarkDescriptor struct {
	Type            WatermarkType   `json:"type"`
	Placement       Placement       `json:"placement"`
	Opacity         int             `json:"opacity"` // 0-100
	RotationDegrees float64         `json:"rotation_degrees,omitempty"`
	Text            *TextWatermark  `json:"text,omitempty"`
	Image           *ImageWatermark `json:"image,omitempty"`
}

// Clone returns a deep copy of the descriptor, so a snapshot taken at batch
// start cannot be reached through pointers held by the interactive layer.
func (d WatermarkDescriptor) Clone() WatermarkDescriptor {
	out := d
	if d.Placement.CustomPosition != nil {
		p := *d.Placement.CustomPosition
		out.Placement.CustomPosition = &p
	}
	if d.Text != nil {
		t := *d.Text
		out.Text = &t
	}
	if d.Image != nil {
		i := *d.Image
		out.Image = &i
	}
	return out
}
