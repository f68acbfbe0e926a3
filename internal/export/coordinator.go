// Package export drives the batch pipeline: it validates the destination,
// walks the input list in order, renders each file through the compositor and
// writes the result, isolating per-file failures so one bad image never
// aborts the batch.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/aliskhannn/watermarkd/internal/model"
	"github.com/aliskhannn/watermarkd/internal/watermark/compositor"
	"github.com/aliskhannn/watermarkd/internal/watermark/fontres"
)

var (
	// ErrOutputFolderMissing is returned when the output folder does not exist.
	ErrOutputFolderMissing = errors.New("output folder does not exist")

	// ErrSameDirectory is returned when the output folder coincides with the
	// directory of one of the input files. Exporting in place would overwrite
	// sources, so the whole batch is rejected before any write.
	ErrSameDirectory = errors.New("output folder matches a source directory")
)

// ProgressFunc receives one notification per job attempt. current is 1-based.
type ProgressFunc func(current, total int, filename string)

// Coordinator runs export batches. It is stateless apart from its
// collaborators and safe to reuse across batches.
type Coordinator struct {
	resolver *fontres.Resolver
	viewport image.Point
}

// New creates a Coordinator. viewport is the preview viewport size; custom
// watermark positions are interpreted against it, which is what guarantees
// the export lands where the preview showed it.
func New(resolver *fontres.Resolver, viewport image.Point) *Coordinator {
	return &Coordinator{resolver: resolver, viewport: viewport}
}

// Validate checks the batch preconditions: the output folder must exist and
// must differ from the containing directory of every input file. Returns nil
// when the batch may run.
func (c *Coordinator) Validate(files []string, outputFolder string) error {
	info, err := os.Stat(outputFolder)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrOutputFolderMissing, outputFolder)
	}

	out, err := canonical(outputFolder)
	if err != nil {
		return fmt.Errorf("resolve output folder: %w", err)
	}

	for _, f := range files {
		dir, err := canonical(filepath.Dir(f))
		if err != nil {
			// An input in a nonexistent directory fails at decode time, not
			// during validation.
			continue
		}
		if dir == out {
			return fmt.Errorf("%w: %s", ErrSameDirectory, f)
		}
	}
	return nil
}

// Run executes one batch with the frozen settings snapshot. Validation
// failures are fatal and reported through the error return with zero files
// written; per-file decode and encode failures only populate the result.
// The font passed in is reused verbatim when non-nil so export draws with the
// exact glyph source the preview resolved; otherwise it is resolved once for
// the whole batch.
func (c *Coordinator) Run(ctx context.Context, files []string, outputFolder string, s model.ExportSettings, rf *fontres.ResolvedFont, onProgress ProgressFunc) (model.ExportResult, error) {
	var res model.ExportResult

	if err := c.Validate(files, outputFolder); err != nil {
		return res, err
	}

	if rf == nil {
		rf = c.resolveFont(s)
	}

	total := len(files)
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		name := filepath.Base(path)
		if err := c.exportOne(path, outputFolder, s, rf, &res); err != nil {
			res.ErrorCount++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", name, err))
		} else {
			res.SuccessCount++
		}

		if onProgress != nil {
			onProgress(i+1, total, name)
		}
	}

	return res, nil
}

func (c *Coordinator) exportOne(path, outputFolder string, s model.ExportSettings, rf *fontres.ResolvedFont, res *model.ExportResult) error {
	src, err := imaging.Open(path)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	out := compositor.Render(src, s.Watermark, rf, c.viewport)

	name := OutputFilename(path, s)
	dstPath := filepath.Join(outputFolder, name)

	if s.Format == model.FormatJPEG {
		out = flattenWhite(out)
	}

	if err := encode(dstPath, out, s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	res.Written = append(res.Written, name)
	return nil
}

// OutputFilename derives the output filename from the input path, the naming
// rule and the target format. JPEG remaps .png/.bmp/.tiff/.tif sources to
// .jpg; PNG always forces .png.
func OutputFilename(path string, s model.ExportSettings) string {
	ext := strings.ToLower(filepath.Ext(path))
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch s.Format {
	case model.FormatJPEG:
		switch ext {
		case ".png", ".bmp", ".tiff", ".tif":
			ext = ".jpg"
		}
	case model.FormatPNG:
		ext = ".png"
	}

	switch s.NamingRule {
	case model.NamingPrefix:
		return s.NamingAffix + base + ext
	case model.NamingSuffix:
		return base + s.NamingAffix + ext
	default:
		return base + ext
	}
}

func (c *Coordinator) resolveFont(s model.ExportSettings) *fontres.ResolvedFont {
	t := s.Watermark.Text
	if s.Watermark.Type != model.WatermarkText || t == nil || t.Content == "" {
		return nil
	}
	return c.resolver.Resolve(t.FontFamily, t.FontSizePx, t.Bold, t.Italic, t.Content)
}

func encode(path string, img *image.NRGBA, s model.ExportSettings) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var encErr error
	if s.Format == model.FormatJPEG {
		encErr = imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(quality(s.Quality)))
	} else {
		encErr = imaging.Encode(f, img, imaging.PNG)
	}

	if cerr := f.Close(); encErr == nil {
		encErr = cerr
	}
	return encErr
}

// flattenWhite flattens the alpha channel onto an opaque white background for
// formats that cannot carry transparency.
func flattenWhite(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.NRGBA{255, 255, 255, 255})
	return imaging.Overlay(bg, img, image.Point{}, 1.0)
}

func quality(q int) int {
	if q < 1 || q > 100 {
		return 85
	}
	return q
}

// canonical returns an absolute, symlink-resolved form of dir for directory
// identity comparison.
func canonical(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", err
	}
	return filepath.Clean(resolved), nil
}
