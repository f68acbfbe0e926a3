// Package fontres resolves a font request (family, style, sample text) to a
// concrete glyph source. Resolution never fails: when nothing matches, the
// embedded Go Regular face is used. Results are cached so that preview and
// export always reuse the identical glyph source for the same request.
package fontres

import (
	"os"
	"strings"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

// ResolvedFont is a concrete glyph source plus flags telling whether the
// requested bold/italic styles are genuinely available. When a style flag is
// false the compositor synthesizes the style instead.
type ResolvedFont struct {
	Font          *truetype.Font
	Path          string // empty for the built-in default
	SizePx        int
	HasRealBold   bool
	HasRealItalic bool
}

// Face builds a font.Face for the resolved glyph source at its size.
func (rf *ResolvedFont) Face() font.Face {
	return truetype.NewFace(rf.Font, &truetype.Options{Size: float64(rf.SizePx)})
}

// variantSet names the font files for the four style variants of one family.
// Empty entries mean the variant does not exist for that family.
type variantSet struct {
	regular    string
	bold       string
	italic     string
	boldItalic string
}

// familyVariants is the static family to variant-file table. File names are
// searched across platform font directories, so Windows and Linux spellings
// coexist here.
var familyVariants = map[string]variantSet{
	"Microsoft YaHei":   {regular: "msyh.ttc", bold: "msyhbd.ttc"},
	"SimSun":            {regular: "simsun.ttc"},
	"SimHei":            {regular: "simhei.ttf"},
	"Arial":             {regular: "arial.ttf", bold: "arialbd.ttf", italic: "ariali.ttf", boldItalic: "arialbi.ttf"},
	"Times New Roman":   {regular: "times.ttf", bold: "timesbd.ttf", italic: "timesi.ttf", boldItalic: "timesbi.ttf"},
	"DejaVu Sans":       {regular: "DejaVuSans.ttf", bold: "DejaVuSans-Bold.ttf", italic: "DejaVuSans-Oblique.ttf", boldItalic: "DejaVuSans-BoldOblique.ttf"},
	"Noto Sans CJK SC":  {regular: "NotoSansCJK-Regular.ttc", bold: "NotoSansCJK-Bold.ttc"},
	"WenQuanYi Zen Hei": {regular: "wqy-zenhei.ttc"},
}

// cjkFallback is tried before the requested family whenever the sample text
// contains CJK codepoints: glyph coverage wins over the user's family choice.
var cjkFallback = []string{
	"Microsoft YaHei",
	"SimSun",
	"SimHei",
	"Noto Sans CJK SC",
	"WenQuanYi Zen Hei",
}

type cacheKey struct {
	family string
	bold   bool
	italic bool
	cjk    bool
}

type cacheEntry struct {
	font          *truetype.Font
	path          string
	hasRealBold   bool
	hasRealItalic bool
}

// Resolver caches font resolution per (family, bold, italic, cjk) key. The
// cached identity is a correctness invariant: a preview and the export that
// follows it must draw with the same glyph source.
type Resolver struct {
	mu     sync.Mutex
	cache  map[cacheKey]*cacheEntry
	parsed map[string]*truetype.Font // path -> parsed font

	def *truetype.Font
}

// NewResolver builds a resolver with the embedded default face preloaded.
func NewResolver() *Resolver {
	def, err := truetype.Parse(goregular.TTF)
	if err != nil {
		// The embedded font is a compile-time constant; this cannot happen
		// outside of a corrupted build.
		panic("fontres: parse embedded default font: " + err.Error())
	}
	return &Resolver{
		cache:  make(map[cacheKey]*cacheEntry),
		parsed: make(map[string]*truetype.Font),
		def:    def,
	}
}

// Resolve maps a font request to a concrete glyph source. sample is the text
// that will be rendered; its script drives the fallback order.
func (r *Resolver) Resolve(family string, sizePx int, bold, italic bool, sample string) *ResolvedFont {
	key := cacheKey{family: family, bold: bold, italic: italic, cjk: ContainsCJK(sample)}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.cache[key]
	if !ok {
		e = r.resolveLocked(family, bold, italic, key.cjk)
		r.cache[key] = e
	}

	return &ResolvedFont{
		Font:          e.font,
		Path:          e.path,
		SizePx:        sizePx,
		HasRealBold:   e.hasRealBold,
		HasRealItalic: e.hasRealItalic,
	}
}

// Default returns the built-in glyph source with both style flags false.
func (r *Resolver) Default(sizePx int) *ResolvedFont {
	return &ResolvedFont{Font: r.def, SizePx: sizePx}
}

func (r *Resolver) resolveLocked(family string, bold, italic, cjk bool) *cacheEntry {
	for _, fam := range searchOrder(family, cjk) {
		vs, ok := familyVariants[fam]
		if !ok {
			continue
		}
		file, realBold, realItalic := vs.selectVariant(bold, italic)
		if file == "" {
			continue
		}
		ft, path := r.loadLocked(file)
		if ft == nil {
			continue
		}
		return &cacheEntry{font: ft, path: path, hasRealBold: realBold, hasRealItalic: realItalic}
	}

	// Try the family name as a direct font-source name.
	for _, name := range []string{family, family + ".ttf"} {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if ft, path := r.loadLocked(name); ft != nil {
			return &cacheEntry{font: ft, path: path}
		}
	}

	return &cacheEntry{font: r.def}
}

// loadLocked locates a font file by name and parses it, caching parsed fonts
// by path. TrueType collections that freetype cannot parse are treated the
// same as missing files, so resolution moves on to the next candidate.
func (r *Resolver) loadLocked(file string) (*truetype.Font, string) {
	path, err := findfont.Find(file)
	if err != nil {
		return nil, ""
	}
	if ft, ok := r.parsed[path]; ok {
		return ft, path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ""
	}
	ft, err := truetype.Parse(data)
	if err != nil {
		return nil, ""
	}
	r.parsed[path] = ft
	return ft, path
}

// searchOrder builds the family search order. CJK-capable families come
// first for CJK text; the requested family is appended if not already there.
func searchOrder(family string, cjk bool) []string {
	order := make([]string, 0, len(cjkFallback)+1)
	if cjk {
		order = append(order, cjkFallback...)
	}
	for _, fam := range order {
		if fam == family {
			return order
		}
	}
	return append(order, family)
}

// selectVariant picks the variant file for the requested style, reporting
// which styles are genuinely present. Precedence: bold-italic, bold, italic,
// regular.
func (vs variantSet) selectVariant(bold, italic bool) (file string, realBold, realItalic bool) {
	if bold && italic && vs.boldItalic != "" {
		return vs.boldItalic, true, true
	}
	if bold && vs.bold != "" {
		return vs.bold, true, false
	}
	if italic && vs.italic != "" {
		return vs.italic, false, true
	}
	return vs.regular, false, false
}

// ContainsCJK reports whether s contains codepoints from the CJK Unified
// Ideographs block or its Extension A/B blocks.
func ContainsCJK(s string) bool {
	for _, r := range s {
		if (r >= 0x4E00 && r <= 0x9FFF) ||
			(r >= 0x3400 && r <= 0x4DBF) ||
			(r >= 0x20000 && r <= 0x2A6DF) {
			return true
		}
	}
	return false
}
