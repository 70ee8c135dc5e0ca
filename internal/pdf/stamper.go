package pdf

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// StampKind distinguishes image stamps from text stamps.
type StampKind string

const (
	StampImage StampKind = "image"
	StampText  StampKind = "text"
)

// Stamp describes one piece of content to draw onto a page. Position
// is given in capture-time ratio coordinates; the stamper resolves the
// absolute position against the page's stored dimensions.
type Stamp struct {
	Kind   StampKind
	Page   int // 1-based
	XRatio float64
	YRatio float64
	Width  float64 // box size in points
	Height float64

	ImagePNG []byte // StampImage: decoded PNG bytes
	Text     string // StampText: string to draw
}

// StampResult reports what a stamping pass actually did.
type StampResult struct {
	Document []byte
	Applied  int
	Skipped  int // stamps whose page was out of range
}

// Stamper draws signature images and text onto PDF pages using pdfcpu
// watermarks in absolute positioning mode.
type Stamper struct {
	conf *model.Configuration
}

// NewStamper creates a stamper with relaxed validation, so documents
// produced by the long tail of browser print pipelines still open.
func NewStamper() *Stamper {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Stamper{conf: conf}
}

// Stamp applies every stamp to the document and returns the rewritten
// bytes. Stamps addressing pages outside [1, pageCount] are counted as
// skipped rather than failing the pass; everything else is fatal and
// leaves the input untouched.
func (s *Stamper) Stamp(document []byte, stamps []Stamp) (*StampResult, error) {
	ctx, err := api.ReadContext(bytes.NewReader(document), s.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to ensure page count: %w", err)
	}
	dims, err := ctx.PageDims()
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	pageCount := ctx.PageCount
	if pageCount == 0 || len(dims) < pageCount {
		return nil, fmt.Errorf("document has no pages")
	}

	result := &StampResult{Document: document}
	for _, st := range stamps {
		if st.Page < 1 || st.Page > pageCount {
			result.Skipped++
			continue
		}
		dim := dims[st.Page-1]

		var wm *model.Watermark
		switch st.Kind {
		case StampImage:
			wm, err = s.imageWatermark(st, dim)
		case StampText:
			wm, err = s.textWatermark(st, dim)
		default:
			err = fmt.Errorf("unknown stamp kind %q", st.Kind)
		}
		if err != nil {
			return nil, err
		}

		var out bytes.Buffer
		pages := []string{strconv.Itoa(st.Page)}
		if err := api.AddWatermarks(bytes.NewReader(result.Document), &out, pages, wm, s.conf); err != nil {
			return nil, fmt.Errorf("failed to stamp page %d: %w", st.Page, err)
		}
		result.Document = out.Bytes()
		result.Applied++
	}

	return result, nil
}

// imageWatermark builds an absolute-positioned image watermark scaled
// to fit the field box. pdfcpu reads image watermarks from a file, so
// the PNG is spooled to a scratch file that is removed once the
// watermark has been parsed.
func (s *Stamper) imageWatermark(st Stamp, dim types.Dim) (*model.Watermark, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(st.ImagePNG))
	if err != nil {
		return nil, fmt.Errorf("invalid PNG for page %d stamp: %w", st.Page, err)
	}

	tmp, err := os.CreateTemp("", "pensign-stamp-*.png")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(st.ImagePNG); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write scratch file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to close scratch file: %w", err)
	}

	scale := FitScale(float64(cfg.Width), float64(cfg.Height), st.Width, st.Height)
	desc := fmt.Sprintf("scale:%.4f abs, pos:bl, rot:0, op:1", scale)
	wm, err := pdfcpu.ParseImageWatermarkDetails(tmp.Name(), desc, true, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to parse image watermark: %w", err)
	}

	wm.Dx, wm.Dy = MapToPage(st.XRatio, st.YRatio, st.Height, dim.Width, dim.Height)
	return wm, nil
}

// textWatermark builds an absolute-positioned text watermark with a
// font size derived from the field box height.
func (s *Stamper) textWatermark(st Stamp, dim types.Dim) (*model.Watermark, error) {
	if st.Text == "" {
		return nil, fmt.Errorf("empty text for page %d stamp", st.Page)
	}

	fontSize := TextFontSize(st.Height)
	desc := fmt.Sprintf("font:Helvetica, points:%d, scale:1 abs, pos:bl, rot:0, op:1, fillc:#000000",
		int(fontSize))
	wm, err := pdfcpu.ParseTextWatermarkDetails(st.Text, desc, true, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("failed to parse text watermark: %w", err)
	}

	x, y := MapToPage(st.XRatio, st.YRatio, st.Height, dim.Width, dim.Height)
	wm.Dx, wm.Dy = TextOrigin(x, y, st.Height, fontSize)
	return wm, nil
}
