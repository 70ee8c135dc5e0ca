package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const coordTolerance = 1e-9

func TestMapToPage(t *testing.T) {
	tests := []struct {
		name        string
		xRatio      float64
		yRatio      float64
		fieldHeight float64
		pageWidth   float64
		pageHeight  float64
		wantX       float64
		wantY       float64
	}{
		{
			name:   "top_left_corner",
			xRatio: 0, yRatio: 0, fieldHeight: 50,
			pageWidth: 612, pageHeight: 792,
			wantX: 0, wantY: 742,
		},
		{
			name:   "near_bottom",
			xRatio: 0.1, yRatio: 0.8, fieldHeight: 50,
			pageWidth: 612, pageHeight: 792,
			wantX: 61.2, wantY: 792 - 0.8*792 - 50,
		},
		{
			name:   "bottom_edge",
			xRatio: 1, yRatio: 1, fieldHeight: 0,
			pageWidth: 612, pageHeight: 792,
			wantX: 612, wantY: 0,
		},
		{
			name:   "a4_page_uses_its_own_dimensions",
			xRatio: 0.5, yRatio: 0.5, fieldHeight: 40,
			pageWidth: 595.28, pageHeight: 841.89,
			wantX: 297.64, wantY: 841.89/2 - 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := MapToPage(tt.xRatio, tt.yRatio, tt.fieldHeight, tt.pageWidth, tt.pageHeight)
			assert.InDelta(t, tt.wantX, x, coordTolerance)
			assert.InDelta(t, tt.wantY, y, coordTolerance)
		})
	}
}

// The mapping must round-trip: stamping at the computed position and
// reading the position back yields the original ratios.
func TestMapToPageRoundTrip(t *testing.T) {
	pageSizes := []struct{ w, h float64 }{
		{612, 792},
		{595.28, 841.89},
		{1000, 250},
	}
	ratios := []struct{ x, y float64 }{
		{0, 0}, {0.1, 0.8}, {0.25, 0.33}, {0.5, 0.5}, {0.99, 0.01}, {1, 1},
	}

	for _, size := range pageSizes {
		for _, r := range ratios {
			const fieldHeight = 50.0
			x, y := MapToPage(r.x, r.y, fieldHeight, size.w, size.h)
			gotX, gotY := RatioFromPage(x, y, fieldHeight, size.w, size.h)
			assert.InDelta(t, r.x, gotX, 1e-9, "xRatio for page %vx%v", size.w, size.h)
			assert.InDelta(t, r.y, gotY, 1e-9, "yRatio for page %vx%v", size.w, size.h)
		}
	}
}

func TestFitScale(t *testing.T) {
	tests := []struct {
		name                     string
		imgW, imgH, boxW, boxH   float64
		want                     float64
	}{
		{name: "wide_image_limited_by_width", imgW: 300, imgH: 100, boxW: 150, boxH: 100, want: 0.5},
		{name: "tall_image_limited_by_height", imgW: 100, imgH: 200, boxW: 150, boxH: 50, want: 0.25},
		{name: "small_image_scaled_up", imgW: 50, imgH: 25, boxW: 150, boxH: 100, want: 3},
		{name: "degenerate_image_defaults_to_one", imgW: 0, imgH: 100, boxW: 150, boxH: 50, want: 1},
		{name: "degenerate_box_defaults_to_one", imgW: 100, imgH: 100, boxW: 0, boxH: 50, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, FitScale(tt.imgW, tt.imgH, tt.boxW, tt.boxH), coordTolerance)
		})
	}
}

func TestTextFontSize(t *testing.T) {
	tests := []struct {
		name      string
		boxHeight float64
		want      float64
	}{
		{name: "tall_box_capped_at_max", boxHeight: 100, want: 10},
		{name: "short_box_scales_down", boxHeight: 10, want: 6},
		{name: "tiny_box_floors_at_one", boxHeight: 1, want: 1},
		{name: "boundary_box", boxHeight: 10.0 / 0.6, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TextFontSize(tt.boxHeight), coordTolerance)
		})
	}
}

func TestTextOrigin(t *testing.T) {
	tx, ty := TextOrigin(100, 200, 20, 10)
	assert.InDelta(t, 100+TextLeftInset, tx, coordTolerance)
	assert.InDelta(t, 205.0, ty, coordTolerance) // vertically centered
}
