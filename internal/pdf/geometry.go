package pdf

// Placement geometry. Field positions are captured in the browser as
// ratios of the rendered page, with the origin at the top-left corner.
// PDF user space puts the origin at the bottom-left corner, so the
// vertical coordinate has to be flipped against the page's actual
// height at stamping time. Box width/height are carried in points.

// MaxDateFontSize caps the font size used for date and text fields.
const MaxDateFontSize = 10.0

// TextLeftInset is the horizontal padding applied to text stamps so
// glyphs do not touch the field border.
const TextLeftInset = 4.0

// MapToPage converts a field's top-left ratio coordinates into PDF
// user-space coordinates of the field box's bottom-left corner, using
// the target page's real dimensions. The capture-time viewport size is
// irrelevant: only the ratios and the stored page size matter, so a
// DPI mismatch between capture and storage cannot shift the placement.
func MapToPage(xRatio, yRatio, fieldHeight, pageWidth, pageHeight float64) (x, y float64) {
	x = xRatio * pageWidth
	y = pageHeight - yRatio*pageHeight - fieldHeight
	return x, y
}

// FitScale returns the uniform scale factor that fits an image of
// imgWidth x imgHeight (points at natural size) inside the field box
// without distorting its aspect ratio. Images smaller than the box are
// scaled up; degenerate inputs yield a scale of 1.
func FitScale(imgWidth, imgHeight, boxWidth, boxHeight float64) float64 {
	if imgWidth <= 0 || imgHeight <= 0 || boxWidth <= 0 || boxHeight <= 0 {
		return 1
	}
	sx := boxWidth / imgWidth
	sy := boxHeight / imgHeight
	if sx < sy {
		return sx
	}
	return sy
}

// TextFontSize returns the font size for a text or date stamp,
// proportional to the box height but capped so short boxes do not
// overflow.
func TextFontSize(boxHeight float64) float64 {
	size := boxHeight * 0.6
	if size > MaxDateFontSize {
		return MaxDateFontSize
	}
	if size < 1 {
		return 1
	}
	return size
}

// TextOrigin positions a text baseline inside a field box whose
// bottom-left corner sits at (x, y): a small left inset and vertical
// centering of the glyph height within the box.
func TextOrigin(x, y, boxHeight, fontSize float64) (tx, ty float64) {
	tx = x + TextLeftInset
	ty = y + (boxHeight-fontSize)/2
	return tx, ty
}

// RatioFromPage is the inverse of MapToPage: given a box's bottom-left
// PDF coordinates and the page size, recover the capture-time ratios.
// Used to verify placements in tests and by the layout endpoint when
// echoing stored geometry.
func RatioFromPage(x, y, fieldHeight, pageWidth, pageHeight float64) (xRatio, yRatio float64) {
	if pageWidth <= 0 || pageHeight <= 0 {
		return 0, 0
	}
	xRatio = x / pageWidth
	yRatio = (pageHeight - y - fieldHeight) / pageHeight
	return xRatio, yRatio
}
