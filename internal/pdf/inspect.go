package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const previewLimit = 280

// DocumentInfo summarizes an uploaded document: page count plus a
// short plain-text preview used in notification emails.
type DocumentInfo struct {
	Pages   int
	Preview string
}

// Inspect parses an in-memory PDF and extracts its page count and a
// text preview. Pages that fail text extraction are ignored; a
// document that parses but yields no text still inspects successfully
// (scanned documents are common).
func Inspect(document []byte) (*DocumentInfo, error) {
	r, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	info := &DocumentInfo{Pages: r.NumPage()}

	var builder strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(content)
		if builder.Len() >= previewLimit {
			break
		}
	}

	info.Preview = collapseWhitespace(builder.String(), previewLimit)
	return info, nil
}

func collapseWhitespace(s string, limit int) string {
	fields := strings.Fields(s)
	joined := strings.Join(fields, " ")
	if len(joined) > limit {
		joined = joined[:limit]
	}
	return joined
}
