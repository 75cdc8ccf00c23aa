package vision

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"
)

const maxTextHint = 4000

// firstPageText returns the plain text of page one, or "" when the PDF cannot
// be read. The pdf library panics on some malformed inputs.
func firstPageText(data []byte) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil || r.NumPage() < 1 {
		return ""
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return ""
	}
	plain, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return truncateRunes(strings.TrimSpace(plain), maxTextHint)
}
