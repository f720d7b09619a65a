package source

import (
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var errEmptyPDFPath = errors.New("pdf path is empty")

// LoadPDFPages extracts the plain text of each page of the PDF at path.
// Pages whose text cannot be decoded come back empty rather than failing the
// whole document; scanned pages routinely have no text layer.
func LoadPDFPages(path string) ([]string, error) {
	if path == "" {
		return nil, errEmptyPDFPath
	}

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer file.Close()

	total := reader.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}
