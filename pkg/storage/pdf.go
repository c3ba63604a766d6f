package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"
)

var pdfHeader = []byte("%PDF-")

// InspectPDF checks that data is a readable PDF with at least one page.
func InspectPDF(data []byte) (err error) {
	if !bytes.HasPrefix(data, pdfHeader) {
		return errors.New("invalid PDF: missing header")
	}

	// the parser panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("invalid PDF: %w", err)
	}
	if reader.NumPage() == 0 {
		return errors.New("invalid PDF: document has no pages")
	}
	return nil
}
