package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"

	"jobportal/backend/internal/models"
)

var ErrUnreadablePDF = errors.New("document is not a readable PDF")

// DocumentInspector checks an upload's content before it is stored.
type DocumentInspector interface {
	Inspect(upload *models.Upload) error
}

type pdfInspector struct{}

func NewPDFInspector() DocumentInspector {
	return &pdfInspector{}
}

// Inspect only looks at .pdf uploads. Word documents pass through.
func (p *pdfInspector) Inspect(upload *models.Upload) error {
	if upload.Ext() != ".pdf" {
		return nil
	}

	src, err := upload.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	pages, err := countPages(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadablePDF, err)
	}
	if pages == 0 {
		return fmt.Errorf("%w: no pages", ErrUnreadablePDF)
	}
	return nil
}

func countPages(data []byte) (n int, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, err
	}
	return r.NumPage(), nil
}
