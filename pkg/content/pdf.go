package content

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

var licenseOnce sync.Once

// SetPDFLicenseKey registers a unidoc metered license key. Without one the
// PDF strategy reports an extraction error and the chain moves on.
func SetPDFLicenseKey(key string) {
	if key == "" {
		return
	}
	licenseOnce.Do(func() {
		if err := license.SetMeteredKey(key); err != nil {
			log.Printf("Warning: unidoc license rejected: %v", err)
		}
	})
}

// PDFParser extracts plain text from PDF documents served at article URLs.
type PDFParser struct {
	maxPages int
}

func NewPDFParser() *PDFParser {
	return &PDFParser{
		maxPages: 100,
	}
}

// Extract returns the document title (metadata, else derived from the URL)
// and its text, subject to the same cleaning and minimum length as HTML.
func (p *PDFParser) Extract(data []byte, sourceURL string) (*Extraction, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create PDF reader: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return nil, fmt.Errorf("get page count: %w", err)
	}
	if numPages > p.maxPages {
		numPages = p.maxPages
	}

	title := ""
	if meta, err := pdfReader.GetPdfInfo(); err == nil && meta.Title != nil {
		title = strings.TrimSpace(meta.Title.String())
	}
	if title == "" {
		title = TitleFromURL(sourceURL)
	}

	var text strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			continue
		}
		text.WriteString(pageText)
		text.WriteString("\n\n")
	}

	result := &Extraction{Title: title, Content: CleanText(text.String())}
	if runeLen(result.Content) < MinContentLength {
		return result, ErrExtractionTooShort
	}
	return result, nil
}
