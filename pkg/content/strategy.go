package content

import (
	"context"
	"fmt"
)

// Strategy is one way of obtaining article text for a URL.
type Strategy interface {
	// Label prefixes this strategy's entries in the error log.
	Label() string
	Method() Method
	Acquire(ctx context.Context, targetURL string) (*Extraction, error)
}

type pageReader struct {
	client    *Client
	extractor *Extractor
	pdf       *PDFParser
}

func (r *pageReader) read(ctx context.Context, fetchURL, targetURL string, unwrap func([]byte) ([]byte, error)) (*Extraction, error) {
	page, err := r.client.Fetch(ctx, fetchURL)
	if err != nil {
		return nil, err
	}

	body := page.Body
	if unwrap != nil {
		if body, err = unwrap(body); err != nil {
			return nil, err
		}
	}

	if IsPDF(page.ContentType) && unwrap == nil {
		return r.pdf.Extract(body, targetURL)
	}
	return r.extractor.Extract(body, targetURL)
}

type directStrategy struct {
	reader *pageReader
}

func (s *directStrategy) Label() string  { return "Direct fetch" }
func (s *directStrategy) Method() Method { return MethodDirectFetch }

func (s *directStrategy) Acquire(ctx context.Context, targetURL string) (*Extraction, error) {
	return s.reader.read(ctx, targetURL, targetURL, nil)
}

type proxyStrategy struct {
	n      int
	proxy  Proxy
	reader *pageReader
}

func (s *proxyStrategy) Label() string  { return fmt.Sprintf("Proxy %d", s.n) }
func (s *proxyStrategy) Method() Method { return ProxyMethod(s.n) }

func (s *proxyStrategy) Acquire(ctx context.Context, targetURL string) (*Extraction, error) {
	var unwrap func([]byte) ([]byte, error)
	if s.proxy.Mode == ProxyModeJSON {
		unwrap = s.proxy.Unwrap
	}
	return s.reader.read(ctx, s.proxy.RequestURL(targetURL), targetURL, unwrap)
}
