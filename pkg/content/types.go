package content

import "strconv"

// ContentType is the classification of a submitted URL.
type ContentType string

const (
	TypeArticle ContentType = "article"
	TypeVideo   ContentType = "video"
)

// Method records which acquisition strategy produced a result.
type Method string

const (
	MethodDirectFetch Method = "direct_fetch"
	MethodYouTubeURL  Method = "youtube_url"
	MethodManualInput Method = "manual_input"
)

// ProxyMethod returns the method label for the n-th proxy (1-based).
func ProxyMethod(n int) Method {
	return Method("proxy_" + strconv.Itoa(n))
}

// Result is the outcome of acquiring content for a URL. Failed results never
// carry Content; RequiresManualInput is only set once every automated
// strategy has failed.
type Result struct {
	Success   bool        `json:"success"`
	Type      ContentType `json:"type,omitempty"`
	URL       string      `json:"url"`
	Title     string      `json:"title,omitempty"`
	Content   string      `json:"content,omitempty"`
	VideoID   string      `json:"video_id,omitempty"`
	Method    Method      `json:"method,omitempty"`
	Thumbnail string      `json:"thumbnail,omitempty"`
	Source    string      `json:"source,omitempty"`

	Error               string   `json:"error,omitempty"`
	Errors              []string `json:"errors,omitempty"`
	RequiresManualInput bool     `json:"requires_manual_input,omitempty"`
}

// Extraction is the title and body text pulled out of a document.
type Extraction struct {
	Title   string
	Content string
}

// FetchedPage is a raw response body from a direct or proxied fetch.
type FetchedPage struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}
