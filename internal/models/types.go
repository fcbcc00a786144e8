
package models

type Status string

const (
	StatusSaved       Status = "saved"
	StatusDenied      Status = "denied"
	StatusFetchFailed Status = "fetch_failed"
	StatusSaveFailed  Status = "save_failed"
)

// PageMeta is a short summary of an HTML body.
type PageMeta struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Canonical   string `json:"canonical,omitempty"`
	Language    string `json:"language,omitempty"`
	WordCount   int    `json:"wordCount,omitempty"`
}

// Report is what one pipeline run returns to a programmatic caller.
type Report struct {
	URL        string    `json:"url"`
	Status     Status    `json:"status"`
	Allowed    bool      `json:"allowed"`
	Outcome    string    `json:"outcome,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	FinalURL   string    `json:"finalUrl,omitempty"`
	Bytes      int       `json:"bytes,omitempty"`
	FetchMs    int64     `json:"fetchMs,omitempty"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	Page       *PageMeta `json:"page,omitempty"`
}
