// Package documents selects and validates the file a workflow uploads.
// Type is sniffed from content, size is bounded, and PDF page counts are read
// locally so obvious mistakes never reach the job engine.
package documents

// Document is a file selected for upload.
// PageCount is nil when the file is not a PDF or its page tree is unreadable.
type Document struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	PageCount   *int   `json:"page_count,omitempty"`
	Data        []byte `json:"-"`
}
