package backend

import (
	"encoding/json"
	"io"

	"github.com/JaimeStill/scribe/internal/jobs"
)

// UploadResult is the engine's acknowledgement of an upload.
type UploadResult struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// PageContent is the text payload for a single page.
// FormData is passed through undecoded; the pages package normalizes it.
type PageContent struct {
	PageNumber     int            `json:"page_number"`
	RawText        string         `json:"raw_text"`
	TranslatedText string         `json:"translated_text"`
	FormData       map[string]any `json:"form_data,omitempty"`
}

// Download is an open report file stream. The caller must close Body.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
	Size        int64
}

type statusResponse struct {
	SessionID      string  `json:"session_id"`
	Status         string  `json:"status"`
	Message        string  `json:"message"`
	Progress       float64 `json:"progress"`
	CurrentStage   string  `json:"current_stage"`
	TotalPages     int     `json:"total_pages"`
	ProcessedPages int     `json:"processed_pages"`
	FinalOutput    *string `json:"final_output"`
}

func (r statusResponse) toJobStatus() (jobs.JobStatus, error) {
	status, err := jobs.ParseStatus(r.Status)
	if err != nil {
		return jobs.JobStatus{}, err
	}
	return jobs.JobStatus{
		Status:         status,
		Message:        r.Message,
		Progress:       r.Progress,
		CurrentStage:   r.CurrentStage,
		TotalPages:     r.TotalPages,
		ProcessedPages: r.ProcessedPages,
		FinalOutput:    r.FinalOutput,
	}, nil
}

type imageResponse struct {
	Image string `json:"image"`
}

type pageUpdateRequest struct {
	PageNumber int    `json:"page_number"`
	EditedText string `json:"edited_text"`
}

type reportRequest struct {
	SessionID  string `json:"session_id"`
	ClientName string `json:"client_name,omitempty"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// message flattens FastAPI's detail, which is either a string or a list of
// validation entries.
func (r errorResponse) message() string {
	var s string
	if err := json.Unmarshal(r.Detail, &s); err == nil {
		return s
	}
	return string(r.Detail)
}
