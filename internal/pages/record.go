package pages

// Image is a decoded page bitmap. Encoded keeps the payload exactly as the
// engine delivered it. Width and Height are zero when the format is unknown.
type Image struct {
	Encoded     string `json:"-"`
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
}

// Record is the resident page. RawText and TranslatedText are the local
// working copies; Unsaved is set once either diverges from what was last
// fetched or saved.
type Record struct {
	JobID          string   `json:"job_id"`
	PageNumber     int      `json:"page_number"`
	RawText        string   `json:"raw_text"`
	TranslatedText string   `json:"translated_text"`
	FormData       FormData `json:"form_data,omitempty"`
	Image          Image    `json:"image"`
	Unsaved        bool     `json:"unsaved"`
}

// Text returns the variant selected by mode.
func (r *Record) Text(mode Mode) string {
	if mode == ModeRaw {
		return r.RawText
	}
	return r.TranslatedText
}

func (r *Record) setText(mode Mode, text string) {
	if mode == ModeRaw {
		r.RawText = text
		return
	}
	r.TranslatedText = text
}

func (r *Record) clone() *Record {
	c := *r
	return &c
}
