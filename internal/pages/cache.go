// Package pages holds the single resident review page of a job and loads
// replacements for it. A load fetches page text and page image concurrently
// and becomes visible only if both succeed and no newer load or reset has
// happened in the meantime.
package pages

import "fmt"

// Ticket identifies one navigation request issued by Begin.
type Ticket struct {
	seq   uint64
	jobID string
	page  int
}

// JobID returns the job the ticket was issued for.
func (t Ticket) JobID() string { return t.jobID }

// Page returns the requested page number.
func (t Ticket) Page() int { return t.page }

// Cache is not safe for concurrent use; its owner serializes access.
type Cache struct {
	jobID   string
	total   int
	record  *Record
	mode    Mode
	seq     uint64
	loading bool
}

// NewCache creates an unbound cache in translated edit mode.
func NewCache() *Cache {
	return &Cache{mode: ModeTranslated}
}

// Bind points the cache at a job with a known page count, dropping any
// resident page and invalidating loads in flight.
func (c *Cache) Bind(jobID string, total int) {
	c.jobID = jobID
	c.total = max(total, 0)
	c.record = nil
	c.loading = false
	c.seq++
}

// Clear unbinds the cache and restores the default edit mode.
func (c *Cache) Clear() {
	c.Bind("", 0)
	c.mode = ModeTranslated
}

// Total returns the page count of the bound job.
func (c *Cache) Total() int { return c.total }

// Loading reports whether the latest issued load has not resolved.
func (c *Cache) Loading() bool { return c.loading }

// Mode returns the current edit mode.
func (c *Cache) Mode() Mode { return c.mode }

// SetMode changes which text variant is edited and saved.
func (c *Cache) SetMode(m Mode) { c.mode = m }

// Begin validates a navigation target and issues a ticket for it.
// Out-of-range targets are rejected without issuing a ticket.
func (c *Cache) Begin(page int) (Ticket, error) {
	if c.jobID == "" {
		return Ticket{}, ErrNotBound
	}
	if page < 1 || page > c.total {
		return Ticket{}, fmt.Errorf("%w: %d not in [1, %d]", ErrPageOutOfRange, page, c.total)
	}
	return c.issue(page), nil
}

// BeginFirst issues a ticket for page 1 regardless of the known page count.
// It backs the default landing page when review starts.
func (c *Cache) BeginFirst() (Ticket, error) {
	if c.jobID == "" {
		return Ticket{}, ErrNotBound
	}
	return c.issue(1), nil
}

func (c *Cache) issue(page int) Ticket {
	c.seq++
	c.loading = true
	return Ticket{seq: c.seq, jobID: c.jobID, page: page}
}

// Commit makes rec the resident page if t is still the latest ticket for the
// bound job. It reports whether the record became visible.
func (c *Cache) Commit(t Ticket, rec *Record) bool {
	if t.seq != c.seq || t.jobID != c.jobID {
		return false
	}
	c.record = rec
	c.loading = false
	return true
}

// Abort resolves a failed load. The resident page is left untouched.
func (c *Cache) Abort(t Ticket) {
	if t.seq == c.seq {
		c.loading = false
	}
}

// Current returns a copy of the resident page, or nil.
func (c *Cache) Current() *Record {
	if c.record == nil {
		return nil
	}
	return c.record.clone()
}

// Neighbor returns the page number offset from the resident page.
// With no resident page the origin is page 1.
func (c *Cache) Neighbor(offset int) int {
	if c.record == nil {
		return 1
	}
	return c.record.PageNumber + offset
}

// Edit replaces the mode-selected text of the resident page.
func (c *Cache) Edit(text string) error {
	if c.record == nil {
		return ErrNoPage
	}
	if c.record.Text(c.mode) == text {
		return nil
	}
	c.record.setText(c.mode, text)
	c.record.Unsaved = true
	return nil
}

// Unsaved reports whether the resident page carries edits not yet saved.
func (c *Cache) Unsaved() bool {
	return c.record != nil && c.record.Unsaved
}

// MarkSaved clears the unsaved flag when the resident page still holds the
// text that was pushed. Edits made while the save was in flight stay unsaved.
func (c *Cache) MarkSaved(jobID string, page int, mode Mode, text string) {
	if c.record == nil || c.record.JobID != jobID || c.record.PageNumber != page {
		return
	}
	if c.record.Text(mode) == text {
		c.record.Unsaved = false
	}
}
