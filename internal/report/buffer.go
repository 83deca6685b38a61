// Package report holds a generated report as two slots: the canonical text
// fetched from the job engine and a locally editable copy. A dirty editable
// copy is never overwritten by a later fetch.
package report

// DefaultCanonical stands in for a successful job that returned no report text.
const DefaultCanonical = "Report generated successfully!"

// Buffer is not safe for concurrent use; its owner serializes access.
type Buffer struct {
	canonical string
	editable  string
	fetched   bool
	editing   bool
}

// Snapshot is a read-only copy of a Buffer.
type Snapshot struct {
	Canonical string `json:"canonical"`
	Editable  string `json:"editable"`
	Dirty     bool   `json:"dirty"`
	Editing   bool   `json:"editing"`
}

// Fetch installs server-authoritative text. The editable copy follows only
// when it has not diverged. It reports whether the editable copy was replaced.
func (b *Buffer) Fetch(canonical string) bool {
	dirty := b.Dirty()
	b.canonical = canonical
	b.fetched = true
	if dirty {
		return false
	}
	b.editable = canonical
	return true
}

// Edit overwrites the editable copy. Canonical text is untouched.
func (b *Buffer) Edit(text string) {
	b.editable = text
}

// Revert discards local edits.
func (b *Buffer) Revert() {
	b.editable = b.canonical
}

// ToggleEditMode flips the presentation edit flag and returns the new value.
// It persists nothing.
func (b *Buffer) ToggleEditMode() bool {
	b.editing = !b.editing
	return b.editing
}

// Reset discards both slots.
func (b *Buffer) Reset() {
	*b = Buffer{}
}

// Fetched reports whether canonical text has been installed.
func (b *Buffer) Fetched() bool { return b.fetched }

// Canonical returns the last fetched text.
func (b *Buffer) Canonical() string { return b.canonical }

// Editable returns the local copy.
func (b *Buffer) Editable() string { return b.editable }

// Editing reports the presentation edit flag.
func (b *Buffer) Editing() bool { return b.editing }

// Dirty reports whether the editable copy differs from canonical text.
func (b *Buffer) Dirty() bool {
	return b.editable != b.canonical
}

// Snapshot returns a copy for readers, or nil before the first fetch.
func (b *Buffer) Snapshot() *Snapshot {
	if !b.fetched {
		return nil
	}
	return &Snapshot{
		Canonical: b.canonical,
		Editable:  b.editable,
		Dirty:     b.Dirty(),
		Editing:   b.editing,
	}
}
