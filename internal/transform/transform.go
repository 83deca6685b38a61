// Package transform tracks how a page image is presented: zoom, rotation, and
// pan. It has no I/O; the pan bound is computed by the pure Clamp function.
package transform

const (
	MinZoom      = 0.5
	MaxZoom      = 3.0
	ZoomStep     = 0.25
	RotationStep = 90
)

// Vec is a 2D offset in viewport pixels.
type Vec struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width and height in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (s Size) empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// State is the presentation transform of the resident page image.
// Rotation is signed and kept in (-360, 360) so the direction of travel survives.
type State struct {
	Zoom     float64 `json:"zoom"`
	Rotation int     `json:"rotation"`
	Pan      Vec     `json:"pan"`
	Dragging bool    `json:"dragging"`

	image    Size
	viewport Size
	anchor   Vec
}

// Identity returns the untransformed state.
func Identity() State {
	return State{Zoom: 1}
}

// Reset returns to identity for a newly loaded image of the given natural size.
// The viewport is kept.
func (s *State) Reset(image Size) {
	viewport := s.viewport
	*s = Identity()
	s.viewport = viewport
	s.image = image
}

// Image returns the natural size of the current image.
func (s *State) Image() Size { return s.image }

// Viewport returns the last reported viewport size.
func (s *State) Viewport() Size { return s.viewport }

// SetViewport records the viewport size and re-clamps the pan offset.
func (s *State) SetViewport(viewport Size) {
	s.viewport = viewport
	s.clampPan()
}

// ZoomIn increases zoom by one step, up to MaxZoom.
func (s *State) ZoomIn() { s.SetZoom(s.Zoom + ZoomStep) }

// ZoomOut decreases zoom by one step, down to MinZoom.
func (s *State) ZoomOut() { s.SetZoom(s.Zoom - ZoomStep) }

// SetZoom clamps zoom to [MinZoom, MaxZoom] and re-clamps the pan offset.
func (s *State) SetZoom(zoom float64) {
	s.Zoom = min(max(zoom, MinZoom), MaxZoom)
	s.clampPan()
}

// RotateLeft turns the image a quarter turn counterclockwise.
func (s *State) RotateLeft() { s.rotate(-1) }

// RotateRight turns the image a quarter turn clockwise.
func (s *State) RotateRight() { s.rotate(1) }

func (s *State) rotate(dir int) {
	s.Rotation = (s.Rotation + dir*RotationStep) % 360
	s.clampPan()
}

// Press begins a drag at p. It is ignored unless the image is zoomed in.
func (s *State) Press(p Vec) bool {
	if s.Zoom <= 1 {
		return false
	}
	s.Dragging = true
	s.anchor = Vec{X: p.X - s.Pan.X, Y: p.Y - s.Pan.Y}
	return true
}

// Move updates the pan offset while dragging.
func (s *State) Move(p Vec) bool {
	if !s.Dragging {
		return false
	}
	s.Pan = Vec{X: p.X - s.anchor.X, Y: p.Y - s.anchor.Y}
	s.clampPan()
	return true
}

// Release ends a drag. It is safe to call when no drag is active, which covers
// release events delivered outside the viewport.
func (s *State) Release() {
	s.Dragging = false
	s.anchor = Vec{}
}

func (s *State) clampPan() {
	s.Pan = Clamp(s.Pan, s.Zoom, s.orientedImage(), s.viewport)
	if s.Zoom <= 1 {
		s.Release()
	}
}

// orientedImage swaps width and height for odd quarter turns.
func (s *State) orientedImage() Size {
	if (s.Rotation/RotationStep)%2 != 0 {
		return Size{Width: s.image.Height, Height: s.image.Width}
	}
	return s.image
}

// Clamp bounds pan so the zoomed image keeps covering the viewport center.
// The image is first fitted inside the viewport, then scaled by zoom; on each
// axis the offset may not exceed half the overflow past the viewport edge.
// With zoom <= 1 or unknown sizes the only valid offset is the origin.
func Clamp(pan Vec, zoom float64, image, viewport Size) Vec {
	if zoom <= 1 || image.empty() || viewport.empty() {
		return Vec{}
	}

	fit := min(viewport.Width/image.Width, viewport.Height/image.Height)
	shown := Size{
		Width:  image.Width * fit * zoom,
		Height: image.Height * fit * zoom,
	}

	limitX := max((shown.Width-viewport.Width)/2, 0)
	limitY := max((shown.Height-viewport.Height)/2, 0)

	return Vec{
		X: min(max(pan.X, -limitX), limitX),
		Y: min(max(pan.Y, -limitY), limitY),
	}
}
