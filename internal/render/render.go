// Package render defines the draw primitives the daemon hands to a renderer.
// The daemon computes geometry and emits frames; it never draws anything
// itself.
package render

// Color is an RGBA color with components in [0, 1].
type Color [4]float32

// Rect is an axis-aligned rectangle in surface coordinates.
type Rect struct {
	X      float32
	Y      float32
	Width  float32
	Height float32
}

// Contains reports whether the point (x, y) lies inside the rectangle.
func (r Rect) Contains(x, y float32) bool {
	return x >= r.X && x < r.X+r.Width && y >= r.Y && y < r.Y+r.Height
}

// Instance is a single styled rectangle draw command.
type Instance struct {
	Rect         Rect
	Color        Color
	BorderColor  Color
	BorderSize   float32
	BorderRadius float32
}

// TextArea positions a run of text inside its bounds.
type TextArea struct {
	Text   string
	X      float32
	Y      float32
	Bounds Rect
	Size   float32
	Color  Color
	Bold   bool
}

// Frame is one complete render pass: rectangles draw back to front in
// order, text draws on top.
type Frame struct {
	Instances []Instance
	Texts     []TextArea
	Width     float32
	Height    float32
}

// Renderer consumes frames. Implementations run outside the event loop
// and must not call back into it synchronously.
type Renderer interface {
	Render(frame Frame) error
}
