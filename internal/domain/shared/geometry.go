// Package shared holds the value objects used by more than one domain package:
// canvas geometry, the dashboard and layout enumerations, and the tolerant
// date type used by node payloads.
package shared

// Position is a point in flow (canvas) coordinates.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport is the pan/zoom transform of the canvas. A screen point s maps to
// the flow point (s - (X,Y)) / Zoom.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// DefaultViewport is the untransformed canvas.
func DefaultViewport() Viewport {
	return Viewport{X: 0, Y: 0, Zoom: 1}
}

// ToFlow converts a screen-space point into flow coordinates.
func (v Viewport) ToFlow(screen Position) Position {
	zoom := v.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	return Position{
		X: (screen.X - v.X) / zoom,
		Y: (screen.Y - v.Y) / zoom,
	}
}

// Dimensions is the measured size of a rendered node.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}
