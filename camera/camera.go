// Package camera maps a canvas onto a screen viewport with pan and zoom.
package camera

// Camera controls the view of the canvas inside a fixed viewport.
// The canvas is clamped so it never drifts fully out of view.
type Camera struct {
	// Position is the camera center in canvas coordinates
	X, Y float32

	// Zoom level relative to the fit-to-viewport scale (1.0 = whole canvas)
	Zoom float32

	// Viewport origin and size in screen pixels
	ViewX, ViewY         float32
	ViewportW, ViewportH float32

	// Canvas dimensions
	WorldW, WorldH float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera showing the whole canvas centred in the viewport.
func New(viewX, viewY, viewportW, viewportH, worldW, worldH float32) *Camera {
	return &Camera{
		X:         worldW / 2,
		Y:         worldH / 2,
		Zoom:      1.0,
		ViewX:     viewX,
		ViewY:     viewY,
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MinZoom:   1.0,
		MaxZoom:   8.0,
	}
}

// fit is the screen pixels per canvas unit at zoom 1.
func (c *Camera) fit() float32 {
	return min(c.ViewportW/c.WorldW, c.ViewportH/c.WorldH)
}

// Scale returns screen pixels per canvas unit.
func (c *Camera) Scale() float32 {
	return c.fit() * c.Zoom
}

// WorldToScreen converts canvas coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewX + c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewY + c.ViewportH/2 + (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to canvas coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewX-c.ViewportW/2)/s
	wy = c.Y + (sy-c.ViewY-c.ViewportH/2)/s
	return wx, wy
}

// InViewport reports whether a screen point lies inside the viewport.
func (c *Camera) InViewport(sx, sy float32) bool {
	return sx >= c.ViewX && sx < c.ViewX+c.ViewportW &&
		sy >= c.ViewY && sy < c.ViewY+c.ViewportH
}

// CanvasRect returns the screen rectangle the whole canvas occupies.
// It may extend beyond the viewport when zoomed in.
func (c *Camera) CanvasRect() (x, y, w, h float32) {
	x, y = c.WorldToScreen(0, 0)
	s := c.Scale()
	return x, y, c.WorldW * s, c.WorldH * s
}

// Resize sets a new canvas size and returns to the default view.
func (c *Camera) Resize(worldW, worldH float32) {
	if worldW == c.WorldW && worldH == c.WorldH {
		return
	}
	c.WorldW = worldW
	c.WorldH = worldH
	c.Reset()
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X = clamp(c.X+dx/s, 0, c.WorldW)
	c.Y = clamp(c.Y+dy/s, 0, c.WorldH)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomAt multiplies the zoom by factor, keeping the canvas point under
// the screen position (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.SetZoom(c.Zoom * factor)
	nx, ny := c.ScreenToWorld(sx, sy)
	c.X = clamp(c.X+wx-nx, 0, c.WorldW)
	c.Y = clamp(c.Y+wy-ny, 0, c.WorldH)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldW / 2
	c.Y = c.WorldH / 2
	c.Zoom = 1.0
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
