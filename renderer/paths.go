// Package renderer draws generation results with raylib.
package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/ToledoEM/field-generation/geometry"
	"github.com/ToledoEM/field-generation/palette"
)

// PathRenderer caches traced paths in a render texture so the preview only
// redraws them when a pass completes.
type PathRenderer struct {
	target rl.RenderTexture2D
	width  int32
	height int32
}

// NewPathRenderer creates a renderer for a canvas of the given size.
// Call after the window is initialized.
func NewPathRenderer(width, height int32) *PathRenderer {
	return &PathRenderer{
		target: rl.LoadRenderTexture(width, height),
		width:  width,
		height: height,
	}
}

// Resize recreates the render texture when the canvas size changed.
func (r *PathRenderer) Resize(width, height int32) {
	if width == r.width && height == r.height {
		return
	}
	rl.UnloadRenderTexture(r.target)
	r.target = rl.LoadRenderTexture(width, height)
	r.width, r.height = width, height
}

// Render draws paths into the cached texture. Path i uses colour i mod
// len(colors); per-point stroke weight and alpha are honoured segment by
// segment.
func (r *PathRenderer) Render(paths []geometry.Path, colors []string, background string) {
	rl.BeginTextureMode(r.target)
	rl.ClearBackground(hexColor(background, rl.White))

	for i, p := range paths {
		if len(p) < 2 {
			continue
		}
		base := rl.Black
		if len(colors) > 0 {
			base = hexColor(colors[i%len(colors)], rl.Black)
		}
		for j := 1; j < len(p); j++ {
			a, b := p[j-1], p[j]
			width := float32((a.StrokeWeight + b.StrokeWeight) / 2)
			if width <= 0 {
				width = 1
			}
			alpha := float32((a.Alpha + b.Alpha) / 2)
			if alpha <= 0 {
				alpha = 1
			}
			rl.DrawLineEx(
				rl.Vector2{X: float32(a.X), Y: float32(a.Y)},
				rl.Vector2{X: float32(b.X), Y: float32(b.Y)},
				width,
				rl.Fade(base, alpha),
			)
		}
	}

	rl.EndTextureMode()
}

// Draw blits the cached texture into dst.
func (r *PathRenderer) Draw(dst rl.Rectangle) {
	// Render textures are stored upside down.
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(r.width), Height: -float32(r.height)}
	rl.DrawTexturePro(r.target.Texture, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload frees resources.
func (r *PathRenderer) Unload() {
	rl.UnloadRenderTexture(r.target)
}

// hexColor converts #rrggbb, falling back to def.
func hexColor(c string, def rl.Color) rl.Color {
	red, green, blue, ok := palette.RGB(c)
	if !ok {
		return def
	}
	return rl.Color{R: red, G: green, B: blue, A: 255}
}
