package renderer

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/ToledoEM/field-generation/feedback"
)

// DensityOverlay shows the feedback density grid as a translucent heat map.
type DensityOverlay struct {
	texture rl.Texture2D
	res     int
	pixels  []color.RGBA
}

// NewDensityOverlay creates an overlay for a res×res density grid.
func NewDensityOverlay(res int) *DensityOverlay {
	img := rl.GenImageColor(res, res, rl.Blank)
	defer rl.UnloadImage(img)
	return &DensityOverlay{
		texture: rl.LoadTextureFromImage(img),
		res:     res,
		pixels:  make([]color.RGBA, res*res),
	}
}

// Update samples the feedback system at every cell centre.
func (d *DensityOverlay) Update(fb *feedback.System, worldW, worldH float64, res int) {
	if res != d.res {
		rl.UnloadTexture(d.texture)
		img := rl.GenImageColor(res, res, rl.Blank)
		d.texture = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		d.res = res
		d.pixels = make([]color.RGBA, res*res)
	}

	cw, ch := worldW/float64(res), worldH/float64(res)
	for row := 0; row < res; row++ {
		for col := 0; col < res; col++ {
			v := fb.Density((float64(col)+0.5)*cw, (float64(row)+0.5)*ch)
			d.pixels[row*res+col] = heat(float32(v))
		}
	}
	rl.UpdateTexture(d.texture, d.pixels)
}

// Draw stretches the overlay over dst.
func (d *DensityOverlay) Draw(dst rl.Rectangle) {
	src := rl.Rectangle{X: 0, Y: 0, Width: float32(d.res), Height: float32(d.res)}
	rl.DrawTexturePro(d.texture, src, dst, rl.Vector2{}, 0, rl.White)
}

// Unload frees resources.
func (d *DensityOverlay) Unload() {
	rl.UnloadTexture(d.texture)
}

// heat maps v in [0,1] through dark blue, cyan and yellow to white. Empty
// cells are transparent.
func heat(v float32) color.RGBA {
	if v <= 0 {
		return color.RGBA{}
	}
	var r, g, b uint8
	switch {
	case v < 0.25:
		t := v / 0.25
		r, g, b = uint8(10+t*30), uint8(20+t*60), uint8(60+t*100)
	case v < 0.5:
		t := (v - 0.25) / 0.25
		r, g, b = uint8(40+t*20), uint8(80+t*120), uint8(160+t*40)
	case v < 0.75:
		t := (v - 0.5) / 0.25
		r, g, b = uint8(60+t*140), uint8(200-t*40), uint8(200-t*150)
	default:
		t := (v - 0.75) / 0.25
		if t > 1 {
			t = 1
		}
		r, g, b = uint8(200+t*55), uint8(160+t*95), uint8(50+t*205)
	}
	return color.RGBA{R: r, G: g, B: b, A: uint8(60 + v*120)}
}
