// Flow field preview tool - interactive generation with sliders.
//
// Usage: go run ./cmd/flowpreview [-config path]
//
// Keys: R regenerate, S save SVG, A toggle auto, F toggle feedback,
// D toggle density overlay, C copy YAML config to clipboard, V reset view.
// Mouse wheel zooms the preview, right drag pans it.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"

	"github.com/ToledoEM/field-generation/camera"
	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/export"
	"github.com/ToledoEM/field-generation/feedback"
	"github.com/ToledoEM/field-generation/generator"
	"github.com/ToledoEM/field-generation/renderer"
)

const (
	windowWidth  = 1100
	windowHeight = 760
	previewSize  = 620
	panelWidth   = windowWidth - previewSize - 30
)

// previewState is everything the panel can change.
type previewState struct {
	cfg         *config.Config
	seed        int64
	lockSeed    bool
	auto        bool
	showDensity bool
	status      string
}

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	base := cfg.Clone()

	rl.InitWindow(windowWidth, windowHeight, "Flow Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	gen := generator.New(generator.Options{})
	paths := renderer.NewPathRenderer(int32(cfg.Canvas.Width), int32(cfg.Canvas.Height))
	defer paths.Unload()
	density := renderer.NewDensityOverlay(cfg.Feedback.Resolution)
	defer density.Unload()

	cam := camera.New(10, 10, previewSize, previewSize, float32(cfg.Canvas.Width), float32(cfg.Canvas.Height))

	st := &previewState{cfg: cfg}
	if cfg.Field.Seed != nil {
		st.seed, st.lockSeed = *cfg.Field.Seed, true
	}

	var last *generator.Result
	regenerate := func() {
		var passCfg *config.Config
		if st.lockSeed {
			passCfg = st.cfg.WithSeed(st.seed)
		} else {
			passCfg = st.cfg.Clone()
			passCfg.Field.Seed = nil
		}
		res, err := gen.Generate(passCfg)
		if err != nil {
			st.status = err.Error()
			slog.Error("generation failed", "error", err)
			return
		}
		last = res
		st.seed = res.Seed
		paths.Resize(int32(passCfg.Canvas.Width), int32(passCfg.Canvas.Height))
		cam.Resize(float32(passCfg.Canvas.Width), float32(passCfg.Canvas.Height))
		paths.Render(res.Paths, res.Palette, passCfg.Canvas.Background)
		if fb := gen.Feedback(); fb != nil && passCfg.Feedback.Enabled {
			density.Update(fb, passCfg.Canvas.Width, passCfg.Canvas.Height, passCfg.Feedback.Resolution)
		}
		st.status = fmt.Sprintf("pass %d: %d paths in %.1f ms", res.Pass, len(res.Paths), res.Stats.DurationMS)
	}
	regenerate()

	ticker := time.NewTicker(cfg.Auto.Interval)
	defer ticker.Stop()

	for !rl.WindowShouldClose() {
		gen.Perf().RecordFrame()

		// Input
		needsRegen := false
		if rl.IsKeyPressed(rl.KeyR) {
			needsRegen = true
		}
		if rl.IsKeyPressed(rl.KeyA) {
			st.auto = !st.auto
		}
		if rl.IsKeyPressed(rl.KeyF) {
			st.cfg.Feedback.Enabled = !st.cfg.Feedback.Enabled
			needsRegen = true
		}
		if rl.IsKeyPressed(rl.KeyD) {
			st.showDensity = !st.showDensity
		}
		if rl.IsKeyPressed(rl.KeyS) && last != nil {
			st.status = saveSVG(last)
		}
		if rl.IsKeyPressed(rl.KeyV) {
			cam.Reset()
		}

		// Camera
		mouse := rl.GetMousePosition()
		if cam.InViewport(mouse.X, mouse.Y) {
			if wheel := rl.GetMouseWheelMove(); wheel != 0 {
				cam.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
			}
			if rl.IsMouseButtonDown(rl.MouseButtonRight) {
				delta := rl.GetMouseDelta()
				cam.Pan(-delta.X, -delta.Y)
			}
		}

		if rl.IsKeyPressed(rl.KeyC) {
			if data, err := yaml.Marshal(st.cfg); err == nil {
				rl.SetClipboardText(string(data))
				st.status = "config copied to clipboard"
			}
		}

		if st.auto {
			select {
			case <-ticker.C:
				next, err := generator.Randomize(st.cfg, gen.Rand())
				if err != nil {
					st.status = err.Error()
					break
				}
				st.cfg = next
				st.lockSeed = false
				needsRegen = true
			default:
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		// Preview
		x, y, w, h := cam.CanvasRect()
		dst := rl.Rectangle{X: x, Y: y, Width: w, Height: h}
		rl.BeginScissorMode(10, 10, previewSize, previewSize)
		paths.Draw(dst)
		if st.showDensity && st.cfg.Feedback.Enabled {
			density.Draw(dst)
		}
		rl.EndScissorMode()
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		rl.DrawText(st.status, 15, statsY, 16, rl.DarkGray)
		if last != nil {
			rl.DrawText(fmt.Sprintf("Seed: %d  Grid: %dx%d  Points: %d  Dropped: %d",
				last.Seed, last.Field.Columns, last.Field.Rows, last.Stats.Points, last.Stats.Dropped),
				15, statsY+20, 16, rl.DarkGray)
			if last.Feedback != nil {
				drawMetrics(last.Feedback, 15, statsY+40)
			}
		}
		if cam.InViewport(mouse.X, mouse.Y) {
			wx, wy := cam.ScreenToWorld(mouse.X, mouse.Y)
			cursor := fmt.Sprintf("(%.0f, %.0f)  zoom %.1fx", wx, wy, cam.Zoom)
			if fb := gen.Feedback(); fb != nil && st.cfg.Feedback.Enabled {
				cursor += fmt.Sprintf("  density %.2f", fb.Density(float64(wx), float64(wy)))
			}
			rl.DrawText(cursor, 15, statsY+60, 14, rl.Gray)
		}

		// Control panel
		p := panel{x: float32(previewSize + 20), y: 10}
		rl.DrawText("Flow Field Parameters", int32(p.x), int32(p.y), 20, rl.DarkGray)
		p.y += 35

		c := st.cfg
		needsRegen = p.slider("Field scale", "%.4f", &c.Field.FieldScale, 0.001, 0.05) || needsRegen
		needsRegen = p.slider("Step size", "%.1f", &c.Field.StepSize, 1, 20) || needsRegen
		needsRegen = p.sliderInt("Resolution (steps)", &c.Trace.Resolution, 2, 200) || needsRegen
		needsRegen = p.sliderInt("Paths", &c.Trace.NumPaths, 10, 5000) || needsRegen
		needsRegen = p.slider("Stroke weight", "%.2f", &c.Stroke.Weight, 0.1, 3) || needsRegen

		if st.cfg.Feedback.Enabled {
			needsRegen = p.slider("Adaptation rate", "%.2f", &c.Feedback.AdaptationRate, 0, 2) || needsRegen
			needsRegen = p.slider("Pheromone influence", "%.2f", &c.Feedback.PheromoneInfluence, 0, 1) || needsRegen
			needsRegen = p.slider("Memory weight", "%.2f", &c.Feedback.MemoryWeight, 0, 1) || needsRegen
		}

		rl.DrawLine(int32(p.x), int32(p.y), int32(p.x)+int32(panelWidth)-20, int32(p.y), rl.LightGray)
		p.y += 15

		if gui.Button(rl.Rectangle{X: p.x, Y: p.y, Width: 120, Height: 30}, "Regenerate") {
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: p.x + 130, Y: p.y, Width: 120, Height: 30}, toggleText(st.lockSeed, "Unlock Seed", "Lock Seed")) {
			st.lockSeed = !st.lockSeed
		}
		p.y += 40

		if gui.Button(rl.Rectangle{X: p.x, Y: p.y, Width: 120, Height: 30}, toggleText(st.auto, "Stop Auto", "Auto")) {
			st.auto = !st.auto
		}
		if gui.Button(rl.Rectangle{X: p.x + 130, Y: p.y, Width: 120, Height: 30}, toggleText(st.cfg.Feedback.Enabled, "Feedback Off", "Feedback On")) {
			st.cfg.Feedback.Enabled = !st.cfg.Feedback.Enabled
			needsRegen = true
		}
		p.y += 40

		if gui.Button(rl.Rectangle{X: p.x, Y: p.y, Width: 120, Height: 30}, "Reset Feedback") {
			gen.Reset()
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: p.x + 130, Y: p.y, Width: 120, Height: 30}, "Reset All") {
			st.cfg = base.Clone()
			gen.Reset()
			needsRegen = true
		}
		p.y += 40

		if gui.Button(rl.Rectangle{X: p.x, Y: p.y, Width: 120, Height: 30}, "Save SVG") && last != nil {
			st.status = saveSVG(last)
		}
		p.y += 50

		perf := gen.Perf().Stats()
		rl.DrawText(fmt.Sprintf("Avg pass: %s  FPS: %.0f", perf.AvgPassDuration.Round(time.Millisecond), perf.FPS),
			int32(p.x), int32(p.y), 14, rl.Gray)

		rl.DrawText("R regen  S save  A auto  F feedback  D density  C copy  V view", int32(p.x), int32(windowHeight-30), 12, rl.LightGray)

		rl.EndDrawing()

		if needsRegen {
			if err := st.cfg.Refresh(); err != nil {
				st.status = err.Error()
				continue
			}
			regenerate()
		}
	}
}

// panel lays out labelled sliders top to bottom.
type panel struct {
	x, y float32
}

func (p *panel) slider(label, format string, v *float64, lo, hi float32) bool {
	rl.DrawText(label, int32(p.x), int32(p.y), 14, rl.Gray)
	p.y += 18
	next := gui.SliderBar(
		rl.Rectangle{X: p.x, Y: p.y, Width: float32(panelWidth - 80), Height: 20},
		"", "",
		float32(*v), lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, *v), int32(p.x+float32(panelWidth-70)), int32(p.y+2), 16, rl.DarkGray)
	p.y += 35
	if next != float32(*v) {
		*v = float64(next)
		return true
	}
	return false
}

func (p *panel) sliderInt(label string, v *int, lo, hi int) bool {
	f := float64(*v)
	if !p.slider(label, "%.0f", &f, float32(lo), float32(hi)) {
		return false
	}
	if int(f) == *v {
		return false
	}
	*v = int(f)
	return true
}

func drawMetrics(st *feedback.State, x, y int32) {
	rl.DrawText(fmt.Sprintf("Entropy: %.3f  Complexity: %.3f  Emergence: %.3f  Attractors: %d",
		st.Entropy, st.Complexity, st.Emergence, st.AttractorCount), x, y, 16, rl.DarkGray)
}

func saveSVG(res *generator.Result) string {
	name := fmt.Sprintf("flowfield_%d_%04d.svg", res.Seed, res.Pass)
	f, err := os.Create(name)
	if err != nil {
		slog.Error("failed to save svg", "error", err)
		return err.Error()
	}
	defer f.Close()
	if err := export.SVG(f, res.Document()); err != nil {
		slog.Error("failed to save svg", "error", err)
		return err.Error()
	}
	slog.Info("saved svg", "file", name)
	return "saved " + name
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}
