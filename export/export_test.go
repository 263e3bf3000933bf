package export

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/geometry"
)

func testDoc(t *testing.T, overlay string) Document {
	t.Helper()
	cfg, err := config.Parse([]byte(overlay))
	require.NoError(t, err)
	return Document{
		Config:  cfg,
		Seed:    42,
		Palette: []string{"#000000", "#d14900", "#FFFFFF"},
		Paths: []geometry.Path{
			{{X: 1, Y: 2, StrokeWeight: 0.5, Alpha: 1}, {X: 3.14159, Y: 4, StrokeWeight: 0.5, Alpha: 1}},
			{{X: 10, Y: 10, StrokeWeight: 0.5, Alpha: 1}, {X: 20, Y: 20, StrokeWeight: 0.5, Alpha: 1}},
			{{X: 5, Y: 5, StrokeWeight: 0.5, Alpha: 1}, {X: 6, Y: 6, StrokeWeight: 0.5, Alpha: 1}},
			{{X: 7, Y: 7, StrokeWeight: 0.5, Alpha: 1}, {X: 8, Y: 8, StrokeWeight: 0.5, Alpha: 1}},
		},
		Time: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func renderSVG(t *testing.T, doc Document) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, SVG(&buf, doc))
	return buf.String()
}

func TestSVGPaletteMode(t *testing.T) {
	doc := testDoc(t, `canvas: {width: 100, height: 50, background: "#eeeeee"}`)
	out := renderSVG(t, doc)

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `width="100" height="50" viewBox="0 0 100 50"`)
	assert.Contains(t, out, `<rect width="100" height="50" fill="#eeeeee"/>`)
	assert.Contains(t, out, "seed=42")
	assert.Equal(t, len(doc.Paths), strings.Count(out, "<polyline"), "one polyline per path")
	assert.Equal(t, 3, strings.Count(out, "<g "), "one group per used colour")
	assert.Contains(t, out, `points="1.00,2.00 3.14,4.00"`)

	// Path 3 wraps back to the first colour.
	first := strings.Index(out, `<g stroke="#000000"`)
	second := strings.Index(out, `<g stroke="#d14900"`)
	require.True(t, first >= 0 && second > first)
	assert.Equal(t, 2, strings.Count(out[first:second], "<polyline"))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestSVGMetadataRoundTrip(t *testing.T) {
	doc := testDoc(t, `
palette: {name: warm}
canvas: {width: 640, height: 480}
trace:
  start_attempts: 12
  repulsion_strength: 3.5
  exclusion_zones:
    - {shape: rectangle, x: 10, y: 20, width: 30, height: 40}
feedback: {enabled: true, adaptation_rate: 1.25, memory_weight: 0.35, resolution: 16}
`)
	out := renderSVG(t, doc)

	start := strings.Index(out, `<metadata id="flow-field-metadata">`) + len(`<metadata id="flow-field-metadata">`)
	end := strings.Index(out, "</metadata>")
	require.Greater(t, end, start)
	raw := out[start:end]
	assert.NotContains(t, raw, "&")
	assert.NotContains(t, raw, "<")

	decoded, err := url.QueryUnescape(raw)
	require.NoError(t, err)
	var meta svgMetadata
	require.NoError(t, json.Unmarshal([]byte(decoded), &meta))
	assert.Equal(t, int64(42), meta.Parameters.Seed)
	assert.Equal(t, "warm", meta.Parameters.Palette)
	assert.Equal(t, doc.Palette, meta.Parameters.PaletteColors)
	assert.Equal(t, "2024-05-01T12:00:00.000Z", meta.Timestamp)

	p := meta.Parameters
	assert.Equal(t, 640.0, p.CanvasWidth)
	assert.Equal(t, 480.0, p.CanvasHeight)
	assert.Equal(t, 12, p.StartAttempts)
	assert.Equal(t, 3.5, p.RepulsionStrength)
	assert.True(t, p.FeedbackEnabled)
	assert.Equal(t, 1.25, p.AdaptationRate)
	assert.Equal(t, 0.35, p.MemoryWeight)
	assert.Equal(t, 16, p.FeedbackResolution)
	assert.Equal(t, []Zone{{Shape: "rect", X: 10, Y: 20, Width: 30, Height: 40}}, p.ExclusionZones)
}

func TestSVGMonochrome(t *testing.T) {
	out := renderSVG(t, testDoc(t, `export: {color_mode: monochrome}`))
	assert.Equal(t, 1, strings.Count(out, "<g "))
	assert.Contains(t, out, `<g stroke="#000000" stroke-width="0.5" fill="none">`)
	assert.Equal(t, 4, strings.Count(out, "<polyline"))
}

func TestSVGPerPath(t *testing.T) {
	doc := testDoc(t, `export: {color_mode: per-path}`)
	doc.Paths[1][1].StrokeWeight = 1.5
	doc.Paths[1][1].Alpha = 0.5
	doc.Paths = append(doc.Paths, geometry.Path{
		{X: 0, Y: 0, StrokeWeight: 1, Alpha: 1},
		{X: 1, Y: 0, StrokeWeight: 0.8, Alpha: 0.9},
		{X: 2, Y: 0, StrokeWeight: 0.6, Alpha: 0.8},
	})
	out := renderSVG(t, doc)

	assert.Equal(t, 3, strings.Count(out, "<polyline"), "uniform paths stay polylines")
	assert.Equal(t, 3, strings.Count(out, "<line "), "varying paths become segments")
	assert.Contains(t, out, `stroke-width="1.00" stroke-opacity="0.75"`)
	assert.Contains(t, out, `stroke-width="0.90" stroke-opacity="0.95"`)
}

func TestSVGSkipsDegeneratePaths(t *testing.T) {
	doc := testDoc(t, "")
	doc.Paths = append(doc.Paths, geometry.Path{{X: 1, Y: 1}})
	out := renderSVG(t, doc)
	assert.Equal(t, 4, strings.Count(out, "<polyline"))
}

func TestCSV(t *testing.T) {
	doc := testDoc(t, "")
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, doc.Paths[:2]))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "path_id,point_index,x,y", lines[0])
	assert.Equal(t, "0,0,1.00,2.00", lines[1])
	assert.Equal(t, "0,1,3.14,4.00", lines[2])
	assert.Equal(t, "1,1,20.00,20.00", lines[4])
}

func TestCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, nil))
	assert.Equal(t, "path_id,point_index,x,y\n", buf.String())
}

func TestJSON(t *testing.T) {
	t.Run("paths omitted by default", func(t *testing.T) {
		doc := testDoc(t, `canvas: {width: 300, height: 200}`)
		var buf bytes.Buffer
		require.NoError(t, JSON(&buf, doc))

		var got map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.NotContains(t, got, "paths")

		meta := got["metadata"].(map[string]any)
		assert.Equal(t, 300.0, meta["canvas_width"])
		assert.Equal(t, 200.0, meta["canvas_height"])
		assert.Equal(t, 4.0, meta["total_paths"])
		assert.Equal(t, "2024-05-01T12:00:00Z", meta["timestamp"])

		params := got["parameters"].(map[string]any)
		assert.Equal(t, 42.0, params["seed"])
		assert.Equal(t, "perlin", params["noise_type"])
		assert.NotContains(t, params, "blend_noise_type")
		assert.Contains(t, params, "memory_decay")
		assert.Contains(t, params, "deep_exclusion_factor")
	})

	t.Run("feedback parameters", func(t *testing.T) {
		doc := testDoc(t, `feedback: {enabled: true, pheromone_influence: 0.42, attractor_radius: 75}`)
		var buf bytes.Buffer
		require.NoError(t, JSON(&buf, doc))

		var got JSONDocument
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.True(t, got.Parameters.FeedbackEnabled)
		assert.Equal(t, 0.42, got.Parameters.PheromoneInfluence)
		assert.Equal(t, 75.0, got.Parameters.AttractorRadius)
		assert.Equal(t, doc.Config.Feedback.DensityDecay, got.Parameters.DensityDecay)
	})

	t.Run("paths included on request", func(t *testing.T) {
		doc := testDoc(t, `export: {include_paths: true}`)
		var buf bytes.Buffer
		require.NoError(t, JSON(&buf, doc))

		var got JSONDocument
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		require.Len(t, got.Paths, 4)
		assert.Equal(t, JSONPoint{X: 3.14159, Y: 4}, got.Paths[0][1])
	})
}

func TestParametersBlend(t *testing.T) {
	doc := testDoc(t, `field: {blend: {enabled: true, noise_type: simplex, base_weight: 0.6, secondary_weight: 0.4}}`)
	p := NewParameters(doc)
	assert.True(t, p.BlendEnabled)
	assert.Equal(t, "simplex", p.BlendNoiseType)
	assert.Equal(t, 0.6, p.BlendBaseWeight)
	assert.Equal(t, "#FFFFFF", p.BackgroundColor)
}
