package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/geometry"
)

type svgMetadata struct {
	Timestamp  string     `json:"timestamp"`
	Parameters Parameters `json:"parameters"`
}

// SVG writes doc as a standalone SVG document.
func SVG(w io.Writer, doc Document) error {
	c := doc.Config
	colors := doc.Palette
	if len(colors) == 0 {
		colors = []string{"#000000"}
	}

	meta, err := json.Marshal(svgMetadata{
		Timestamp:  doc.timestamp().Format("2006-01-02T15:04:05.000Z07:00"),
		Parameters: NewParameters(doc),
	})
	if err != nil {
		return fmt.Errorf("encoding svg metadata: %w", err)
	}

	bw := bufio.NewWriter(w)
	width, height := num(c.Canvas.Width), num(c.Canvas.Height)
	fmt.Fprintf(bw, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(bw, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%s\" height=\"%s\" viewBox=\"0 0 %s %s\">\n",
		width, height, width, height)
	fmt.Fprintf(bw, "  <metadata id=\"flow-field-metadata\">%s</metadata>\n", escapeComponent(string(meta)))
	fmt.Fprintf(bw, "  <!-- flow field seed=%d palette=%s paths=%d -->\n", doc.Seed, c.Palette.Name, len(doc.Paths))
	fmt.Fprintf(bw, "  <rect width=\"%s\" height=\"%s\" fill=\"%s\"/>\n", width, height, background(c))

	weight := num(c.Stroke.Weight)
	switch c.Export.ColorMode {
	case config.ColorMonochrome:
		fmt.Fprintf(bw, "  <g stroke=\"%s\" stroke-width=\"%s\" fill=\"none\">\n", colors[0], weight)
		for _, p := range doc.Paths {
			writePolyline(bw, p, "")
		}
		fmt.Fprintf(bw, "  </g>\n")

	case config.ColorPerPath:
		for i, p := range doc.Paths {
			color := colors[i%len(colors)]
			if p.UniformStroke() {
				attrs := fmt.Sprintf(" stroke=\"%s\" stroke-width=\"%s\"%s fill=\"none\"", color, num(strokeOf(p, c)), opacity(p))
				writePolyline(bw, p, attrs)
				continue
			}
			writeSegments(bw, p, color)
		}

	default:
		order, groups := groupByColor(doc.Paths, colors)
		for _, color := range order {
			fmt.Fprintf(bw, "  <g stroke=\"%s\" stroke-width=\"%s\" fill=\"none\">\n", color, weight)
			for _, p := range groups[color] {
				writePolyline(bw, p, "")
			}
			fmt.Fprintf(bw, "  </g>\n")
		}
	}

	fmt.Fprintf(bw, "</svg>\n")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("writing svg: %w", err)
	}
	return nil
}

// groupByColor assigns path i the colour i mod len(colors) and returns the
// groups in first-use order.
func groupByColor(paths []geometry.Path, colors []string) ([]string, map[string][]geometry.Path) {
	var order []string
	groups := make(map[string][]geometry.Path)
	for i, p := range paths {
		color := colors[i%len(colors)]
		if _, ok := groups[color]; !ok {
			order = append(order, color)
		}
		groups[color] = append(groups[color], p)
	}
	return order, groups
}

func writePolyline(bw *bufio.Writer, p geometry.Path, attrs string) {
	if len(p) < 2 {
		return
	}
	var sb strings.Builder
	for i, pt := range p {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(coord(pt.X))
		sb.WriteByte(',')
		sb.WriteString(coord(pt.Y))
	}
	fmt.Fprintf(bw, "    <polyline points=\"%s\"%s/>\n", sb.String(), attrs)
}

// writeSegments emits one line per segment carrying the mean stroke width
// and opacity of its endpoints.
func writeSegments(bw *bufio.Writer, p geometry.Path, color string) {
	if len(p) < 2 {
		return
	}
	fmt.Fprintf(bw, "  <g stroke=\"%s\" fill=\"none\" stroke-linecap=\"round\">\n", color)
	for i := 1; i < len(p); i++ {
		a, b := p[i-1], p[i]
		fmt.Fprintf(bw, "    <line x1=\"%s\" y1=\"%s\" x2=\"%s\" y2=\"%s\" stroke-width=\"%s\" stroke-opacity=\"%s\"/>\n",
			coord(a.X), coord(a.Y), coord(b.X), coord(b.Y),
			coord((a.StrokeWeight+b.StrokeWeight)/2), coord((a.Alpha+b.Alpha)/2))
	}
	fmt.Fprintf(bw, "  </g>\n")
}

// strokeOf returns the path stroke weight, falling back to the configured
// weight when the path carries none.
func strokeOf(p geometry.Path, c *config.Config) float64 {
	if len(p) > 0 && p[0].StrokeWeight > 0 {
		return p[0].StrokeWeight
	}
	return c.Stroke.Weight
}

func opacity(p geometry.Path) string {
	if len(p) == 0 || p[0].Alpha == 0 || p[0].Alpha >= 1 {
		return ""
	}
	return fmt.Sprintf(" stroke-opacity=\"%s\"", coord(p[0].Alpha))
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeComponent percent-encodes s so it is safe inside XML text.
func escapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
