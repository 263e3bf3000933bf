package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ToledoEM/field-generation/geometry"
)

// JSONDocument is the JSON export layout.
type JSONDocument struct {
	Metadata   JSONMetadata  `json:"metadata"`
	Parameters Parameters    `json:"parameters"`
	Paths      [][]JSONPoint `json:"paths,omitempty"`
}

// JSONMetadata describes the export itself.
type JSONMetadata struct {
	Timestamp    time.Time `json:"timestamp"`
	CanvasWidth  float64   `json:"canvas_width"`
	CanvasHeight float64   `json:"canvas_height"`
	TotalPaths   int       `json:"total_paths"`
}

// JSONPoint is a path vertex.
type JSONPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewJSONDocument builds the JSON view of doc. Paths are included only when
// the export config asks for them.
func NewJSONDocument(doc Document) JSONDocument {
	c := doc.Config
	out := JSONDocument{
		Metadata: JSONMetadata{
			Timestamp:    doc.timestamp(),
			CanvasWidth:  c.Canvas.Width,
			CanvasHeight: c.Canvas.Height,
			TotalPaths:   len(doc.Paths),
		},
		Parameters: NewParameters(doc),
	}
	if c.Export.IncludePaths {
		out.Paths = jsonPaths(doc.Paths)
	}
	return out
}

func jsonPaths(paths []geometry.Path) [][]JSONPoint {
	out := make([][]JSONPoint, len(paths))
	for i, p := range paths {
		pts := make([]JSONPoint, len(p))
		for j, pt := range p {
			pts[j] = JSONPoint{X: pt.X, Y: pt.Y}
		}
		out[i] = pts
	}
	return out
}

// JSON writes doc as indented JSON.
func JSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewJSONDocument(doc)); err != nil {
		return fmt.Errorf("writing json: %w", err)
	}
	return nil
}
