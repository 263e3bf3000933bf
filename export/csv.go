package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/ToledoEM/field-generation/geometry"
)

// Coord is a coordinate written with two decimals.
type Coord float64

// MarshalCSV implements gocsv.TypeMarshaller.
func (c Coord) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(c), 'f', 2, 64), nil
}

// PointRecord is one CSV row.
type PointRecord struct {
	PathID     int   `csv:"path_id"`
	PointIndex int   `csv:"point_index"`
	X          Coord `csv:"x"`
	Y          Coord `csv:"y"`
}

// Records flattens paths into CSV rows in path then point order.
func Records(paths []geometry.Path) []PointRecord {
	records := make([]PointRecord, 0, geometry.PointCount(paths))
	for id, p := range paths {
		for i, pt := range p {
			records = append(records, PointRecord{PathID: id, PointIndex: i, X: Coord(pt.X), Y: Coord(pt.Y)})
		}
	}
	return records
}

// CSV writes one row per point with a header row.
func CSV(w io.Writer, paths []geometry.Path) error {
	records := Records(paths)
	if len(records) == 0 {
		// Header only.
		if _, err := io.WriteString(w, "path_id,point_index,x,y\n"); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
		return nil
	}
	if err := gocsv.Marshal(records, w); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
