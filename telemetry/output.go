package telemetry

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"golang.org/x/sync/errgroup"

	"github.com/ToledoEM/field-generation/config"
	"github.com/ToledoEM/field-generation/export"
)

// OutputManager handles structured run output with CSV logging and per-pass
// artifacts.
type OutputManager struct {
	dir        string
	passesFile *os.File
	perfFile   *os.File

	// Track if headers have been written
	passesHeaderWritten bool
	perfHeaderWritten   bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "passes.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating passes.csv: %w", err)
	}
	om.passesFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.passesFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WritePassStats appends a pass record to passes.csv.
func (om *OutputManager) WritePassStats(stats PassStats) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.passesFile, []PassStats{stats}, &om.passesHeaderWritten); err != nil {
		return fmt.Errorf("writing pass stats: %w", err)
	}
	return nil
}

// WritePerf appends a performance record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, pass int) error {
	if om == nil {
		return nil
	}
	if err := appendCSV(om.perfFile, []PerfStatsCSV{stats.ToCSV(pass)}, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// appendCSV writes records, including the header on first use only.
func appendCSV(w io.Writer, records any, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, w); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, w)
}

// PassFiles returns the artifact paths for a pass: SVG, CSV and JSON.
func (om *OutputManager) PassFiles(pass int) (svg, csv, json string) {
	base := filepath.Join(om.Dir(), fmt.Sprintf("pass_%04d", pass))
	return base + ".svg", base + ".csv", base + ".json"
}

// WritePass renders the pass artifacts concurrently and writes them to the
// output directory. Returns the file paths written.
func (om *OutputManager) WritePass(pass int, doc export.Document) ([]string, error) {
	if om == nil {
		return nil, nil
	}

	svgPath, csvPath, jsonPath := om.PassFiles(pass)
	targets := []struct {
		path   string
		render func(io.Writer) error
	}{
		{svgPath, func(w io.Writer) error { return export.SVG(w, doc) }},
		{csvPath, func(w io.Writer) error { return export.CSV(w, doc.Paths) }},
		{jsonPath, func(w io.Writer) error { return export.JSON(w, doc) }},
	}

	var g errgroup.Group
	for _, t := range targets {
		g.Go(func() error {
			var buf bytes.Buffer
			if err := t.render(&buf); err != nil {
				return err
			}
			if err := os.WriteFile(t.path, buf.Bytes(), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", filepath.Base(t.path), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return []string{svgPath, csvPath, jsonPath}, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error

	if om.passesFile != nil {
		if err := om.passesFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
