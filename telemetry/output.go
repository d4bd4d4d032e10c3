package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/rangeday/steelrange/config"
)

// OutputManager handles structured shot output with CSV logging.
// A nil manager is valid and discards everything, so callers can run
// without an output directory configured.
type OutputManager struct {
	dir string

	trajectoryFile   *os.File
	trajectoryHeader bool

	impactFile   *os.File
	impactHeader bool

	windFile   *os.File
	windHeader bool
}

// NewOutputManager creates the output directory and opens the CSV
// files. An empty dir returns a nil manager without error.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	m := &OutputManager{dir: dir}

	var err error
	if m.trajectoryFile, err = os.Create(filepath.Join(dir, "trajectory.csv")); err != nil {
		return nil, fmt.Errorf("create trajectory log: %w", err)
	}
	if m.impactFile, err = os.Create(filepath.Join(dir, "impacts.csv")); err != nil {
		m.Close()
		return nil, fmt.Errorf("create impact log: %w", err)
	}
	if m.windFile, err = os.Create(filepath.Join(dir, "wind.csv")); err != nil {
		m.Close()
		return nil, fmt.Errorf("create wind log: %w", err)
	}
	return m, nil
}

// Dir returns the output directory, or "" for a nil manager.
func (m *OutputManager) Dir() string {
	if m == nil {
		return ""
	}
	return m.dir
}

// WriteTrajectory appends trajectory samples to trajectory.csv.
func (m *OutputManager) WriteTrajectory(records []TrajectoryRecord) error {
	if m == nil || len(records) == 0 {
		return nil
	}
	if !m.trajectoryHeader {
		m.trajectoryHeader = true
		return gocsv.Marshal(records, m.trajectoryFile)
	}
	return gocsv.MarshalWithoutHeaders(records, m.trajectoryFile)
}

// WriteImpact appends one impact row to impacts.csv.
func (m *OutputManager) WriteImpact(record ImpactRecord) error {
	if m == nil {
		return nil
	}
	rows := []ImpactRecord{record}
	if !m.impactHeader {
		m.impactHeader = true
		return gocsv.Marshal(rows, m.impactFile)
	}
	return gocsv.MarshalWithoutHeaders(rows, m.impactFile)
}

// WriteWind appends wind field samples to wind.csv.
func (m *OutputManager) WriteWind(records []WindRecord) error {
	if m == nil || len(records) == 0 {
		return nil
	}
	if !m.windHeader {
		m.windHeader = true
		return gocsv.Marshal(records, m.windFile)
	}
	return gocsv.MarshalWithoutHeaders(records, m.windFile)
}

// WriteConfig snapshots the effective configuration next to the logs.
func (m *OutputManager) WriteConfig(cfg *config.Config) error {
	if m == nil || cfg == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(m.dir, "config.yaml"))
}

// Close flushes and closes all output files, returning the first error.
func (m *OutputManager) Close() error {
	if m == nil {
		return nil
	}
	var firstErr error
	for _, f := range []*os.File{m.trajectoryFile, m.impactFile, m.windFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	m.trajectoryFile, m.impactFile, m.windFile = nil, nil, nil
	return firstErr
}
