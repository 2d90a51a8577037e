package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/cyclops-charge/config"
)

// OutputManager handles structured run output with CSV logging.
type OutputManager struct {
	dir           string
	chargeFile    *os.File
	subsFile      *os.File
	perfFile      *os.File
	bookmarksFile *os.File

	// Track if headers have been written
	chargeHeaderWritten    bool
	subsHeaderWritten      bool
	perfHeaderWritten      bool
	bookmarksHeaderWritten bool
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

	f, err := os.Create(filepath.Join(dir, "charge.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating charge.csv: %w", err)
	}
	om.chargeFile = f

	f, err = os.Create(filepath.Join(dir, "subs.csv"))
	if err != nil {
		om.chargeFile.Close()
		return nil, fmt.Errorf("creating subs.csv: %w", err)
	}
	om.subsFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.chargeFile.Close()
		om.subsFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	f, err = os.Create(filepath.Join(dir, "bookmarks.csv"))
	if err != nil {
		om.chargeFile.Close()
		om.subsFile.Close()
		om.perfFile.Close()
		return nil, fmt.Errorf("creating bookmarks.csv: %w", err)
	}
	om.bookmarksFile = f

	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// writeRecords marshals records, writing the header only the first time.
func writeRecords(f *os.File, headerWritten *bool, records any) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// WriteCharge writes a window stats record to charge.csv.
func (om *OutputManager) WriteCharge(stats WindowStats) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.chargeFile, &om.chargeHeaderWritten, []WindowStats{stats}); err != nil {
		return fmt.Errorf("writing charge stats: %w", err)
	}
	return nil
}

// WriteSubs writes per-submarine records to subs.csv.
func (om *OutputManager) WriteSubs(subs []SubStats) error {
	if om == nil || len(subs) == 0 {
		return nil
	}
	if err := writeRecords(om.subsFile, &om.subsHeaderWritten, subs); err != nil {
		return fmt.Errorf("writing sub stats: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int32) error {
	if om == nil {
		return nil
	}
	if err := writeRecords(om.perfFile, &om.perfHeaderWritten, []PerfStatsCSV{stats.ToCSV(windowEnd)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteBookmarks appends triggered bookmarks to bookmarks.csv.
func (om *OutputManager) WriteBookmarks(bookmarks []Bookmark) error {
	if om == nil || len(bookmarks) == 0 {
		return nil
	}
	if err := writeRecords(om.bookmarksFile, &om.bookmarksHeaderWritten, bookmarks); err != nil {
		return fmt.Errorf("writing bookmarks: %w", err)
	}
	return nil
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
	for _, f := range []*os.File{om.chargeFile, om.subsFile, om.perfFile, om.bookmarksFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
