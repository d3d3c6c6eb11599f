package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const summaryFileName = "run_summary.json"

// SummaryPath returns the run summary file path for this namespace.
func (r *Run) SummaryPath() string {
	return filepath.Join(r.Dir(), summaryFileName)
}

// WriteSummary persists the run-level status record, overwriting any
// prior summary for this run.
func (r *Run) WriteSummary(summary any) error {
	raw, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal run summary: %w", err)
	}
	if err := os.MkdirAll(r.Dir(), 0o755); err != nil {
		return fmt.Errorf("registry: create run directory: %w", err)
	}
	if err := writeAtomic(r.SummaryPath(), append(raw, '\n')); err != nil {
		return fmt.Errorf("registry: write run summary: %w", err)
	}
	return nil
}

// ReadSummary decodes the stored run summary into out. It returns
// ErrNotFound when no summary has been written.
func (r *Run) ReadSummary(out any) error {
	raw, err := os.ReadFile(r.SummaryPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: run summary", ErrNotFound)
		}
		return fmt.Errorf("registry: read run summary: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("registry: parse run summary: %w", err)
	}
	return nil
}
