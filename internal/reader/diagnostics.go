package reader

import (
	"sync"

	"github.com/joshuapare/hlpkit/pkg/types"
)

// diagnosticCollector accumulates diagnostics during session operations.
// It's nil in normal mode (zero overhead), and only allocated when
// OpenOptions.CollectDiagnostics is true or Diagnose is called.
type diagnosticCollector struct {
	report *types.DiagnosticReport
	mu     sync.Mutex // iterators of one session may run on several goroutines
}

func newDiagnosticCollector(size int) *diagnosticCollector {
	r := types.NewDiagnosticReport()
	r.FileSize = int64(size)
	return &diagnosticCollector{report: r}
}

// record adds a diagnostic to the collection.
func (dc *diagnosticCollector) record(d types.Diagnostic) {
	if dc == nil {
		return // hot path: no-op when collector is nil
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.report.Add(d)
}

// getReport returns the diagnostic report, finalizing it first.
func (dc *diagnosticCollector) getReport() *types.DiagnosticReport {
	if dc == nil {
		return nil
	}

	dc.mu.Lock()
	defer dc.mu.Unlock()

	dc.report.Finalize()
	return dc.report
}

// Helper functions for creating common diagnostics

// diagStructure creates a structure corruption diagnostic.
func diagStructure(severity types.Severity, offset uint64, structure, file, issue string, expected, actual any) types.Diagnostic {
	return types.Diagnostic{
		Severity:  severity,
		Category:  types.DiagStructure,
		Offset:    offset,
		Structure: structure,
		File:      file,
		Issue:     issue,
		Expected:  expected,
		Actual:    actual,
	}
}

// diagData creates a data corruption diagnostic.
func diagData(severity types.Severity, offset uint64, structure, file, issue string) types.Diagnostic {
	return types.Diagnostic{
		Severity:  severity,
		Category:  types.DiagData,
		Offset:    offset,
		Structure: structure,
		File:      file,
		Issue:     issue,
	}
}

// diagIntegrity creates an integrity issue diagnostic.
func diagIntegrity(severity types.Severity, offset uint64, structure, file, issue string, actual any) types.Diagnostic {
	return types.Diagnostic{
		Severity:  severity,
		Category:  types.DiagIntegrity,
		Offset:    offset,
		Structure: structure,
		File:      file,
		Issue:     issue,
		Actual:    actual,
	}
}

func (dc *diagnosticCollector) setPath(path string) {
	if dc == nil {
		return
	}
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.report.FilePath = path
}
