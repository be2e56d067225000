package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// -----------------------------------------------------------------------------
// Diagnostics
// -----------------------------------------------------------------------------
//
// Opt-in via OpenOptions.CollectDiagnostics. Every recoverable problem met
// while reading (skipped directory entries, topic records that failed to
// decode, resynchronised blocks, unresolved external references) is
// recorded with its offset, so a damaged file can be examined after the
// fact instead of failing on the first error.

// Severity classifies how serious a diagnostic issue is.
type Severity int

const (
	SevInfo     Severity = iota // Informational (unusual but valid)
	SevWarning                  // Content skipped, the rest is readable
	SevError                    // Record or file inaccessible
	SevCritical                 // Structure unusable
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	case SevCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// DiagCategory classifies the type of issue found.
type DiagCategory int

const (
	DiagStructure DiagCategory = iota // header, directory or B+tree problems
	DiagData                          // record contents, decompression
	DiagIntegrity                     // links and references broken
)

func (c DiagCategory) String() string {
	switch c {
	case DiagStructure:
		return "STRUCTURE"
	case DiagData:
		return "DATA"
	case DiagIntegrity:
		return "INTEGRITY"
	default:
		return "UNKNOWN"
	}
}

// Diagnostic is a single issue.
type Diagnostic struct {
	Severity Severity     `json:"severity"`
	Category DiagCategory `json:"category"`

	// Offset is the absolute file offset, or the TOPICPOS for topic records
	// (Structure "TOPICLINK").
	Offset    uint64 `json:"offset"`
	Structure string `json:"structure"` // "HEADER", "DIRECTORY", "TOPICBLOCK", "TOPICLINK", ...
	File      string `json:"file,omitempty"`

	Issue    string `json:"issue"`
	Expected any    `json:"expected,omitempty"`
	Actual   any    `json:"actual,omitempty"`
}

// DiagnosticReport collects the diagnostics of one session.
type DiagnosticReport struct {
	FilePath string `json:"file_path,omitempty"`
	FileSize int64  `json:"file_size"`

	Diagnostics []Diagnostic `json:"diagnostics"`
	Summary     DiagSummary  `json:"summary"`

	BySeverity  map[Severity][]Diagnostic `json:"by_severity,omitempty"`
	ByStructure map[string][]Diagnostic   `json:"by_structure,omitempty"`
	ByOffset    []Diagnostic              `json:"by_offset,omitempty"` // sorted by offset
}

// DiagSummary provides quick statistics.
type DiagSummary struct {
	Critical int `json:"critical"`
	Errors   int `json:"errors"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// NewDiagnosticReport creates an empty report.
func NewDiagnosticReport() *DiagnosticReport {
	return &DiagnosticReport{
		BySeverity:  make(map[Severity][]Diagnostic),
		ByStructure: make(map[string][]Diagnostic),
	}
}

// Add adds a diagnostic to the report and updates indices.
func (r *DiagnosticReport) Add(d Diagnostic) {
	r.Diagnostics = append(r.Diagnostics, d)

	switch d.Severity {
	case SevCritical:
		r.Summary.Critical++
	case SevError:
		r.Summary.Errors++
	case SevWarning:
		r.Summary.Warnings++
	case SevInfo:
		r.Summary.Info++
	}

	r.BySeverity[d.Severity] = append(r.BySeverity[d.Severity], d)
	r.ByStructure[d.Structure] = append(r.ByStructure[d.Structure], d)
}

// Finalize sorts diagnostics by offset and prepares for output.
func (r *DiagnosticReport) Finalize() {
	r.ByOffset = make([]Diagnostic, len(r.Diagnostics))
	copy(r.ByOffset, r.Diagnostics)
	sort.SliceStable(r.ByOffset, func(i, j int) bool {
		return r.ByOffset[i].Offset < r.ByOffset[j].Offset
	})
}

// HasErrors returns true if any errors or critical issues were found.
func (r *DiagnosticReport) HasErrors() bool {
	return r.Summary.Critical > 0 || r.Summary.Errors > 0
}

// HasAnyIssues returns true if any issues were found.
func (r *DiagnosticReport) HasAnyIssues() bool {
	return len(r.Diagnostics) > 0
}

// -----------------------------------------------------------------------------
// Output Formatters
// -----------------------------------------------------------------------------

// FormatJSON returns the report as formatted JSON (2-space indentation).
func (r *DiagnosticReport) FormatJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FormatText returns a human-readable text report.
func (r *DiagnosticReport) FormatText() string {
	var b strings.Builder

	b.WriteString(strings.Repeat("=", 79) + "\n")
	b.WriteString("Help File Diagnostic Report\n")
	b.WriteString(strings.Repeat("=", 79) + "\n\n")

	if r.FilePath != "" {
		fmt.Fprintf(&b, "File:      %s\n", r.FilePath)
	}
	fmt.Fprintf(&b, "Size:      %d bytes\n\n", r.FileSize)

	b.WriteString("SUMMARY\n")
	b.WriteString(strings.Repeat("-", 79) + "\n")
	fmt.Fprintf(&b, "  Critical: %d\n", r.Summary.Critical)
	fmt.Fprintf(&b, "  Errors:   %d\n", r.Summary.Errors)
	fmt.Fprintf(&b, "  Warnings: %d\n", r.Summary.Warnings)
	fmt.Fprintf(&b, "  Info:     %d\n\n", r.Summary.Info)

	if len(r.Diagnostics) == 0 {
		b.WriteString("No issues found.\n")
		return b.String()
	}

	b.WriteString("DIAGNOSTICS\n")
	b.WriteString(strings.Repeat("-", 79) + "\n\n")

	for _, severity := range []Severity{SevCritical, SevError, SevWarning, SevInfo} {
		diags := r.BySeverity[severity]
		if len(diags) == 0 {
			continue
		}

		fmt.Fprintf(&b, "%s (%d)\n", severity, len(diags))
		b.WriteString(strings.Repeat("~", 79) + "\n")

		for i, d := range diags {
			fmt.Fprintf(&b, "\n%d. [%s/%s] at offset 0x%X\n", i+1, d.Structure, d.Category, d.Offset)
			fmt.Fprintf(&b, "   %s\n", d.Issue)
			if d.File != "" {
				fmt.Fprintf(&b, "   File:     %s\n", d.File)
			}
			if d.Expected != nil {
				fmt.Fprintf(&b, "   Expected: %v\n", d.Expected)
			}
			if d.Actual != nil {
				fmt.Fprintf(&b, "   Actual:   %v\n", d.Actual)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

// FormatTextCompact returns a compact one-line-per-issue text format. Call
// Finalize first.
func (r *DiagnosticReport) FormatTextCompact() string {
	var b strings.Builder

	for _, d := range r.ByOffset {
		fmt.Fprintf(&b, "0x%08X [%s/%s/%s] %s\n",
			d.Offset, d.Severity, d.Structure, d.Category, d.Issue)
	}

	if len(r.Diagnostics) == 0 {
		b.WriteString("No issues found.\n")
	}

	return b.String()
}
