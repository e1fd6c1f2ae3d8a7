package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quantmind-br/bundlecheck/internal/domain"
)

// Format selects how a report is rendered
type Format string

const (
	// FormatText prints OK/FAIL lines like the classic verify scripts
	FormatText Format = "text"
	// FormatJSON prints the report as indented JSON
	FormatJSON Format = "json"
	// FormatYAML prints the report as YAML
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format: %q", name)
	}
}

// Writer renders reports to the process streams
type Writer struct {
	format Format
	stdout io.Writer
	stderr io.Writer
}

// WriterOptions contains options for the writer
type WriterOptions struct {
	Format Format
	Stdout io.Writer
	Stderr io.Writer
}

// Ensure Writer implements domain.ReportWriter
var _ domain.ReportWriter = (*Writer)(nil)

// NewWriter creates a new report writer
func NewWriter(opts WriterOptions) *Writer {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	return &Writer{
		format: opts.Format,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
	}
}

// Write renders the report. Text output goes to stdout when the report
// passed and to stderr, one line per issue, when it failed.
func (w *Writer) Write(report *domain.Report) error {
	switch w.format {
	case FormatJSON:
		return w.writeJSON(report)
	case FormatYAML:
		return w.writeYAML(report)
	default:
		return w.writeText(report)
	}
}

func (w *Writer) writeText(report *domain.Report) error {
	if report.OK {
		_, err := fmt.Fprintf(w.stdout, "OK\t%s verified\n", report.Subject)
		return err
	}
	for _, issue := range report.Issues {
		if _, err := fmt.Fprintf(w.stderr, "FAIL\t%s\n", issue); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeJSON(report *domain.Report) error {
	enc := json.NewEncoder(w.stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

func (w *Writer) writeYAML(report *domain.Report) error {
	enc := yaml.NewEncoder(w.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}
