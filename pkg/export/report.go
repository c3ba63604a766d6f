package export

import "fmt"

// Format identifies an export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Column describes one report column. Width is a relative weight used by the
// PDF layout and ignored by CSV.
type Column struct {
	Key   string
	Label string
	Width float64
}

// Report is a titled table with optional summary lines.
type Report struct {
	Title   string
	Summary []string
	Columns []Column
	Rows    []map[string]string
}

// Renderer encodes a report.
type Renderer interface {
	Render(report Report) ([]byte, error)
	ContentType() string
	Extension() string
}

// ParseFormat validates a user supplied format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// RendererFor returns the renderer for format.
func RendererFor(format Format) Renderer {
	if format == FormatPDF {
		return NewPDFExporter()
	}
	return NewCSVExporter()
}

func (r Report) validate() error {
	if len(r.Columns) == 0 {
		return fmt.Errorf("report requires at least one column")
	}
	return nil
}
