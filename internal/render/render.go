// Package render turns assessment reports into JSON, Markdown, HTML and
// XLSX documents.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/SquizAI/humanGLue-brain-sub005/internal/domain/model"
)

// ErrUnknownFormat is returned for unsupported export formats.
var ErrUnknownFormat = errors.New("unknown report format")

// Format is an export format.
type Format string

// Formats.
const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatXLSX     Format = "xlsx"
)

// ParseFormat accepts a format name or a common alias. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Extension returns the file extension of f, without the dot.
func (f Format) Extension() string {
	if f == FormatMarkdown {
		return "md"
	}
	return string(f)
}

// Render writes rep to w in format f.
func Render(w io.Writer, rep *model.Report, f Format) error {
	if rep == nil {
		return fmt.Errorf("render: nil report")
	}
	switch f {
	case FormatJSON:
		return JSON(w, rep)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(rep))
		return err
	case FormatHTML:
		_, err := w.Write(HTML(rep))
		return err
	case FormatXLSX:
		return XLSX(w, rep)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// JSON writes the indented JSON encoding of rep. Equal reports encode to
// equal bytes.
func JSON(w io.Writer, rep *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return fmt.Errorf("render json: %w", err)
	}
	return nil
}
