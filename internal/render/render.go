// Package render writes reconciliation outcomes for people and for the host
// runtime.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/alexisbeaulieu97/bucketsync/internal/model"
)

// Format selects an output renderer.
type Format string

const (
	FormatJSON  Format = "json"
	FormatText  Format = "text"
	FormatTable Format = "table"
)

// Formats lists the accepted values of --output.
func Formats() []string {
	return []string{string(FormatJSON), string(FormatText), string(FormatTable)}
}

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatText, FormatTable:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want one of %s)", name, strings.Join(Formats(), ", "))
	}
}

// Options tune the human renderers.
type Options struct {
	// Color enables ANSI styling; set it only when writing to a terminal.
	Color bool
	// Batch renders a list of outcomes even when there is only one.
	Batch bool
}

// Renderer writes outcomes to w.
type Renderer interface {
	Render(w io.Writer, outcomes []model.Outcome) error
}

// New returns the renderer for format.
func New(format Format, opts Options) (Renderer, error) {
	switch format {
	case FormatJSON, "":
		return jsonRenderer{batch: opts.Batch}, nil
	case FormatText:
		return textRenderer{styles: newStyles(opts.Color)}, nil
	case FormatTable:
		return tableRenderer{color: opts.Color}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// Summary aggregates a batch of outcomes.
type Summary struct {
	Total     int
	Changed   int
	Failed    int
	Unchanged int
}

// Summarize counts outcomes by result.
func Summarize(outcomes []model.Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Failed:
			s.Failed++
		case o.Changed:
			s.Changed++
		default:
			s.Unchanged++
		}
	}
	return s
}

type jsonRenderer struct {
	batch bool
}

type batchDocument struct {
	Changed bool            `json:"changed"`
	Failed  bool            `json:"failed,omitempty"`
	Msg     string          `json:"msg"`
	Results []model.Outcome `json:"results"`
}

// Render writes the single result document, or a batch document wrapping
// every outcome.
func (r jsonRenderer) Render(w io.Writer, outcomes []model.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if !r.batch && len(outcomes) == 1 {
		return enc.Encode(outcomes[0])
	}

	summary := Summarize(outcomes)
	results := outcomes
	if results == nil {
		results = []model.Outcome{}
	}
	return enc.Encode(batchDocument{
		Changed: summary.Changed > 0,
		Failed:  summary.Failed > 0,
		Msg:     summary.String(),
		Results: results,
	})
}

func (s Summary) String() string {
	return fmt.Sprintf("%d resources: %d changed, %d unchanged, %d failed", s.Total, s.Changed, s.Unchanged, s.Failed)
}
