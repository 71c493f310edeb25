package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexisbeaulieu97/bucketsync/internal/model"
	"github.com/alexisbeaulieu97/bucketsync/pkg/diff"
)

type styles struct {
	changed   lipgloss.Style
	unchanged lipgloss.Style
	failed    lipgloss.Style
	check     lipgloss.Style
	muted     lipgloss.Style
	added     lipgloss.Style
	removed   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		plain := lipgloss.NewStyle()
		return styles{plain, plain, plain, plain, plain, plain, plain}
	}

	return styles{
		changed:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D29922")),
		unchanged: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950")),
		failed:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F85149")),
		check:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#58A6FF")),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("#8B949E")),
		added:     lipgloss.NewStyle().Foreground(lipgloss.Color("#3FB950")),
		removed:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F85149")),
	}
}

func (s styles) status(o model.Outcome) string {
	switch {
	case o.Failed:
		return s.failed.Render("failed")
	case o.Changed && o.CheckMode:
		return s.check.Render("would change")
	case o.Changed:
		return s.changed.Render("changed")
	default:
		return s.unchanged.Render("ok")
	}
}

func (s styles) diffLine(line string) string {
	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "@@"):
		return s.muted.Render(line)
	case strings.HasPrefix(line, "+"):
		return s.added.Render(line)
	case strings.HasPrefix(line, "-"):
		return s.removed.Render(line)
	default:
		return line
	}
}

type textRenderer struct {
	styles styles
}

func (r textRenderer) Render(w io.Writer, outcomes []model.Outcome) error {
	var b strings.Builder

	for i, o := range outcomes {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s] %s %s\n", r.styles.status(o), o.Kind, o.Key)
		fmt.Fprintf(&b, "  %s\n", o.Msg)
		if o.UUID != "" {
			fmt.Fprintf(&b, "  %s %s\n", r.styles.muted.Render("uuid:"), o.UUID)
		}

		if o.Diff != nil && o.Diff.Changed() {
			unified := diff.Records(fields(*o.Diff, o.Diff.Before), fields(*o.Diff, o.Diff.After), "remote", "desired")
			for _, line := range strings.Split(strings.TrimRight(unified, "\n"), "\n") {
				fmt.Fprintf(&b, "  %s\n", r.styles.diffLine(line))
			}
		}
	}

	if len(outcomes) > 1 {
		fmt.Fprintf(&b, "\n%s\n", r.styles.muted.Render(Summarize(outcomes).String()))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func fields(view model.DiffView, side model.Side) []diff.Field {
	keyField := view.KeyField
	if keyField == "" {
		keyField = "key"
	}
	return []diff.Field{
		{Name: keyField, Value: side.Key},
		{Name: "value", Value: side.Value},
		{Name: "secured", Value: strconv.FormatBool(side.Secured)},
	}
}
