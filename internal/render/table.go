package render

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/alexisbeaulieu97/bucketsync/internal/model"
)

const maxMessageWidth = 80

type tableRenderer struct {
	color bool
}

func (r tableRenderer) Render(w io.Writer, outcomes []model.Outcome) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	if r.color {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleDefault)
	}

	t.AppendHeader(table.Row{"Kind", "Key", "Action", "Changed", "Message"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Message", WidthMax: maxMessageWidth},
	})

	for _, o := range outcomes {
		action := string(o.Action)
		if action == "" {
			action = string(model.ActionNone)
		}
		t.AppendRow(table.Row{o.Kind, o.Key, action, r.changed(o), o.Msg})
	}

	if len(outcomes) > 1 {
		s := Summarize(outcomes)
		t.AppendFooter(table.Row{"", "", "", strconv.Itoa(s.Changed) + "/" + strconv.Itoa(s.Total), s.String()})
	}

	t.Render()
	return nil
}

func (r tableRenderer) changed(o model.Outcome) string {
	label := strconv.FormatBool(o.Changed)
	if o.Failed {
		label = "failed"
	}
	if !r.color {
		return label
	}

	switch {
	case o.Failed:
		return text.FgRed.Sprint(label)
	case o.Changed:
		return text.FgYellow.Sprint(label)
	default:
		return text.FgGreen.Sprint(label)
	}
}
