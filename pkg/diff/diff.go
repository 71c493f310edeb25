package diff

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Field is one line of a flat record rendered as "name: value".
type Field struct {
	Name  string
	Value string
}

// Unified renders a line-oriented unified diff between two texts.
// Returns empty string if the texts are identical.
func Unified(before, after, beforeLabel, afterLabel string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	// Line mode: every line is diffed as a single token.
	beforeChars, afterChars, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffMain(beforeChars, afterChars, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n", beforeLabel)
	fmt.Fprintf(&b, "+++ %s\n", afterLabel)
	fmt.Fprintf(&b, "@@ -1,%d +1,%d @@\n", countLines(before), countLines(after))

	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range splitLines(d.Text) {
			b.WriteString(prefix)
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// Records renders two flat records as a unified diff. Field order is taken
// from each side as given.
func Records(before, after []Field, beforeLabel, afterLabel string) string {
	return Unified(formatFields(before), formatFields(after), beforeLabel, afterLabel)
}

func formatFields(fields []Field) string {
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "%s: %s\n", f.Name, f.Value)
	}
	return b.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func countLines(text string) int {
	return len(splitLines(text))
}
