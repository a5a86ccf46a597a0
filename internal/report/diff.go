package report

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Diff compares two texts line by line. It returns the lines prefixed
// with "+ ", "- " or "  " and whether any line differs.
func Diff(before, after string) (string, bool) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	changed := false
	for _, d := range diffs {
		prefix, style := "  ", mutedStyle
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, style, changed = "+ ", addStyle, true
		case diffmatchpatch.DiffDelete:
			prefix, style, changed = "- ", delStyle, true
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(style.Render(prefix + strings.TrimSuffix(line, "\n")))
			out.WriteByte('\n')
		}
	}
	return out.String(), changed
}
