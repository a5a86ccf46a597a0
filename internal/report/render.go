package report

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/zjrosen/ofxkit/internal/aggregate"
)

// Render writes one block per result followed by a summary line. It
// returns the number of invalid files.
func Render(w io.Writer, results []Result) (int, error) {
	var b strings.Builder
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
		renderResult(&b, r)
	}
	summary := fmt.Sprintf("%d valid, %d invalid", len(results)-failed, failed)
	if failed > 0 {
		b.WriteString(failStyle.Render(summary))
	} else {
		b.WriteString(okStyle.Render(summary))
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return failed, err
}

func renderResult(b *strings.Builder, r Result) {
	meta := r.Kind
	if r.Version != 0 {
		meta = fmt.Sprintf("%s, v%d", r.Kind, r.Version)
	}
	if r.OK() {
		fmt.Fprintf(b, "%s %s %s\n", okStyle.Render("ok  "), pathStyle.Render(r.Path), mutedStyle.Render("("+meta+")"))
	} else {
		code := string(r.Code())
		if code == "" {
			code = "unreadable"
		}
		fmt.Fprintf(b, "%s %s %s\n", failStyle.Render("FAIL"), pathStyle.Render(r.Path), codeStyle.Render(code))
		if len(r.Members) == 0 {
			b.WriteString(detailStyle.Render(r.Err.Error()))
			b.WriteByte('\n')
		}
		for _, m := range r.Members {
			line := fmt.Sprintf("member %d <%s> %s: %v", m.Index, m.Tag, aggregate.CodeOf(m.Err), memberCause(m.Err))
			b.WriteString(detailStyle.Render(line))
			b.WriteByte('\n')
		}
	}
	for _, wn := range r.Warnings {
		b.WriteString(detailStyle.Render(warnStyle.Render("warning " + wn.String())))
		b.WriteByte('\n')
	}
}

// memberCause trims the code prefix an *aggregate.Error repeats.
func memberCause(err error) string {
	var e *aggregate.Error
	if errors.As(err, &e) {
		return strings.TrimPrefix(e.Error(), string(e.Code)+": ")
	}
	return err.Error()
}
