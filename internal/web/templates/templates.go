// Package templates renders the HTML fragments returned to browser and HTMX
// clients.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/bulkload/internal/service"
)

// ErrorAlert renders a user-facing error with its support code.
func ErrorAlert(msg, action, code string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p>%s</p>`,
			templ.EscapeString(msg))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<small>Code: %s</small></div>`, templ.EscapeString(code))
		return err
	})
}

// UploadReport renders the outcome of an upload, listing the messages of
// every rejected line.
func UploadReport(r *service.Report) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		ew := &errWriter{w: w}
		ew.printf(`<section class="upload-report" data-status="%s">`, templ.EscapeString(string(r.Status)))
		ew.printf(`<h2>%s: %s</h2>`, templ.EscapeString(r.FileName), templ.EscapeString(string(r.Status)))
		ew.printf(`<p>%d valid records, %d imported into %s.</p>`, r.Valid, r.Imported, templ.EscapeString(r.Target))

		if len(r.Errors) > 0 {
			ew.printf(`<table class="upload-errors"><thead><tr><th>Line</th><th>Message</th></tr></thead><tbody>`)
			for _, le := range r.Errors {
				for _, m := range le.Messages {
					line := "-"
					if le.Line > 0 {
						line = fmt.Sprint(le.Line)
					}
					ew.printf(`<tr><td>%s</td><td>%s</td></tr>`, line, templ.EscapeString(m.Text))
				}
			}
			ew.printf(`</tbody></table>`)
		}
		ew.printf(`<small>Upload %s</small></section>`, templ.EscapeString(r.UploadID))
		return ew.err
	})
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
