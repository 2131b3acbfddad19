// Package diagfmt renders diagnostics for terminal output. It owns all
// formatting concerns so internal/diag can stay data-only.
package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"peregrine/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	originColor  = color.New(color.Faint)
)

func severityLabel(sev diag.Severity, useColor bool) string {
	label := sev.String()
	if !useColor {
		return label
	}
	switch sev {
	case diag.SevError:
		return errorColor.Sprint(label)
	case diag.SevWarning:
		return warningColor.Sprint(label)
	default:
		return infoColor.Sprint(label)
	}
}

// RenderDiagnostic writes one diagnostic with its notes.
func RenderDiagnostic(w io.Writer, d diag.Diagnostic, useColor bool) {
	origin := d.Origin.String()
	if useColor {
		origin = originColor.Sprint(origin)
	}
	fmt.Fprintf(w, "%s %s: %s (%s)\n", severityLabel(d.Severity, useColor), origin, d.Message, d.Code.ID())
	for _, note := range d.Notes {
		noteOrigin := note.Origin.String()
		if useColor {
			noteOrigin = originColor.Sprint(noteOrigin)
		}
		fmt.Fprintf(w, "  note %s: %s\n", noteOrigin, note.Msg)
	}
}

// RenderBag sorts, dedups and writes every diagnostic in the bag, returning
// the number rendered.
func RenderBag(w io.Writer, b *diag.Bag, useColor bool) int {
	if b == nil || b.Len() == 0 {
		return 0
	}
	b.Sort()
	b.Dedup()
	for _, d := range b.Items() {
		RenderDiagnostic(w, d, useColor)
	}
	return b.Len()
}
