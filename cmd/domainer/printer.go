package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"domainer/internal/diagnostic"
)

// printer writes diagnostics and summaries, colored when enabled.
type printer struct {
	out   io.Writer
	err   io.Writer
	quiet bool

	errorColor   *color.Color
	warningColor *color.Color
	infoColor    *color.Color
	okColor      *color.Color
	dimColor     *color.Color
}

func newPrinter(cmd *cobra.Command) *printer {
	colorFlag, _ := cmd.Root().PersistentFlags().GetString("color")
	quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet")

	useColor := colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stderr))

	p := &printer{
		out:          cmd.OutOrStdout(),
		err:          cmd.ErrOrStderr(),
		quiet:        quiet,
		errorColor:   color.New(color.FgRed, color.Bold),
		warningColor: color.New(color.FgYellow, color.Bold),
		infoColor:    color.New(color.FgCyan),
		okColor:      color.New(color.FgGreen),
		dimColor:     color.New(color.Faint),
	}

	for _, c := range []*color.Color{p.errorColor, p.warningColor, p.infoColor, p.okColor, p.dimColor} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

// diagnostics prints every diagnostic, errors first. Infos are only shown
// when not quiet.
func (p *printer) diagnostics(d *diagnostic.Diagnostics) {
	for _, diag := range d.All() {
		if diag.Severity == diagnostic.SeverityInfo && p.quiet {
			continue
		}

		fmt.Fprintln(p.err, p.format(diag))
	}
}

func (p *printer) format(d diagnostic.Diagnostic) string {
	var b strings.Builder

	if d.Pos.IsValid() {
		b.WriteString(p.dimColor.Sprint(d.Pos.String()) + ": ")
	}

	var sev *color.Color

	switch d.Severity {
	case diagnostic.SeverityError:
		sev = p.errorColor
	case diagnostic.SeverityWarning:
		sev = p.warningColor
	default:
		sev = p.infoColor
	}

	b.WriteString(sev.Sprint(d.Severity.String()))
	b.WriteString(p.dimColor.Sprintf("[%s]", d.Code))
	b.WriteString(" ")

	if d.Decl != "" {
		b.WriteString(d.Decl)

		if d.Member != "" {
			b.WriteString("." + d.Member)
		}

		b.WriteString(": ")
	}

	b.WriteString(d.Message)

	if len(d.Suggestions) > 0 {
		b.WriteString(p.infoColor.Sprintf(" (did you mean %s?)", strings.Join(d.Suggestions, ", ")))
	}

	return b.String()
}

func (p *printer) status(format string, args ...any) {
	if p.quiet {
		return
	}

	fmt.Fprintln(p.err, p.okColor.Sprintf(format, args...))
}

func (p *printer) fatal(err error) {
	fmt.Fprintln(p.err, p.errorColor.Sprint("error: ")+err.Error())
}
