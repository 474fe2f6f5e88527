package gen

import (
	"fmt"
	"io"
	"strings"
)

// WriteDepfile writes a make-style dependency file: one rule per unit
// listing the input files it was generated from.
func WriteDepfile(w io.Writer, units []*Unit) error {
	for _, u := range units {
		deps := make([]string, len(u.Deps))
		for i, d := range u.Deps {
			deps[i] = escapeDep(d)
		}

		line := escapeDep(u.Path()) + ":"
		if len(deps) > 0 {
			line += " " + strings.Join(deps, " ")
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("writing depfile: %w", err)
		}
	}

	return nil
}

var depEscaper = strings.NewReplacer(" ", `\ `, "#", `\#`, "$", "$$")

func escapeDep(path string) string {
	return depEscaper.Replace(path)
}
