package gen

import (
	"bytes"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"domainer/internal/common"
)

// FormatError is returned when rendered code is not valid Go. Source holds
// the unformatted output.
type FormatError struct {
	Unit   string
	Source []byte
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("formatting %s: %v", e.Unit, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Render serializes a unit into formatted Go source.
func Render(unit *Unit) ([]byte, error) {
	var buf bytes.Buffer
	if err := unitTemplate.Execute(&buf, unit); err != nil {
		return nil, fmt.Errorf("executing template for %s: %w", unit.PkgPath, err)
	}

	formatted, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, &FormatError{Unit: unit.Path(), Source: buf.Bytes(), Err: err}
	}

	return formatted, nil
}

var unitTemplate = template.Must(template.New("unit").Funcs(template.FuncMap{
	"header":  func() string { return common.GeneratedHeader },
	"comment": commentLines,
}).Parse(`{{header}}

package {{.PkgName}}
{{if .Imports}}
import (
{{range .Imports}}	{{if .Alias}}{{.Alias}} {{end}}"{{.Path}}"
{{end}})
{{end}}
{{range .Funcs}}
{{if .Doc}}{{comment .Doc}}
{{end}}func {{.Name}}(in {{.In}}) {{.Out}} {
{{- if .Arms}}
	//exhaustive:enforce
	switch in {
{{- range .Arms}}
	case {{.Case}}:
		return {{.Result}}
{{- end}}
	}

	panic({{.Panic}})
{{- else}}
	out := {{.Out}}{}
{{range .Assignments}}{{if .IsPointer}}
	if in.{{.Source}} != nil {
		v := {{.Call}}(*in.{{.Source}})
		out.{{.Target}} = &v
	}
{{else if .IsSlice}}
	if in.{{.Source}} != nil {
		out.{{.Target}} = make([]{{.Elem}}, len(in.{{.Source}}))
		for i, v := range in.{{.Source}} {
			out.{{.Target}}[i] = {{.Call}}(v)
		}
	}
{{else}}	out.{{.Target}} = {{.Expr}}
{{end}}{{end}}
	return out
{{- end}}
}
{{end}}`))

func commentLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = "// " + l
	}

	return strings.Join(lines, "\n")
}
