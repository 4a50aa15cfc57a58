package table

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

var funcs = template.FuncMap{
	"cellStyle": func(width int, sticky *Sticky, header bool) template.CSS {
		var b strings.Builder
		fmt.Fprintf(&b, "min-width: %dpx; width: %dpx;", width, width)
		if sticky != nil {
			fmt.Fprintf(&b, " position: sticky; %s: %dpx;", sticky.Side, sticky.Offset)
			if header {
				b.WriteString(" z-index: 3;")
			} else {
				b.WriteString(" z-index: 1;")
			}
		}
		return template.CSS(b.String())
	},
	"tableClass": func(v View) string {
		classes := []string{"table"}
		if v.Bordered {
			classes = append(classes, "table-bordered")
		}
		if v.Striped {
			classes = append(classes, "table-striped")
		}
		if v.Hover {
			classes = append(classes, "table-hover")
		}
		if v.StickyHeader {
			classes = append(classes, "table-sticky-header")
		}
		return strings.Join(classes, " ")
	},
}

var tmpl = template.Must(template.New("table").Funcs(funcs).Parse(`
{{- define "cell" -}}
{{- if eq .Kind "select" -}}
<input type="checkbox" class="row-select"{{if .Checked}} checked{{end}}>
{{- else if eq .Kind "checkbox" -}}
<input type="checkbox" disabled{{if .Checked}} checked{{end}}>
{{- else if eq .Kind "dropdown" -}}
{{- $selected := .Selected -}}
<select name="{{.Key}}">{{if .Text}}<option value="">{{.Text}}</option>{{end}}{{range .Options}}<option value="{{.Value}}"{{if eq .Value $selected}} selected{{end}}>{{.Label}}</option>{{end}}</select>
{{- else if eq .Kind "actions" -}}
{{range .Actions}}<button type="button" class="btn btn-{{or .Variant "default"}}" data-action="{{.Name}}">{{.Label}}</button>{{end}}
{{- else -}}
{{.Text}}
{{- end -}}
{{- end -}}
<div class="table-container"{{if .MaxHeight}} style="max-height: {{.MaxHeight}}px; overflow-y: auto;"{{end}}>
<table class="{{tableClass .}}">
<thead><tr>
{{- range .Headers}}
<th data-key="{{.Key}}" style="{{cellStyle .Width .Sticky true}}">
{{- if eq .Kind "select"}}<input type="checkbox" class="select-all" data-state="{{$.SelectAll}}"{{if eq $.SelectAll "all"}} checked{{end}}>{{else}}{{.Text}}{{end -}}
</th>
{{- end}}
</tr></thead>
<tbody>
{{- range .Rows}}
<tr data-row="{{.Key}}"{{if .Selected}} class="selected"{{end}}>
{{- range .Cells}}
<td data-key="{{.Key}}" style="{{cellStyle .Width .Sticky false}}">{{template "cell" .}}</td>
{{- end}}
</tr>
{{- else}}
<tr class="empty"><td colspan="{{len .Headers}}">{{.EmptyText}}</td></tr>
{{- end}}
</tbody>
</table>
</div>
`))

// WriteHTML renders the view as an HTML fragment.
func WriteHTML(w io.Writer, v View) error {
	return tmpl.Execute(w, v)
}
