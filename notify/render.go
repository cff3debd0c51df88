// Package notify emails selected log rows as an HTML table.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"logportal/models"
)

var emailTemplate = template.Must(template.New("email").Parse(`<html>
<head>
<style>
.web3-table {
    width: 100%;
    border-collapse: collapse;
    font-family: 'Segoe UI', Arial, sans-serif;
    background: #fff;
    box-shadow: 0 2px 12px rgba(0,0,0,0.06);
}
.web3-table th {
    background: #f7f7fa;
    color: #009a44;
    font-weight: bold;
    padding: 8px;
    border-bottom: 2px solid #e5e5e5;
}
.web3-table td {
    padding: 8px;
    border-bottom: 1px solid #e5e5e5;
    color: #222;
}
</style>
</head>
<body>
<h2>{{.Heading}}</h2>
<table class="web3-table">
<thead>
<tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
</thead>
<tbody>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</tbody>
</table>
</body>
</html>
`))

type emailView struct {
	Heading string
	Columns []string
	Rows    [][]string
}

// Subject returns the message subject for an optional application label.
func Subject(appLabel string) string {
	return "Selected Error Logs" + labelSuffix(appLabel)
}

// PlainText returns the text/plain body.
func PlainText(appLabel string) string {
	return fmt.Sprintf("Please find the selected error logs%s below.", labelSuffix(appLabel))
}

// RenderHTML renders rows as a styled HTML document. Cell values are escaped.
// Columns are the union of all row keys in first-seen order; a row missing a
// column gets an empty cell.
func RenderHTML(rows []models.Row, appLabel string) (string, error) {
	columns := columnUnion(rows)

	view := emailView{
		Heading: "Selected Error Logs",
		Columns: columns,
		Rows:    make([][]string, len(rows)),
	}
	if appLabel != "" {
		view.Heading = "Selected Error Logs - for " + appLabel
	}

	for i, row := range rows {
		cells := make([]string, len(columns))
		for j, name := range columns {
			v, _ := row.Get(name)
			cells[j] = formatValue(v)
		}
		view.Rows[i] = cells
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

func labelSuffix(appLabel string) string {
	if appLabel == "" {
		return ""
	}
	return " for " + appLabel
}

func columnUnion(rows []models.Row) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, row := range rows {
		for _, f := range row {
			if _, ok := seen[f.Name]; ok {
				continue
			}
			seen[f.Name] = struct{}{}
			columns = append(columns, f.Name)
		}
	}
	return columns
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case []byte:
		return string(val)
	case time.Time:
		return val.UTC().Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(val)
	}
}
