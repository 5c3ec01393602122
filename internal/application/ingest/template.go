package ingest

import (
	"bytes"
	"strings"
)

const TemplateFileName = "member_import_template.csv"

var TemplateColumns = []string{
	"Name",
	"Email",
	"Phone",
	"Home State",
	"City",
	"Club Role",
	"Signature Techniques",
	"Emergency Contact",
	"Boat Registration",
}

var templateExample = []string{
	"Jane Angler",
	"jane.angler@example.com",
	"555-0142",
	"MN",
	"Duluth",
	"member",
	"jigging, trolling",
	"John Angler 555-0199",
	"MN-1234-AB",
}

// GenerateTemplate returns a header row and one example row with every value
// quoted.
func GenerateTemplate() []byte {
	var buf bytes.Buffer
	writeQuotedRow(&buf, TemplateColumns)
	writeQuotedRow(&buf, templateExample)
	return buf.Bytes()
}

func writeQuotedRow(buf *bytes.Buffer, cells []string) {
	quoted := make([]string, len(cells))
	for i, cell := range cells {
		quoted[i] = `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
	}
	buf.WriteString(strings.Join(quoted, ","))
	buf.WriteString("\n")
}
