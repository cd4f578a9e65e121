// Package report renders summary tables for the terminal and as markdown or
// HTML documents.
package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/olekukonko/tablewriter"

	"phenosum/domain/table"
)

// Terminal prints t as an aligned text table.
func Terminal(w io.Writer, t *table.Table) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(t.Labels())
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.AppendBulk(t.Records())
	tw.Render()
}

// Section is one titled table of a report
type Section struct {
	Title string
	Note  string
	Table *table.Table
}

// Document is an ordered list of sections under a title
type Document struct {
	Title    string
	Sections []Section
}

// Markdown renders the document with one pipe table per section.
func (d Document) Markdown() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", d.Title)
	for _, s := range d.Sections {
		fmt.Fprintf(&buf, "## %s\n\n", s.Title)
		if s.Note != "" {
			fmt.Fprintf(&buf, "%s\n\n", s.Note)
		}
		if s.Table == nil || s.Table.NumCols() == 0 {
			buf.WriteString("_No rows._\n\n")
			continue
		}
		writeRow(&buf, s.Table.Labels())
		sep := make([]string, s.Table.NumCols())
		for i := range sep {
			sep[i] = "---"
		}
		writeRow(&buf, sep)
		for _, row := range s.Table.Records() {
			writeRow(&buf, row)
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// HTML renders the document as a standalone HTML page.
func (d Document) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: d.Title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.ToHTML(d.Markdown(), p, renderer)
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ", "\r", "")

func writeRow(buf *bytes.Buffer, cells []string) {
	buf.WriteString("|")
	for _, c := range cells {
		buf.WriteString(" ")
		buf.WriteString(cellEscaper.Replace(c))
		buf.WriteString(" |")
	}
	buf.WriteString("\n")
}
