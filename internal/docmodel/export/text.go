package export

import (
	"strings"

	"scibind/internal/docmodel"
)

// TextExporter writes a plain-text rendering. Styling is dropped.
type TextExporter struct{}

func NewTextExporter() *TextExporter { return &TextExporter{} }

func (x *TextExporter) Format() Format      { return FormatText }
func (x *TextExporter) ContentType() string { return "text/plain; charset=utf-8" }
func (x *TextExporter) Extension() string   { return ".txt" }

func (x *TextExporter) Export(doc *docmodel.Document) ([]byte, error) {
	var b strings.Builder
	b.WriteString(doc.Title() + "\n")
	b.WriteString(strings.Repeat("=", len([]rune(doc.Title()))) + "\n")

	for _, s := range doc.Sections() {
		b.WriteString("\n")
		if s.Title() != "" {
			b.WriteString(s.Title() + "\n")
			b.WriteString(strings.Repeat("-", len([]rune(s.Title()))) + "\n")
		}
		for _, e := range s.Elements() {
			writeTextElement(&b, e)
		}
	}
	return []byte(b.String()), nil
}

func writeTextElement(b *strings.Builder, e docmodel.Element) {
	switch v := e.(type) {
	case *docmodel.Text:
		prefix := ""
		switch {
		case v.Styling().Number:
			prefix = "1. "
		case v.Styling().Bullet:
			prefix = "- "
		}
		b.WriteString(strings.Repeat("  ", v.Styling().Indent) + prefix + v.Content + "\n")
	case *docmodel.Equation:
		b.WriteString(equationLiteral(v) + "\n")
	case *docmodel.Hyperlink:
		target := v.Target.URL
		if v.Target.IsElement() {
			target = "#" + v.Target.ElementID
		}
		b.WriteString(v.Content + " <" + target + ">\n")
	case *docmodel.PageBreak:
		b.WriteString("\f\n")
	case *docmodel.Image:
		label := v.Caption
		if label == "" {
			label = v.AltText
		}
		b.WriteString("[image: " + label + "] " + v.Source + "\n")
	case *docmodel.Table:
		for _, row := range v.Cells() {
			b.WriteString(strings.Join(row, "\t") + "\n")
		}
	}
}
