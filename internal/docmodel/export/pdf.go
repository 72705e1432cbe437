package export

import (
	"bytes"
	"strings"

	"github.com/go-pdf/fpdf"

	"scibind/internal/docmodel"
)

const lineHeight = 6.0

var headingSizes = map[string]float64{
	"title":    24,
	"subtitle": 16,
	"h1":       20,
	"h2":       17,
	"h3":       15,
	"h4":       13,
}

var alignments = map[string]string{
	"left":    "L",
	"center":  "C",
	"right":   "R",
	"justify": "J",
}

// PDFExporter lays the document out on A4 pages with the core fonts.
type PDFExporter struct {
	font string
}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{font: "Arial"}
}

func (x *PDFExporter) Format() Format      { return FormatPDF }
func (x *PDFExporter) ContentType() string { return "application/pdf" }
func (x *PDFExporter) Extension() string   { return ".pdf" }

func (x *PDFExporter) Export(doc *docmodel.Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title(), true)
	pdf.SetCreationDate(doc.CreatedAt())
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont(x.font, "B", 22)
	pdf.MultiCell(0, 10, tr(doc.Title()), "", "L", false)
	pdf.Ln(4)

	for _, s := range doc.Sections() {
		if s.Title() != "" {
			pdf.SetFont(x.font, "B", 16)
			pdf.MultiCell(0, 8, tr(s.Title()), "", "L", false)
			pdf.Ln(2)
		}
		for _, e := range s.Elements() {
			x.writeElement(pdf, tr, doc, e)
		}
		pdf.Ln(lineHeight)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (x *PDFExporter) writeElement(pdf *fpdf.Fpdf, tr func(string) string, doc *docmodel.Document, e docmodel.Element) {
	st := e.Styling()
	if st.Size <= 0 {
		st.Size = docmodel.DefaultStyling().Size
	}
	left, _, _, _ := pdf.GetMargins()
	pdf.SetX(left + float64(st.Indent)*8)

	switch v := e.(type) {
	case *docmodel.Text:
		size := float64(st.Size)
		if heading, ok := headingSizes[doc.LevelTag(v.StyleLevel)]; ok {
			size = heading
		}
		pdf.SetFont(x.font, fontStyle(st), size)
		content := v.Content
		switch {
		case st.Number:
			content = "1. " + content
		case st.Bullet:
			content = "- " + content
		}
		pdf.MultiCell(0, size*0.5, tr(content), "", alignment(st), false)
	case *docmodel.Equation:
		pdf.SetFont("Courier", "", float64(st.Size))
		align := "C"
		if v.Inline {
			align = "L"
		}
		pdf.MultiCell(0, lineHeight, tr(equationLiteral(v)), "", align, false)
	case *docmodel.Hyperlink:
		pdf.SetFont(x.font, "U", float64(st.Size))
		if v.Target.IsElement() {
			pdf.MultiCell(0, lineHeight, tr(v.Content), "", "L", false)
			return
		}
		pdf.SetTextColor(0, 0, 238)
		pdf.WriteLinkString(lineHeight, tr(v.Content), v.Target.URL)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(lineHeight)
	case *docmodel.PageBreak:
		pdf.AddPage()
	case *docmodel.Image:
		pdf.SetFont(x.font, "I", float64(st.Size))
		label := v.Caption
		if label == "" {
			label = v.AltText
		}
		pdf.MultiCell(0, lineHeight, tr(strings.TrimSpace("[image] "+label)), "", "L", false)
	case *docmodel.Table:
		writeTable(pdf, tr, x.font, v)
	}
}

func writeTable(pdf *fpdf.Fpdf, tr func(string) string, font string, t *docmodel.Table) {
	if t.Cols() == 0 {
		return
	}
	pdf.SetFont(font, "", 10)
	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	cellWidth := (width - left - right) / float64(t.Cols())
	for _, row := range t.Cells() {
		pdf.SetX(left)
		for _, cell := range row {
			pdf.CellFormat(cellWidth, lineHeight+1, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func fontStyle(s docmodel.Styling) string {
	var style string
	if s.Bold {
		style += "B"
	}
	if s.Italic {
		style += "I"
	}
	if s.Underline {
		style += "U"
	}
	return style
}

func alignment(s docmodel.Styling) string {
	if a, ok := alignments[s.Alignment]; ok {
		return a
	}
	return "L"
}
