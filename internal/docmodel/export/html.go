package export

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"scibind/internal/docmodel"
)

var page = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1 class="document-title">{{.Title}}</h1>
{{.Body}}
</body>
</html>
`))

// HTMLExporter renders a standalone HTML page. Element markup is sanitized with
// a user-generated-content policy before it is placed in the page.
type HTMLExporter struct {
	policy *bluemonday.Policy
}

func NewHTMLExporter() *HTMLExporter {
	policy := bluemonday.UGCPolicy()
	policy.AllowDataURIImages()
	policy.AllowElements("figure", "figcaption", "u")
	policy.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-z][a-z\- ]*$`)).Globally()
	policy.AllowStyles("color", "background-color", "text-align", "font-family", "font-size", "margin-left").Globally()
	return &HTMLExporter{policy: policy}
}

func (x *HTMLExporter) Format() Format      { return FormatHTML }
func (x *HTMLExporter) ContentType() string { return "text/html; charset=utf-8" }
func (x *HTMLExporter) Extension() string   { return ".html" }

func (x *HTMLExporter) Export(doc *docmodel.Document) ([]byte, error) {
	var buf bytes.Buffer
	err := page.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{
		Title: doc.Title(),
		Body:  template.HTML(x.Body(doc)),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Body returns the sanitized markup of every section without the page shell.
func (x *HTMLExporter) Body(doc *docmodel.Document) string {
	var b strings.Builder
	for _, s := range doc.Sections() {
		fmt.Fprintf(&b, `<div class="section" id="%s">`, html.EscapeString(s.ID()))
		if s.Title() != "" {
			fmt.Fprintf(&b, "<h2>%s</h2>", html.EscapeString(s.Title()))
		}
		for _, e := range s.Elements() {
			writeHTMLElement(&b, doc, e)
		}
		b.WriteString("</div>\n")
	}
	return x.policy.Sanitize(b.String())
}

func writeHTMLElement(b *strings.Builder, doc *docmodel.Document, e docmodel.Element) {
	id := html.EscapeString(e.ID())
	switch v := e.(type) {
	case *docmodel.Text:
		tag, class := textTag(doc.LevelTag(v.StyleLevel))
		open, closing := listWrap(v.Styling())
		fmt.Fprintf(b, `%s<%s id="%s"%s%s>%s</%s>%s`,
			open, tag, id, class, styleAttr(v.Styling()), styled(v.Styling(), html.EscapeString(v.Content)), tag, closing)
	case *docmodel.Equation:
		if v.Inline {
			fmt.Fprintf(b, `<span class="math-inline" id="%s">%s</span>`, id, html.EscapeString(equationLiteral(v)))
		} else {
			fmt.Fprintf(b, `<div class="math-display" id="%s">%s</div>`, id, html.EscapeString(equationLiteral(v)))
		}
	case *docmodel.Hyperlink:
		href := v.Target.URL
		if v.Target.IsElement() {
			href = "#" + v.Target.ElementID
		}
		fmt.Fprintf(b, `<a id="%s" href="%s"%s>%s</a>`,
			id, html.EscapeString(href), styleAttr(v.Styling()), styled(v.Styling(), html.EscapeString(v.Content)))
	case *docmodel.PageBreak:
		fmt.Fprintf(b, `<hr class="page-break" id="%s">`, id)
	case *docmodel.Image:
		alt := v.AltText
		if alt == "" {
			alt = v.Caption
		}
		fmt.Fprintf(b, `<figure id="%s"><img src="%s" alt="%s">`, id, html.EscapeString(v.Source), html.EscapeString(alt))
		if v.Caption != "" {
			fmt.Fprintf(b, "<figcaption>%s</figcaption>", html.EscapeString(v.Caption))
		}
		b.WriteString("</figure>")
	case *docmodel.Table:
		fmt.Fprintf(b, `<table id="%s"><tbody>`, id)
		for _, row := range v.Cells() {
			b.WriteString("<tr>")
			for _, cell := range row {
				fmt.Fprintf(b, "<td>%s</td>", html.EscapeString(cell))
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</tbody></table>")
	}
	b.WriteString("\n")
}

func textTag(level string) (tag, class string) {
	switch level {
	case "title":
		return "h1", ` class="title"`
	case "subtitle":
		return "p", ` class="subtitle"`
	case "h1", "h2", "h3", "h4":
		return level, ""
	default:
		return "p", ""
	}
}

func listWrap(s docmodel.Styling) (string, string) {
	switch {
	case s.Number:
		return "<ol><li>", "</li></ol>"
	case s.Bullet:
		return "<ul><li>", "</li></ul>"
	default:
		return "", ""
	}
}

func styled(s docmodel.Styling, content string) string {
	if s.Underline {
		content = "<u>" + content + "</u>"
	}
	if s.Italic {
		content = "<em>" + content + "</em>"
	}
	if s.Bold {
		content = "<strong>" + content + "</strong>"
	}
	return content
}

// styleAttr emits only the properties that differ from the defaults.
func styleAttr(s docmodel.Styling) string {
	def := docmodel.DefaultStyling()
	var rules []string
	if s.Color != def.Color {
		rules = append(rules, "color: "+s.Color)
	}
	if s.Highlight != def.Highlight {
		rules = append(rules, "background-color: "+s.Highlight)
	}
	if s.Alignment != def.Alignment {
		rules = append(rules, "text-align: "+s.Alignment)
	}
	if s.Font != def.Font {
		rules = append(rules, "font-family: "+s.Font)
	}
	if s.Size != def.Size {
		rules = append(rules, fmt.Sprintf("font-size: %dpt", s.Size))
	}
	if s.Indent > 0 {
		rules = append(rules, fmt.Sprintf("margin-left: %dem", s.Indent*2))
	}
	if len(rules) == 0 {
		return ""
	}
	return ` style="` + html.EscapeString(strings.Join(rules, "; ")) + `"`
}
