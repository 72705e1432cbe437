package export

import (
	"fmt"
	"html"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"scibind/internal/docmodel"
)

// MarkdownExporter converts the sanitized HTML rendering to Markdown.
type MarkdownExporter struct {
	html *HTMLExporter
	conv *converter.Converter
}

func NewMarkdownExporter(h *HTMLExporter) *MarkdownExporter {
	if h == nil {
		h = NewHTMLExporter()
	}
	// Table cells carry no header flag, so the first row becomes the header.
	conv := converter.NewConverter(converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(table.WithHeaderPromotion(true)),
	))
	return &MarkdownExporter{html: h, conv: conv}
}

func (x *MarkdownExporter) Format() Format      { return FormatMarkdown }
func (x *MarkdownExporter) ContentType() string { return "text/markdown; charset=utf-8" }
func (x *MarkdownExporter) Extension() string   { return ".md" }

func (x *MarkdownExporter) Export(doc *docmodel.Document) ([]byte, error) {
	body := fmt.Sprintf("<h1>%s</h1>\n%s", html.EscapeString(doc.Title()), x.html.Body(doc))
	markdown, err := x.conv.ConvertString(body)
	if err != nil {
		return nil, fmt.Errorf("convert html to markdown: %w", err)
	}
	return []byte(markdown + "\n"), nil
}
