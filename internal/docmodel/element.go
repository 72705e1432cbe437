package docmodel

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind discriminates the element variants.
type Kind string

const (
	KindText      Kind = "text"
	KindEquation  Kind = "equation"
	KindHyperlink Kind = "hyperlink"
	KindPageBreak Kind = "page_break"
	KindImage     Kind = "image"
	KindTable     Kind = "table"
)

// Kinds lists every element kind in serialization order.
var Kinds = []Kind{KindText, KindEquation, KindHyperlink, KindPageBreak, KindImage, KindTable}

var newID = func() string { return uuid.NewString() }

// Element is a single typed content unit. The set of implementations is
// closed: Text, Equation, Hyperlink, PageBreak, Image and Table.
type Element interface {
	ID() string
	Kind() Kind
	Styling() Styling
	ModifyStyling(patch StylePatch)

	core() *base
	clone() Element
}

type base struct {
	id      string
	styling Styling
}

func newBase() base {
	return base{id: newID(), styling: DefaultStyling()}
}

func (b *base) ID() string                     { return b.id }
func (b *base) Styling() Styling               { return b.styling }
func (b *base) ModifyStyling(patch StylePatch) { b.styling = b.styling.Merge(patch) }
func (b *base) core() *base                    { return b }

// Text is a run of prose. StyleLevel indexes the document's style-level table.
type Text struct {
	base
	Content    string
	StyleLevel int
}

func NewText(content string, styleLevel int) *Text {
	return &Text{base: newBase(), Content: content, StyleLevel: styleLevel}
}

func (t *Text) Kind() Kind { return KindText }

func (t *Text) clone() Element {
	c := *t
	return &c
}

// Equation holds literal LaTeX markup.
type Equation struct {
	base
	Content string
	Inline  bool
}

func NewEquation(latex string, inline bool) *Equation {
	return &Equation{base: newBase(), Content: latex, Inline: inline}
}

func (e *Equation) Kind() Kind { return KindEquation }

func (e *Equation) clone() Element {
	c := *e
	return &c
}

// LinkTarget is where a hyperlink points: a literal URL or another element.
// At most one field is set.
type LinkTarget struct {
	URL       string
	ElementID string
}

// Resolved returns the URL, or the referenced element id for internal links.
func (t LinkTarget) Resolved() string {
	if t.ElementID != "" {
		return t.ElementID
	}
	return t.URL
}

// IsElement reports whether the target references another element.
func (t LinkTarget) IsElement() bool { return t.ElementID != "" }

// Hyperlink is display text pointing at a URL or at another element.
type Hyperlink struct {
	base
	Content string
	Target  LinkTarget
}

func NewHyperlink(content, url string) *Hyperlink {
	return &Hyperlink{base: newBase(), Content: content, Target: LinkTarget{URL: url}}
}

// NewElementLink links to target by id. The link does not own target.
func NewElementLink(content string, target Element) *Hyperlink {
	h := &Hyperlink{base: newBase(), Content: content}
	if target != nil {
		h.Target.ElementID = target.ID()
	}
	return h
}

func (h *Hyperlink) Kind() Kind { return KindHyperlink }

func (h *Hyperlink) clone() Element {
	c := *h
	return &c
}

type PageBreak struct {
	base
}

func NewPageBreak() *PageBreak {
	return &PageBreak{base: newBase()}
}

func (p *PageBreak) Kind() Kind { return KindPageBreak }

func (p *PageBreak) clone() Element {
	c := *p
	return &c
}

// Image references picture content held elsewhere (URL, storage key or data URI).
type Image struct {
	base
	Source  string
	Caption string
	AltText string
}

func NewImage(source, caption string) *Image {
	return &Image{base: newBase(), Source: source, Caption: caption}
}

func (i *Image) Kind() Kind { return KindImage }

func (i *Image) clone() Element {
	c := *i
	return &c
}

// Table is a fixed rows x cols grid of string cells.
type Table struct {
	base
	rows  int
	cols  int
	cells [][]string
}

func NewTable(rows, cols int) (*Table, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTableShape, rows, cols)
	}
	return &Table{base: newBase(), rows: rows, cols: cols, cells: emptyGrid(rows, cols)}, nil
}

func emptyGrid(rows, cols int) [][]string {
	grid := make([][]string, rows)
	for r := range grid {
		grid[r] = make([]string, cols)
	}
	return grid
}

func (t *Table) Kind() Kind { return KindTable }
func (t *Table) Rows() int  { return t.rows }
func (t *Table) Cols() int  { return t.cols }

// SetCell writes one cell. Coordinates outside the grid fail with
// ErrCellOutOfRange and leave the table untouched.
func (t *Table) SetCell(row, col int, content string) error {
	if row < 0 || row >= t.rows || col < 0 || col >= t.cols {
		return fmt.Errorf("%w: (%d,%d) in %dx%d", ErrCellOutOfRange, row, col, t.rows, t.cols)
	}
	t.cells[row][col] = content
	return nil
}

func (t *Table) Cell(row, col int) (string, error) {
	if row < 0 || row >= t.rows || col < 0 || col >= t.cols {
		return "", fmt.Errorf("%w: (%d,%d) in %dx%d", ErrCellOutOfRange, row, col, t.rows, t.cols)
	}
	return t.cells[row][col], nil
}

// Cells returns a copy of the grid.
func (t *Table) Cells() [][]string {
	return copyGrid(t.cells)
}

func copyGrid(grid [][]string) [][]string {
	out := make([][]string, len(grid))
	for r, row := range grid {
		out[r] = append([]string(nil), row...)
	}
	return out
}

func (t *Table) clone() Element {
	c := *t
	c.cells = copyGrid(t.cells)
	return &c
}

// searchableContent returns the text matched by search, if the kind is searchable.
func searchableContent(e Element) (string, bool) {
	switch v := e.(type) {
	case *Text:
		return v.Content, true
	case *Equation:
		return v.Content, true
	default:
		return "", false
	}
}

func matches(content, lowered string) bool {
	return strings.Contains(strings.ToLower(content), lowered)
}
