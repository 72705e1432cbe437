package docmodel

import (
	"encoding/json"
	"fmt"
	"time"
)

// elementJSON is the wire form shared by all element kinds. Variant fields are
// pointers so each kind emits exactly its own keys.
type elementJSON struct {
	ID            string          `json:"id"`
	Type          Kind            `json:"type"`
	Content       json.RawMessage `json:"content"`
	Styling       Styling         `json:"styling"`
	StyleLevel    *int            `json:"style_level,omitempty"`
	Inline        *bool           `json:"inline,omitempty"`
	Latex         *string         `json:"latex,omitempty"`
	URL           *string         `json:"url,omitempty"`
	TargetElement *bool           `json:"target_element,omitempty"`
	Caption       *string         `json:"caption,omitempty"`
	AltText       *string         `json:"alt_text,omitempty"`
	Rows          *int            `json:"rows,omitempty"`
	Cols          *int            `json:"cols,omitempty"`
}

func (t *Text) MarshalJSON() ([]byte, error)      { return marshalElement(t) }
func (e *Equation) MarshalJSON() ([]byte, error)  { return marshalElement(e) }
func (h *Hyperlink) MarshalJSON() ([]byte, error) { return marshalElement(h) }
func (p *PageBreak) MarshalJSON() ([]byte, error) { return marshalElement(p) }
func (i *Image) MarshalJSON() ([]byte, error)     { return marshalElement(i) }
func (t *Table) MarshalJSON() ([]byte, error)     { return marshalElement(t) }

func marshalElement(e Element) ([]byte, error) {
	w := elementJSON{ID: e.ID(), Type: e.Kind(), Styling: e.Styling()}

	var content any
	switch v := e.(type) {
	case *Text:
		content = v.Content
		w.StyleLevel = &v.StyleLevel
	case *Equation:
		content = v.Content
		w.Inline = &v.Inline
		w.Latex = &v.Content
	case *Hyperlink:
		content = v.Content
		url := v.Target.Resolved()
		w.URL = &url
		if v.Target.IsElement() {
			internal := true
			w.TargetElement = &internal
		}
	case *PageBreak:
		content = nil
	case *Image:
		content = v.Source
		w.Caption = &v.Caption
		w.AltText = &v.AltText
	case *Table:
		content = v.cells
		w.Rows = &v.rows
		w.Cols = &v.cols
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownElementKind, e)
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}
	w.Content = raw
	return json.Marshal(w)
}

// UnmarshalElement decodes one element of any kind.
func UnmarshalElement(data []byte) (Element, error) {
	w := elementJSON{Styling: DefaultStyling()}
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidElement, err)
	}
	if w.ID == "" {
		w.ID = newID()
	}
	b := base{id: w.ID, styling: w.Styling}

	switch w.Type {
	case KindText:
		t := &Text{base: b}
		if err := decodeContent(w.Content, &t.Content); err != nil {
			return nil, err
		}
		if w.StyleLevel != nil {
			t.StyleLevel = *w.StyleLevel
		}
		return t, nil
	case KindEquation:
		e := &Equation{base: b}
		if err := decodeContent(w.Content, &e.Content); err != nil {
			return nil, err
		}
		if e.Content == "" && w.Latex != nil {
			e.Content = *w.Latex
		}
		if w.Inline != nil {
			e.Inline = *w.Inline
		}
		return e, nil
	case KindHyperlink:
		h := &Hyperlink{base: b}
		if err := decodeContent(w.Content, &h.Content); err != nil {
			return nil, err
		}
		if w.URL != nil {
			if w.TargetElement != nil && *w.TargetElement {
				h.Target.ElementID = *w.URL
			} else {
				h.Target.URL = *w.URL
			}
		}
		return h, nil
	case KindPageBreak:
		return &PageBreak{base: b}, nil
	case KindImage:
		i := &Image{base: b}
		if err := decodeContent(w.Content, &i.Source); err != nil {
			return nil, err
		}
		if w.Caption != nil {
			i.Caption = *w.Caption
		}
		if w.AltText != nil {
			i.AltText = *w.AltText
		}
		return i, nil
	case KindTable:
		return decodeTable(b, w)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownElementKind, w.Type)
	}
}

func decodeContent(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: content: %w", ErrInvalidElement, err)
	}
	return nil
}

func decodeTable(b base, w elementJSON) (Element, error) {
	var cells [][]string
	if err := decodeContent(w.Content, &cells); err != nil {
		return nil, err
	}
	rows, cols := len(cells), 0
	if rows > 0 {
		cols = len(cells[0])
	}
	if w.Rows != nil {
		rows = *w.Rows
	}
	if w.Cols != nil {
		cols = *w.Cols
	}
	t, err := NewTable(rows, cols)
	if err != nil {
		return nil, err
	}
	t.base = b
	for r, row := range cells {
		for c, v := range row {
			if err := t.SetCell(r, c, v); err != nil {
				return nil, fmt.Errorf("%w: content does not fit %dx%d", ErrInvalidTableShape, rows, cols)
			}
		}
	}
	return t, nil
}

type sectionJSON struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Elements []json.RawMessage `json:"elements"`
}

func (s *Section) MarshalJSON() ([]byte, error) {
	elements := make([]json.RawMessage, 0, len(s.elements))
	for _, e := range s.elements {
		raw, err := marshalElement(e)
		if err != nil {
			return nil, err
		}
		elements = append(elements, raw)
	}
	return json.Marshal(sectionJSON{ID: s.id, Title: s.title, Elements: elements})
}

func unmarshalSection(w sectionJSON) (*Section, error) {
	s := &Section{id: w.ID, title: w.Title}
	if s.id == "" {
		s.id = newID()
	}
	for _, raw := range w.Elements {
		e, err := UnmarshalElement(raw)
		if err != nil {
			return nil, fmt.Errorf("section %s: %w", s.id, err)
		}
		s.elements = append(s.elements, e)
	}
	return s, nil
}

type documentJSON struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Version         int           `json:"version"`
	Sections        []sectionJSON `json:"sections"`
	Comments        []*Comment    `json:"comments"`
	CreatedAt       time.Time     `json:"created_at"`
	LastModified    time.Time     `json:"last_modified"`
	Collaborators   []string      `json:"collaborators"`
	Tags            []string      `json:"tags"`
	TextStyleLevels []LevelStyle  `json:"text_style_levels"`
}

// documentOut mirrors documentJSON with live sections so elements marshal themselves.
type documentOut struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	Version         int          `json:"version"`
	Sections        []*Section   `json:"sections"`
	Comments        []*Comment   `json:"comments"`
	CreatedAt       time.Time    `json:"created_at"`
	LastModified    time.Time    `json:"last_modified"`
	Collaborators   []string     `json:"collaborators"`
	Tags            []string     `json:"tags"`
	TextStyleLevels []LevelStyle `json:"text_style_levels"`
}

func (d *Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(documentOut{
		ID:              d.id,
		Title:           d.title,
		Version:         d.version,
		Sections:        nonNil(d.sections),
		Comments:        nonNil(d.comments),
		CreatedAt:       d.createdAt,
		LastModified:    d.lastModified,
		Collaborators:   nonNil(d.collaborators),
		Tags:            nonNil(d.tags),
		TextStyleLevels: nonNil(d.styleLevels),
	})
}

// UnmarshalDocument rebuilds a document from its serialized form.
func UnmarshalDocument(data []byte) (*Document, error) {
	var w documentJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	d := &Document{
		id:            w.ID,
		title:         w.Title,
		version:       w.Version,
		comments:      w.Comments,
		createdAt:     w.CreatedAt,
		lastModified:  w.LastModified,
		collaborators: w.Collaborators,
		tags:          w.Tags,
		styleLevels:   w.TextStyleLevels,
	}
	if d.version < 1 {
		d.version = 1
	}
	if len(d.styleLevels) == 0 {
		d.styleLevels = BaseLevelStyles()
	}
	for _, sw := range w.Sections {
		s, err := unmarshalSection(sw)
		if err != nil {
			return nil, err
		}
		d.sections = append(d.sections, s)
	}
	return d, nil
}

func nonNil[T any](values []T) []T {
	if values == nil {
		return []T{}
	}
	return values
}
