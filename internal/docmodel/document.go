package docmodel

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

var now = func() time.Time { return time.Now().UTC() }

// Document is the versioned top-level container. It is not safe for
// concurrent use; share it through a Manager.
type Document struct {
	id            string
	title         string
	sections      []*Section
	version       int
	comments      []*Comment
	createdAt     time.Time
	lastModified  time.Time
	collaborators []string
	tags          []string
	styleLevels   []LevelStyle
}

func NewDocument(title string) *Document {
	created := now()
	return &Document{
		id:           newID(),
		title:        title,
		version:      1,
		createdAt:    created,
		lastModified: created,
		styleLevels:  BaseLevelStyles(),
	}
}

func (d *Document) ID() string              { return d.id }
func (d *Document) Title() string           { return d.title }
func (d *Document) Version() int            { return d.version }
func (d *Document) CreatedAt() time.Time    { return d.createdAt }
func (d *Document) LastModified() time.Time { return d.lastModified }

// Rename changes the title. It does not bump the version.
func (d *Document) Rename(title string) { d.title = title }

// UpdateVersion advances the version by amount and refreshes LastModified.
func (d *Document) UpdateVersion(amount int) {
	d.version += amount
	d.lastModified = now()
}

func (d *Document) Sections() []*Section {
	return append([]*Section(nil), d.sections...)
}

func (d *Document) AddSection(s *Section) {
	d.sections = append(d.sections, s)
	d.UpdateVersion(1)
}

func (d *Document) RemoveSection(index int) error {
	if index < 0 || index >= len(d.sections) {
		return fmt.Errorf("%w: section %d of %d", ErrIndexOutOfRange, index, len(d.sections))
	}
	d.sections = append(d.sections[:index], d.sections[index+1:]...)
	d.UpdateVersion(1)
	return nil
}

func (d *Document) Section(index int) (*Section, error) {
	if index < 0 || index >= len(d.sections) {
		return nil, fmt.Errorf("%w: section %d of %d", ErrIndexOutOfRange, index, len(d.sections))
	}
	return d.sections[index], nil
}

func (d *Document) SectionByID(id string) (*Section, error) {
	for _, s := range d.sections {
		if s.id == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSectionNotFound, id)
}

// FindElement locates an element anywhere in the document.
func (d *Document) FindElement(id string) (*Section, Element, bool) {
	for _, s := range d.sections {
		if i := s.IndexOf(id); i >= 0 {
			return s, s.elements[i], true
		}
	}
	return nil, nil, false
}

// AddComment attaches a top-level comment. The annotated element must exist now;
// removing it later leaves the comment in place.
func (d *Document) AddComment(c *Comment) error {
	if _, _, ok := d.FindElement(c.ElementID); !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, c.ElementID)
	}
	d.comments = append(d.comments, c)
	return nil
}

// Reply appends reply under the comment with parentID, at any depth.
// The reply must anchor to an element of this document.
func (d *Document) Reply(parentID string, reply *Comment) error {
	if _, _, ok := d.FindElement(reply.ElementID); !ok {
		return fmt.Errorf("%w: %s", ErrElementNotFound, reply.ElementID)
	}
	for _, c := range d.comments {
		if parent := c.find(parentID); parent != nil {
			parent.AddReply(reply)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrCommentNotFound, parentID)
}

func (d *Document) Comments() []*Comment {
	return append([]*Comment(nil), d.comments...)
}

func (d *Document) AddCollaborator(user string) {
	d.collaborators = addUnique(d.collaborators, user)
}

func (d *Document) RemoveCollaborator(user string) {
	d.collaborators = removeValue(d.collaborators, user)
}

func (d *Document) HasCollaborator(user string) bool {
	return slices.Contains(d.collaborators, user)
}

func (d *Document) Collaborators() []string {
	return append([]string(nil), d.collaborators...)
}

func (d *Document) AddTag(tag string) {
	d.tags = addUnique(d.tags, tag)
}

func (d *Document) RemoveTag(tag string) {
	d.tags = removeValue(d.tags, tag)
}

func (d *Document) Tags() []string {
	return append([]string(nil), d.tags...)
}

// StyleLevels returns the document's text style-level table.
func (d *Document) StyleLevels() []LevelStyle {
	return append([]LevelStyle(nil), d.styleLevels...)
}

// LevelTag returns the tag for a text style level, "p" when unknown.
func (d *Document) LevelTag(level int) string {
	for _, l := range d.styleLevels {
		if l.Level == level {
			return l.Tag
		}
	}
	return "p"
}

// SearchResult is one element matching a search query.
type SearchResult struct {
	SectionID string `json:"section_id"`
	ElementID string `json:"element_id"`
	Content   string `json:"content"`
	Type      Kind   `json:"type"`
}

// Search matches query case-insensitively against text and equation content,
// in section order then element order.
func (d *Document) Search(query string) []SearchResult {
	lowered := strings.ToLower(query)
	var results []SearchResult
	for _, s := range d.sections {
		for _, e := range s.elements {
			content, ok := searchableContent(e)
			if !ok || !matches(content, lowered) {
				continue
			}
			results = append(results, SearchResult{
				SectionID: s.id,
				ElementID: e.ID(),
				Content:   content,
				Type:      e.Kind(),
			})
		}
	}
	return results
}

// Columns splits the sections into n contiguous columns whose sizes differ by at most one.
func (d *Document) Columns(n int) ([][]*Section, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidColumns, n)
	}
	// Columns past the section count would all be empty.
	n = min(n, max(len(d.sections), 1))
	columns := make([][]*Section, n)
	size, extra := len(d.sections)/n, len(d.sections)%n
	start := 0
	for i := range columns {
		end := start + size
		if i < extra {
			end++
		}
		columns[i] = append([]*Section{}, d.sections[start:end]...)
		start = end
	}
	return columns, nil
}

// Clone returns a deep copy of the document's owned graph.
func (d *Document) Clone() *Document {
	out := *d
	out.sections = make([]*Section, len(d.sections))
	for i, s := range d.sections {
		out.sections[i] = s.clone()
	}
	out.comments = make([]*Comment, len(d.comments))
	for i, c := range d.comments {
		out.comments[i] = c.clone()
	}
	out.collaborators = d.Collaborators()
	out.tags = d.Tags()
	out.styleLevels = d.StyleLevels()
	return &out
}

func addUnique(values []string, v string) []string {
	if slices.Contains(values, v) {
		return values
	}
	return append(values, v)
}

func removeValue(values []string, v string) []string {
	i := slices.Index(values, v)
	if i < 0 {
		return values
	}
	return slices.Delete(values, i, i+1)
}
