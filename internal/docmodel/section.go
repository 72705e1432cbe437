package docmodel

import "fmt"

// Section is an ordered, titled group of elements. Elements added to a
// section belong to it until removed.
type Section struct {
	id       string
	title    string
	elements []Element
}

func NewSection(title string, elements ...Element) *Section {
	return &Section{id: newID(), title: title, elements: elements}
}

func (s *Section) ID() string    { return s.id }
func (s *Section) Title() string { return s.title }
func (s *Section) Len() int      { return len(s.elements) }

func (s *Section) Rename(title string) { s.title = title }

// Elements returns the elements in order. The slice is a copy; the elements are not.
func (s *Section) Elements() []Element {
	return append([]Element(nil), s.elements...)
}

func (s *Section) Add(e Element) {
	s.elements = append(s.elements, e)
}

// Insert places e at index. index == Len() appends.
func (s *Section) Insert(index int, e Element) error {
	if index < 0 || index > len(s.elements) {
		return s.outOfRange(index)
	}
	s.elements = append(s.elements, nil)
	copy(s.elements[index+1:], s.elements[index:])
	s.elements[index] = e
	return nil
}

// Replace swaps the element at index for e.
func (s *Section) Replace(index int, e Element) error {
	if err := s.check(index); err != nil {
		return err
	}
	s.elements[index] = e
	return nil
}

func (s *Section) Remove(index int) error {
	if err := s.check(index); err != nil {
		return err
	}
	s.elements = append(s.elements[:index], s.elements[index+1:]...)
	return nil
}

func (s *Section) Element(index int) (Element, error) {
	if err := s.check(index); err != nil {
		return nil, err
	}
	return s.elements[index], nil
}

// IndexOf returns the position of the element with id, or -1.
func (s *Section) IndexOf(id string) int {
	for i, e := range s.elements {
		if e.ID() == id {
			return i
		}
	}
	return -1
}

func (s *Section) check(index int) error {
	if index < 0 || index >= len(s.elements) {
		return s.outOfRange(index)
	}
	return nil
}

func (s *Section) outOfRange(index int) error {
	return fmt.Errorf("%w: element %d of %d in section %s", ErrIndexOutOfRange, index, len(s.elements), s.id)
}

func (s *Section) clone() *Section {
	out := &Section{id: s.id, title: s.title, elements: make([]Element, len(s.elements))}
	for i, e := range s.elements {
		out.elements[i] = e.clone()
	}
	return out
}
