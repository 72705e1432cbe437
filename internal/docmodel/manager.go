package docmodel

import (
	"fmt"
	"sync"
	"time"
)

// Summary is the read-only projection returned by Manager.List.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastModified time.Time `json:"last_modified"`
	Tags         []string  `json:"tags"`
}

// DocumentMatches groups the search hits of one document.
type DocumentMatches struct {
	DocumentID string         `json:"document_id"`
	Title      string         `json:"title"`
	Results    []SearchResult `json:"results"`
}

type entry struct {
	mu  sync.RWMutex
	doc *Document
}

// Manager is the process-wide document registry. The map is guarded by mu and
// each document by its own lock; use Update and View for shared access.
type Manager struct {
	mu    sync.RWMutex
	docs  map[string]*entry
	order []string
}

func NewManager() *Manager {
	return &Manager{docs: make(map[string]*entry)}
}

// Create registers a new document and returns it.
func (m *Manager) Create(title string) *Document {
	doc := NewDocument(title)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.id] = &entry{doc: doc}
	m.order = append(m.order, doc.id)
	return doc
}

// Add registers an existing document, e.g. one loaded from storage.
func (m *Manager) Add(doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.id]; ok {
		return fmt.Errorf("%w: %s", ErrDocumentExists, doc.id)
	}
	m.docs[doc.id] = &entry{doc: doc}
	m.order = append(m.order, doc.id)
	return nil
}

// Get returns the document without taking its lock. The reference is only
// valid for callers that do not share it across goroutines.
func (m *Manager) Get(id string) (*Document, bool) {
	e, ok := m.entry(id)
	if !ok {
		return nil, false
	}
	return e.doc, true
}

// Delete removes the document and reports whether it existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return false
	}
	delete(m.docs, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Update runs fn with exclusive access to the document.
func (m *Manager) Update(id string, fn func(*Document) error) error {
	e, ok := m.entry(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.doc)
}

// View runs fn with shared access to the document. fn must not mutate it.
func (m *Manager) View(id string, fn func(*Document) error) error {
	e, ok := m.entry(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDocumentNotFound, id)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.doc)
}

// List returns a summary of every document in creation order.
func (m *Manager) List() []Summary {
	summaries := make([]Summary, 0)
	for _, e := range m.entries() {
		e.mu.RLock()
		summaries = append(summaries, Summary{
			ID:           e.doc.id,
			Title:        e.doc.title,
			LastModified: e.doc.lastModified,
			Tags:         e.doc.Tags(),
		})
		e.mu.RUnlock()
	}
	return summaries
}

// Search runs query against every document, omitting those without matches.
func (m *Manager) Search(query string) []DocumentMatches {
	matches := make([]DocumentMatches, 0)
	for _, e := range m.entries() {
		e.mu.RLock()
		results := e.doc.Search(query)
		if len(results) > 0 {
			matches = append(matches, DocumentMatches{
				DocumentID: e.doc.id,
				Title:      e.doc.title,
				Results:    results,
			})
		}
		e.mu.RUnlock()
	}
	return matches
}

func (m *Manager) entry(id string) (*entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.docs[id]
	return e, ok
}

// entries snapshots the registry so documents are visited without holding mu.
func (m *Manager) entries() []*entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*entry, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.docs[id])
	}
	return out
}
