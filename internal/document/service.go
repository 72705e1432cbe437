package document

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"

	"scibind/internal/docmodel"
	"scibind/internal/docmodel/export"
	"scibind/internal/errors"
	"scibind/internal/relay"
	"scibind/internal/utils"
	"scibind/internal/worker"
)

type Service interface {
	Create(ctx context.Context, userID uint64, title string) (*docmodel.Document, error)
	List(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedDocuments, error)
	Search(ctx context.Context, userID uint64, query string) ([]docmodel.DocumentMatches, error)
	Get(ctx context.Context, id string, userID uint64) (*docmodel.Document, error)
	Rename(ctx context.Context, id string, userID uint64, title string) (*docmodel.Document, error)
	Delete(ctx context.Context, id string, userID uint64) error

	AddSection(ctx context.Context, id string, userID uint64, title string) (*docmodel.Section, error)
	RemoveSection(ctx context.Context, id string, userID uint64, index int) (*docmodel.Document, error)

	AddElement(ctx context.Context, id string, userID uint64, sectionID string, req ElementRequest) (docmodel.Element, error)
	ReplaceElement(ctx context.Context, id string, userID uint64, sectionID string, index int, raw json.RawMessage) (docmodel.Element, error)
	RemoveElement(ctx context.Context, id string, userID uint64, sectionID string, index int) error
	ModifyStyling(ctx context.Context, id string, userID uint64, sectionID string, index int, patch docmodel.StylePatch) (docmodel.Element, error)
	SetCell(ctx context.Context, id string, userID uint64, sectionID string, index int, req CellRequest) (docmodel.Element, error)

	AddComment(ctx context.Context, id string, userID uint64, req CommentRequest) (*docmodel.Comment, error)
	AddCollaborator(ctx context.Context, id string, userID uint64, target uint64) ([]string, error)
	RemoveCollaborator(ctx context.Context, id string, userID uint64, target uint64) ([]string, error)
	AddTag(ctx context.Context, id string, userID uint64, tag string) ([]string, error)
	RemoveTag(ctx context.Context, id string, userID uint64, tag string) ([]string, error)
	SearchDocument(ctx context.Context, id string, userID uint64, query string) ([]docmodel.SearchResult, error)

	SaveVersion(ctx context.Context, id string, userID uint64) (int, error)
	CountVersions(ctx context.Context, id string, userID uint64) (int, error)
	Revert(ctx context.Context, id string, userID uint64, index int) (*docmodel.Document, error)

	Export(ctx context.Context, id string, userID uint64, format string) ([]byte, export.Exporter, error)
	Columns(ctx context.Context, id string, userID uint64, n int) ([][]*docmodel.Section, error)

	CanCollaborate(ctx context.Context, documentID string, userID uint64) error
	Load(ctx context.Context) error
}

type Cache interface {
	GetVersion(ctx context.Context, key string) int64
	IncrementVersion(ctx context.Context, key string)
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Submitter interface {
	Submit(task worker.Task) bool
}

// GroupCloser ends the collaboration sessions of a deleted document.
type GroupCloser interface {
	CloseGroup(ctx context.Context, group string) error
}

// docState is the per-document bookkeeping kept beside the Manager. versions
// is only touched under the document's lock.
type docState struct {
	owner    uint64
	versions *docmodel.VersionControl

	saveMu  sync.Mutex // serializes writes of this document
	mu      sync.Mutex // guards pending and deleted
	pending *DocumentRecord
	deleted bool
}

type DefaultService struct {
	manager    *docmodel.Manager
	repository Repository
	exporters  *export.Registry
	cache      Cache
	jobs       Submitter
	relay      GroupCloser

	mu     sync.RWMutex
	states map[string]*docState
}

// NewService wires the document service. jobs and relay may be nil: saves then
// run inline and deletes close no sessions.
func NewService(
	manager *docmodel.Manager,
	repository Repository,
	exporters *export.Registry,
	cache Cache,
	jobs Submitter,
	sessions GroupCloser,
) *DefaultService {
	return &DefaultService{
		manager:    manager,
		repository: repository,
		exporters:  exporters,
		cache:      cache,
		jobs:       jobs,
		relay:      sessions,
		states:     make(map[string]*docState),
	}
}

func userKey(userID uint64) string {
	return strconv.FormatUint(userID, 10)
}

func listVersionKey(userID uint64) string {
	return fmt.Sprintf("user:%d:docs:version", userID)
}

func (s *DefaultService) Create(ctx context.Context, userID uint64, title string) (*docmodel.Document, error) {
	if err := validation.Validate(title, validation.Required, validation.Length(1, 255)); err != nil {
		return nil, errors.NewValidationError(validation.Errors{"title": err})
	}

	doc := docmodel.NewDocument(title)
	doc.AddCollaborator(userKey(userID))
	st := &docState{owner: userID, versions: docmodel.NewVersionControl(doc)}
	if err := s.stage(st, doc); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.states[doc.ID()] = st
	s.mu.Unlock()
	out := doc.Clone()
	if err := s.manager.Add(doc); err != nil {
		return nil, err
	}

	s.persist(ctx, st)
	s.invalidate(ctx, []string{userKey(userID)})
	return out, nil
}

func (s *DefaultService) List(ctx context.Context, userID uint64, page, pageSize int) (*PaginatedDocuments, error) {
	// Get the current data version for this user's documents
	v := s.cache.GetVersion(ctx, listVersionKey(userID))
	cacheKey := fmt.Sprintf("docs:u:%d:v:%d:p:%d:ps:%d", userID, v, page, pageSize)

	var result PaginatedDocuments
	if found, _ := s.cache.Get(ctx, cacheKey, &result); found {
		return &result, nil
	}

	user := userKey(userID)
	summaries := make([]docmodel.Summary, 0)
	for _, sum := range s.manager.List() {
		if s.isCollaborator(sum.ID, user) {
			summaries = append(summaries, sum)
		}
	}
	data, meta := utils.Paginate(summaries, page, pageSize)
	result = PaginatedDocuments{Data: data, Meta: meta}

	if err := s.cache.Set(ctx, cacheKey, result, 24*time.Hour); err != nil {
		log.Warn().Err(err).Str("key", cacheKey).Msg("caching document list failed")
	}
	return &result, nil
}

func (s *DefaultService) Search(ctx context.Context, userID uint64, query string) ([]docmodel.DocumentMatches, error) {
	if err := validation.Validate(query, validation.Required); err != nil {
		return nil, errors.NewValidationError(validation.Errors{"q": err})
	}

	user := userKey(userID)
	matches := make([]docmodel.DocumentMatches, 0)
	for _, m := range s.manager.Search(query) {
		if s.isCollaborator(m.DocumentID, user) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (s *DefaultService) Get(ctx context.Context, id string, userID uint64) (*docmodel.Document, error) {
	var out *docmodel.Document
	err := s.view(id, userID, func(doc *docmodel.Document, _ *docState) error {
		out = doc.Clone()
		return nil
	})
	return out, err
}

func (s *DefaultService) Rename(ctx context.Context, id string, userID uint64, title string) (*docmodel.Document, error) {
	if err := validation.Validate(title, validation.Required, validation.Length(1, 255)); err != nil {
		return nil, errors.NewValidationError(validation.Errors{"title": err})
	}
	return s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		doc.Rename(title)
		return nil
	})
}

// Delete removes the document everywhere and ends its live sessions. Only the
// owner may delete.
func (s *DefaultService) Delete(ctx context.Context, id string, userID uint64) error {
	st, ok := s.state(id)
	if !ok {
		return fmt.Errorf("%w: %s", docmodel.ErrDocumentNotFound, id)
	}
	if st.owner != userID {
		return errors.Forbidden("Only the owner can delete this document", nil)
	}

	var collaborators []string
	if err := s.manager.View(id, func(doc *docmodel.Document) error {
		collaborators = doc.Collaborators()
		return nil
	}); err != nil {
		return err
	}
	if !s.manager.Delete(id) {
		return fmt.Errorf("%w: %s", docmodel.ErrDocumentNotFound, id)
	}
	s.mu.Lock()
	delete(s.states, id)
	s.mu.Unlock()

	st.saveMu.Lock()
	st.mu.Lock()
	st.deleted = true
	st.pending = nil
	st.mu.Unlock()
	err := s.repository.Delete(ctx, id)
	st.saveMu.Unlock()
	if err != nil {
		return fmt.Errorf("delete document %s: %w", id, err)
	}

	if s.relay != nil {
		if err := s.relay.CloseGroup(ctx, relay.GroupName(id)); err != nil {
			log.Warn().Err(err).Str("document_id", id).Msg("closing collaboration sessions failed")
		}
	}
	s.invalidate(ctx, collaborators)
	return nil
}

func (s *DefaultService) AddSection(ctx context.Context, id string, userID uint64, title string) (*docmodel.Section, error) {
	var sectionID string
	doc, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		sec := docmodel.NewSection(title)
		doc.AddSection(sec)
		sectionID = sec.ID()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc.SectionByID(sectionID)
}

func (s *DefaultService) RemoveSection(ctx context.Context, id string, userID uint64, index int) (*docmodel.Document, error) {
	return s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		return doc.RemoveSection(index)
	})
}

func (s *DefaultService) AddElement(ctx context.Context, id string, userID uint64, sectionID string, req ElementRequest) (docmodel.Element, error) {
	el, err := decodeElement(req.Element)
	if err != nil {
		return nil, err
	}
	doc, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		sec, err := doc.SectionByID(sectionID)
		if err != nil {
			return err
		}
		if req.Index == nil {
			sec.Add(el)
			return nil
		}
		return sec.Insert(*req.Index, el)
	})
	if err != nil {
		return nil, err
	}
	return elementOf(doc, el.ID())
}

func (s *DefaultService) ReplaceElement(ctx context.Context, id string, userID uint64, sectionID string, index int, raw json.RawMessage) (docmodel.Element, error) {
	el, err := decodeElement(raw)
	if err != nil {
		return nil, err
	}
	doc, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		sec, err := doc.SectionByID(sectionID)
		if err != nil {
			return err
		}
		return sec.Replace(index, el)
	})
	if err != nil {
		return nil, err
	}
	return elementOf(doc, el.ID())
}

func (s *DefaultService) RemoveElement(ctx context.Context, id string, userID uint64, sectionID string, index int) error {
	_, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		sec, err := doc.SectionByID(sectionID)
		if err != nil {
			return err
		}
		return sec.Remove(index)
	})
	return err
}

func (s *DefaultService) ModifyStyling(ctx context.Context, id string, userID uint64, sectionID string, index int, patch docmodel.StylePatch) (docmodel.Element, error) {
	if err := validateStylePatch(patch); err != nil {
		return nil, errors.NewValidationError(err)
	}
	var elementID string
	doc, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		el, err := elementAt(doc, sectionID, index)
		if err != nil {
			return err
		}
		el.ModifyStyling(patch)
		elementID = el.ID()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return elementOf(doc, elementID)
}

func (s *DefaultService) SetCell(ctx context.Context, id string, userID uint64, sectionID string, index int, req CellRequest) (docmodel.Element, error) {
	var elementID string
	doc, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		el, err := elementAt(doc, sectionID, index)
		if err != nil {
			return err
		}
		table, ok := el.(*docmodel.Table)
		if !ok {
			return errors.UnprocessableEntity("Element is not a table", nil)
		}
		elementID = table.ID()
		return table.SetCell(req.Row, req.Col, req.Content)
	})
	if err != nil {
		return nil, err
	}
	return elementOf(doc, elementID)
}

// AddComment attaches a new comment, or a reply when ReplyTo names an
// existing comment.
func (s *DefaultService) AddComment(ctx context.Context, id string, userID uint64, req CommentRequest) (*docmodel.Comment, error) {
	c := docmodel.NewComment(userKey(userID), req.Content, req.ElementID)
	out := *c
	_, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		if req.ReplyTo != "" {
			return doc.Reply(req.ReplyTo, c)
		}
		return doc.AddComment(c)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *DefaultService) AddCollaborator(ctx context.Context, id string, userID uint64, target uint64) ([]string, error) {
	doc, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		doc.AddCollaborator(userKey(target))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc.Collaborators(), nil
}

func (s *DefaultService) RemoveCollaborator(ctx context.Context, id string, userID uint64, target uint64) ([]string, error) {
	doc, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, st *docState) error {
		if target == st.owner {
			return errors.UnprocessableEntity("The owner cannot be removed", nil)
		}
		doc.RemoveCollaborator(userKey(target))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc.Collaborators(), nil
}

func (s *DefaultService) AddTag(ctx context.Context, id string, userID uint64, tag string) ([]string, error) {
	doc, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		doc.AddTag(tag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc.Tags(), nil
}

func (s *DefaultService) RemoveTag(ctx context.Context, id string, userID uint64, tag string) ([]string, error) {
	doc, err := s.mutate(ctx, id, userID, func(doc *docmodel.Document, _ *docState) error {
		doc.RemoveTag(tag)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc.Tags(), nil
}

func (s *DefaultService) SearchDocument(ctx context.Context, id string, userID uint64, query string) ([]docmodel.SearchResult, error) {
	if err := validation.Validate(query, validation.Required); err != nil {
		return nil, errors.NewValidationError(validation.Errors{"q": err})
	}
	results := make([]docmodel.SearchResult, 0)
	err := s.view(id, userID, func(doc *docmodel.Document, _ *docState) error {
		results = append(results, doc.Search(query)...)
		return nil
	})
	return results, err
}

// SaveVersion snapshots the document and returns the snapshot index.
func (s *DefaultService) SaveVersion(ctx context.Context, id string, userID uint64) (int, error) {
	var (
		index    int
		snapshot []byte
		st       *docState
	)
	err := s.update(id, userID, func(doc *docmodel.Document, state *docState) error {
		var err error
		if index, err = state.versions.SaveVersion(); err != nil {
			return err
		}
		snapshot, _ = state.versions.Snapshot(index)
		st = state
		return nil
	})
	if err != nil {
		return 0, err
	}

	record := &DocumentVersionRecord{DocumentID: id, Position: index, State: datatypes.JSON(snapshot)}
	s.submit(ctx, func(ctx context.Context) error {
		st.saveMu.Lock()
		defer st.saveMu.Unlock()
		if st.deleted {
			return nil
		}
		if err := s.repository.AppendVersion(ctx, record); err != nil {
			return fmt.Errorf("append version %d of %s: %w", record.Position, id, err)
		}
		return nil
	})
	return index, nil
}

func (s *DefaultService) CountVersions(ctx context.Context, id string, userID uint64) (int, error) {
	var n int
	err := s.view(id, userID, func(_ *docmodel.Document, st *docState) error {
		n = st.versions.Len()
		return nil
	})
	return n, err
}

// Revert replaces the document with snapshot index. History is left as is.
func (s *DefaultService) Revert(ctx context.Context, id string, userID uint64, index int) (*docmodel.Document, error) {
	return s.mutate(ctx, id, userID, func(_ *docmodel.Document, st *docState) error {
		if !st.versions.RevertToVersion(index) {
			return fmt.Errorf("%w: version %d of %d", docmodel.ErrIndexOutOfRange, index, st.versions.Len())
		}
		return nil
	})
}

func (s *DefaultService) Export(ctx context.Context, id string, userID uint64, format string) ([]byte, export.Exporter, error) {
	var (
		out      []byte
		exporter export.Exporter
	)
	err := s.view(id, userID, func(doc *docmodel.Document, _ *docState) error {
		var err error
		out, exporter, err = s.exporters.Export(export.ParseFormat(format), doc)
		return err
	})
	return out, exporter, err
}

func (s *DefaultService) Columns(ctx context.Context, id string, userID uint64, n int) ([][]*docmodel.Section, error) {
	var columns [][]*docmodel.Section
	err := s.view(id, userID, func(doc *docmodel.Document, _ *docState) error {
		var err error
		columns, err = doc.Clone().Columns(n)
		return err
	})
	return columns, err
}

// CanCollaborate admits userID to the live session of a document.
func (s *DefaultService) CanCollaborate(ctx context.Context, documentID string, userID uint64) error {
	return s.view(documentID, userID, func(*docmodel.Document, *docState) error { return nil })
}

// Load registers every stored document and its version history.
func (s *DefaultService) Load(ctx context.Context) error {
	records, err := s.repository.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}

	for _, rec := range records {
		doc, err := docmodel.UnmarshalDocument(rec.Body)
		if err != nil {
			return fmt.Errorf("decode document %s: %w", rec.ID, err)
		}
		versions, err := s.repository.ListVersions(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("load versions of %s: %w", rec.ID, err)
		}
		history := make([][]byte, 0, len(versions))
		for _, v := range versions {
			history = append(history, v.State)
		}

		st := &docState{owner: rec.OwnerID, versions: docmodel.NewVersionControl(doc)}
		st.versions.RestoreHistory(history)
		s.mu.Lock()
		s.states[doc.ID()] = st
		s.mu.Unlock()
		if err := s.manager.Add(doc); err != nil {
			return err
		}
	}

	log.Info().Int("documents", len(records)).Msg("documents loaded")
	return nil
}

func (s *DefaultService) state(id string) (*docState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[id]
	return st, ok
}

func (s *DefaultService) isCollaborator(id, user string) bool {
	allowed := false
	_ = s.manager.View(id, func(doc *docmodel.Document) error {
		allowed = doc.HasCollaborator(user)
		return nil
	})
	return allowed
}

func (s *DefaultService) guard(id string, userID uint64, lock func(string, func(*docmodel.Document) error) error, fn func(*docmodel.Document, *docState) error) error {
	st, ok := s.state(id)
	if !ok {
		return fmt.Errorf("%w: %s", docmodel.ErrDocumentNotFound, id)
	}
	return lock(id, func(doc *docmodel.Document) error {
		if !doc.HasCollaborator(userKey(userID)) {
			return errors.Forbidden("You are not a collaborator of this document", nil)
		}
		return fn(doc, st)
	})
}

// view runs fn under the document's read lock once userID is admitted.
func (s *DefaultService) view(id string, userID uint64, fn func(*docmodel.Document, *docState) error) error {
	return s.guard(id, userID, s.manager.View, fn)
}

// update runs fn under the document's write lock once userID is admitted.
func (s *DefaultService) update(id string, userID uint64, fn func(*docmodel.Document, *docState) error) error {
	return s.guard(id, userID, s.manager.Update, fn)
}

// mutate applies fn, queues a save and returns a copy of the result. Editors
// race last-writer-wins; the per-document lock orders them.
func (s *DefaultService) mutate(ctx context.Context, id string, userID uint64, fn func(*docmodel.Document, *docState) error) (*docmodel.Document, error) {
	var (
		out      *docmodel.Document
		affected []string
		st       *docState
	)
	err := s.update(id, userID, func(doc *docmodel.Document, state *docState) error {
		before := doc.Collaborators()
		if err := fn(doc, state); err != nil {
			return err
		}
		affected = append(before, doc.Collaborators()...)
		st = state
		out = doc.Clone()
		return s.stage(state, doc)
	})
	if err != nil {
		return nil, err
	}

	s.persist(ctx, st)
	s.invalidate(ctx, affected)
	return out, nil
}

// stage records the latest serialized form of doc for the next save.
func (s *DefaultService) stage(st *docState, doc *docmodel.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID(), err)
	}
	st.mu.Lock()
	st.pending = &DocumentRecord{
		ID:        doc.ID(),
		OwnerID:   st.owner,
		Title:     doc.Title(),
		Version:   doc.Version(),
		Body:      datatypes.JSON(body),
		CreatedAt: doc.CreatedAt(),
	}
	st.mu.Unlock()
	return nil
}

func (s *DefaultService) persist(ctx context.Context, st *docState) {
	s.submit(ctx, func(ctx context.Context) error { return s.flush(ctx, st) })
}

// flush writes whatever is staged. Saves queued behind it find nothing left
// and return, so a burst of edits costs one write.
func (s *DefaultService) flush(ctx context.Context, st *docState) error {
	st.saveMu.Lock()
	defer st.saveMu.Unlock()

	st.mu.Lock()
	record, deleted := st.pending, st.deleted
	st.pending = nil
	st.mu.Unlock()
	if record == nil || deleted {
		return nil
	}

	if err := s.repository.Save(ctx, record); err != nil {
		st.mu.Lock()
		if st.pending == nil {
			st.pending = record
		}
		st.mu.Unlock()
		return fmt.Errorf("save document %s: %w", record.ID, err)
	}
	return nil
}

// submit hands task to the worker pool, running it inline when there is no
// pool or the queue is full.
func (s *DefaultService) submit(ctx context.Context, task worker.Task) {
	if s.jobs != nil && s.jobs.Submit(task) {
		return
	}
	if err := task(ctx); err != nil {
		log.Error().Err(err).Msg("document write failed")
	}
}

// invalidate bumps the list-cache version of every user key in users.
func (s *DefaultService) invalidate(ctx context.Context, users []string) {
	seen := make(map[string]bool, len(users))
	for _, u := range users {
		if seen[u] {
			continue
		}
		seen[u] = true
		id, err := strconv.ParseUint(u, 10, 64)
		if err != nil {
			continue
		}
		s.cache.IncrementVersion(ctx, listVersionKey(id))
	}
}

func elementAt(doc *docmodel.Document, sectionID string, index int) (docmodel.Element, error) {
	sec, err := doc.SectionByID(sectionID)
	if err != nil {
		return nil, err
	}
	return sec.Element(index)
}

func elementOf(doc *docmodel.Document, elementID string) (docmodel.Element, error) {
	_, el, ok := doc.FindElement(elementID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", docmodel.ErrElementNotFound, elementID)
	}
	return el, nil
}
