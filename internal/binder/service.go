package binder

import (
	"context"
	defError "errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"scibind/internal/docmodel"
	"scibind/internal/errors"
	"scibind/internal/event"
)

type Service interface {
	List(ctx context.Context, ownerID uint64) ([]Binder, error)
	Create(ctx context.Context, ownerID, eventID uint64) (*Binder, error)
}

type EventGetter interface {
	Get(ctx context.Context, id uint64) (*event.Event, error)
}

// Documents is the part of the document service a binder needs.
type Documents interface {
	Create(ctx context.Context, userID uint64, title string) (*docmodel.Document, error)
	Delete(ctx context.Context, id string, userID uint64) error
}

type DefaultService struct {
	repository Repository
	events     EventGetter
	documents  Documents
}

func NewService(repository Repository, events EventGetter, documents Documents) *DefaultService {
	return &DefaultService{repository: repository, events: events, documents: documents}
}

func (s *DefaultService) List(ctx context.Context, ownerID uint64) ([]Binder, error) {
	binders, err := s.repository.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if binders == nil {
		binders = []Binder{}
	}
	return binders, nil
}

// Create opens a new binder document for the event, titled after it.
func (s *DefaultService) Create(ctx context.Context, ownerID, eventID uint64) (*Binder, error) {
	_, err := s.repository.FindByOwnerAndEvent(ctx, ownerID, eventID)
	if err == nil {
		return nil, errors.Conflict("Binder already exists for this event", nil)
	}
	if !defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	doc, err := s.documents.Create(ctx, ownerID, Title(ev))
	if err != nil {
		return nil, err
	}

	binder := &Binder{OwnerID: ownerID, EventID: ev.ID, DocumentID: doc.ID()}
	if err := s.repository.Create(ctx, binder); err != nil {
		// do not leave an orphan document behind
		if delErr := s.documents.Delete(ctx, doc.ID(), ownerID); delErr != nil {
			log.Error().Err(delErr).Str("document_id", doc.ID()).Msg("failed to remove orphan binder document")
		}
		if defError.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Conflict("Binder already exists for this event", err)
		}
		return nil, err
	}
	binder.Event = *ev
	return binder, nil
}

// Title is the document title of a binder for ev.
func Title(ev *event.Event) string {
	return fmt.Sprintf("%s (Division %s)", ev.Name, ev.Division)
}
