package event

import (
	"context"
	defError "errors"
	"strings"

	"gorm.io/gorm"

	"scibind/internal/errors"
)

type Service interface {
	List(ctx context.Context, division string) ([]Event, error)
	Get(ctx context.Context, id uint64) (*Event, error)
	// FindByIDs resolves every id or fails with 404.
	FindByIDs(ctx context.Context, ids []uint64) ([]Event, error)
}

type DefaultService struct {
	repository Repository
}

func NewService(repository Repository) *DefaultService {
	return &DefaultService{repository: repository}
}

func (s *DefaultService) List(ctx context.Context, division string) ([]Event, error) {
	events, err := s.repository.List(ctx, strings.ToUpper(strings.TrimSpace(division)))
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

func (s *DefaultService) Get(ctx context.Context, id uint64) (*Event, error) {
	e, err := s.repository.FindByID(ctx, id)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Event not found", err)
	}
	return e, err
}

func (s *DefaultService) FindByIDs(ctx context.Context, ids []uint64) ([]Event, error) {
	unique := make([]uint64, 0, len(ids))
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	events, err := s.repository.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(events) != len(unique) {
		return nil, errors.NotFound("Event not found", nil)
	}
	return events, nil
}
