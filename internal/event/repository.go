package event

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	List(ctx context.Context, division string) ([]Event, error)
	FindByID(ctx context.Context, id uint64) (*Event, error)
	FindByIDs(ctx context.Context, ids []uint64) ([]Event, error)
	FindByNameAndDivision(ctx context.Context, name, division string) (*Event, error)
	Create(ctx context.Context, e *Event) error
	Update(ctx context.Context, e *Event) error
	// Transaction runs fn against a repository bound to one transaction.
	Transaction(ctx context.Context, fn func(Repository) error) error
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// List returns every event, or only those of division when it is set.
func (r *RepositoryImpl) List(ctx context.Context, division string) ([]Event, error) {
	var events []Event
	query := r.db.WithContext(ctx).Order("division ASC, name ASC")
	if division != "" {
		query = query.Where("division = ?", division)
	}
	err := query.Find(&events).Error
	return events, err
}

func (r *RepositoryImpl) FindByID(ctx context.Context, id uint64) (*Event, error) {
	var e Event
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *RepositoryImpl) FindByIDs(ctx context.Context, ids []uint64) ([]Event, error) {
	var events []Event
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&events).Error
	return events, err
}

func (r *RepositoryImpl) FindByNameAndDivision(ctx context.Context, name, division string) (*Event, error) {
	var e Event
	err := r.db.WithContext(ctx).
		Where("name = ? AND division = ?", name, division).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *RepositoryImpl) Create(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *RepositoryImpl) Update(ctx context.Context, e *Event) error {
	return r.db.WithContext(ctx).Save(e).Error
}

func (r *RepositoryImpl) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&RepositoryImpl{db: tx})
	})
}
