package binder

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, binder *Binder) error
	FindByOwner(ctx context.Context, ownerID uint64) ([]Binder, error)
	FindByOwnerAndEvent(ctx context.Context, ownerID, eventID uint64) (*Binder, error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Create(ctx context.Context, binder *Binder) error {
	// the event row already exists; only the binder is inserted
	return r.db.WithContext(ctx).Omit("Event").Create(binder).Error
}

func (r *RepositoryImpl) FindByOwner(ctx context.Context, ownerID uint64) ([]Binder, error) {
	var binders []Binder
	err := r.db.WithContext(ctx).
		Preload("Event").
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&binders).Error
	return binders, err
}

func (r *RepositoryImpl) FindByOwnerAndEvent(ctx context.Context, ownerID, eventID uint64) (*Binder, error) {
	var binder Binder
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND event_id = ?", ownerID, eventID).
		First(&binder).Error
	if err != nil {
		return nil, err
	}
	return &binder, nil
}
