package document

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the load/save boundary of the document service. Documents
// are stored whole; no row-level diffing.
type Repository interface {
	Save(ctx context.Context, record *DocumentRecord) error
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context) ([]DocumentRecord, error)
	AppendVersion(ctx context.Context, record *DocumentVersionRecord) error
	ListVersions(ctx context.Context, documentID string) ([]DocumentVersionRecord, error)
}

type RepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new document repository
func NewRepository(db *gorm.DB) Repository {
	return &RepositoryImpl{db: db}
}

// Save inserts the record or overwrites every column of an existing one.
func (r *RepositoryImpl) Save(ctx context.Context, record *DocumentRecord) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"owner_id", "title", "version", "body", "updated_at"}),
		}).
		Create(record).Error
}

func (r *RepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Delete(&DocumentVersionRecord{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&DocumentRecord{}).Error
	})
}

func (r *RepositoryImpl) FindAll(ctx context.Context) ([]DocumentRecord, error) {
	var records []DocumentRecord
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&records).Error
	return records, err
}

func (r *RepositoryImpl) AppendVersion(ctx context.Context, record *DocumentVersionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// ListVersions returns the snapshots of a document oldest first.
func (r *RepositoryImpl) ListVersions(ctx context.Context, documentID string) ([]DocumentVersionRecord, error) {
	var records []DocumentVersionRecord
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("position ASC").
		Find(&records).Error
	return records, err
}
