package document

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"scibind/internal/docmodel"
	"scibind/internal/utils"
)

// DocumentRecord is the persisted form of a document: its full serialized
// graph plus the columns needed to list it without decoding.
type DocumentRecord struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)"`
	OwnerID   uint64         `gorm:"not null;index"`
	Title     string         `gorm:"type:varchar(255);not null"`
	Version   int            `gorm:"not null;default:1"`
	Body      datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (DocumentRecord) TableName() string { return "documents" }

type DocumentVersionRecord struct {
	ID         uint64         `gorm:"primaryKey"`
	DocumentID string         `gorm:"type:varchar(36);not null;uniqueIndex:idx_document_version_position"`
	Position   int            `gorm:"not null;uniqueIndex:idx_document_version_position"`
	State      datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time
}

func (DocumentVersionRecord) TableName() string { return "document_versions" }

type PaginatedDocuments struct {
	Data []docmodel.Summary `json:"data"`
	Meta utils.PageMeta     `json:"meta"`
}

type CreateOrRenameRequest struct {
	Title string `json:"title" binding:"required,min=1,max=255"`
}

type SectionRequest struct {
	Title string `json:"title" binding:"max=255"`
}

// ElementRequest carries one element in its wire form. Index is only read by
// insertion; nil appends.
type ElementRequest struct {
	Element json.RawMessage `json:"element" binding:"required"`
	Index   *int            `json:"index"`
}

type CellRequest struct {
	Row     int    `json:"row" binding:"min=0"`
	Col     int    `json:"col" binding:"min=0"`
	Content string `json:"content"`
}

type CommentRequest struct {
	ElementID string `json:"element_id" binding:"required"`
	Content   string `json:"content" binding:"required,max=5000"`
	ReplyTo   string `json:"reply_to"`
}

type CollaboratorRequest struct {
	UserID uint64 `json:"user_id" binding:"required"`
}

type TagRequest struct {
	Tag string `json:"tag" binding:"required,max=64"`
}

type VersionsResponse struct {
	Count int `json:"count"`
}
