package event

import (
	"strings"
	"time"
)

// MaterialType is what a competitor may bring to an event.
type MaterialType string

const (
	MaterialBinder     MaterialType = "binder"
	MaterialCheatSheet MaterialType = "cheat sheet"
	MaterialNone       MaterialType = "none"
)

// ParseMaterialType accepts the spellings found in the event sheets.
// Anything unrecognised is MaterialNone.
func ParseMaterialType(s string) MaterialType {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "") {
	case "binder":
		return MaterialBinder
	case "cheatsheet", "notesheet":
		return MaterialCheatSheet
	default:
		return MaterialNone
	}
}

// Event is a competition event. Name is unique within a division.
type Event struct {
	ID           uint64       `json:"id"`
	Name         string       `gorm:"type:varchar(100);not null;uniqueIndex:idx_event_name_division" json:"name"`
	Division     string       `gorm:"type:varchar(8);not null;uniqueIndex:idx_event_name_division" json:"division"`
	MaterialType MaterialType `gorm:"type:varchar(20);not null;default:'none'" json:"material_type"`
	DisplayImage string       `gorm:"type:varchar(255)" json:"display_image"`
	Description  string       `gorm:"type:text" json:"description"`
	Category     string       `gorm:"type:varchar(100)" json:"category"`
	CreatedAt    time.Time    `json:"-"`
	UpdatedAt    time.Time    `json:"-"`
}
