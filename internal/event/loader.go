package event

import (
	"context"
	"encoding/csv"
	defError "errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Columns of the events sheet. Name and Division identify an event.
const (
	colName        = "Name"
	colDivision    = "Division"
	colMaterial    = "Material Type"
	colImage       = "Image Name"
	colDescription = "Description"
	colCategory    = "Category"
)

// LoadResult counts what a load did to each row.
type LoadResult struct {
	Created  int `json:"created"`
	Modified int `json:"modified"`
	Skipped  int `json:"skipped"`
}

// Loader reads events from a CSV sheet with a header row.
type Loader struct {
	repository Repository
	// Modify overwrites the optional columns of events that already exist.
	// Without it existing events are left alone.
	Modify bool
}

func NewLoader(repository Repository, modify bool) *Loader {
	return &Loader{repository: repository, Modify: modify}
}

// Load applies every row in one transaction; a bad row aborts the load.
func (l *Loader) Load(ctx context.Context, r io.Reader) (LoadResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return LoadResult{}, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{colName, colDivision} {
		if _, ok := index[required]; !ok {
			return LoadResult{}, fmt.Errorf("missing %q column", required)
		}
	}

	var result LoadResult
	err = l.repository.Transaction(ctx, func(repo Repository) error {
		line := 1
		for {
			record, err := reader.Read()
			if defError.Is(err, io.EOF) {
				return nil
			}
			line++
			if err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
			if err := l.apply(ctx, repo, row{index: index, record: record}, &result); err != nil {
				return fmt.Errorf("line %d: %w", line, err)
			}
		}
	})
	return result, err
}

func (l *Loader) apply(ctx context.Context, repo Repository, r row, result *LoadResult) error {
	name, division := r.get(colName), r.get(colDivision)
	if name == "" || division == "" {
		return fmt.Errorf("name and division are required")
	}

	existing, err := repo.FindByNameAndDivision(ctx, name, division)
	if err != nil && !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if existing == nil {
		e := &Event{
			Name:         name,
			Division:     division,
			MaterialType: ParseMaterialType(r.get(colMaterial)),
			DisplayImage: r.get(colImage),
			Description:  r.get(colDescription),
			Category:     r.get(colCategory),
		}
		if err := repo.Create(ctx, e); err != nil {
			return err
		}
		result.Created++
		log.Info().Str("event", name).Str("division", division).Msg("event created")
		return nil
	}

	if !l.Modify {
		result.Skipped++
		log.Warn().Str("event", name).Str("division", division).Msg("event exists, skipped")
		return nil
	}

	// absent columns keep the stored value
	if v, ok := r.lookup(colMaterial); ok {
		existing.MaterialType = ParseMaterialType(v)
	}
	if v, ok := r.lookup(colImage); ok {
		existing.DisplayImage = v
	}
	if v, ok := r.lookup(colDescription); ok {
		existing.Description = v
	}
	if v, ok := r.lookup(colCategory); ok {
		existing.Category = v
	}
	if err := repo.Update(ctx, existing); err != nil {
		return err
	}
	result.Modified++
	log.Info().Str("event", name).Str("division", division).Msg("event modified")
	return nil
}

type row struct {
	index  map[string]int
	record []string
}

func (r row) lookup(column string) (string, bool) {
	i, ok := r.index[column]
	if !ok || i >= len(r.record) {
		return "", false
	}
	return strings.TrimSpace(r.record[i]), true
}

func (r row) get(column string) string {
	v, _ := r.lookup(column)
	return v
}
