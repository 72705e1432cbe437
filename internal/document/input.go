package document

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"scibind/internal/docmodel"
	"scibind/internal/errors"
)

const maxTableSide = 500

// elementHead holds the fields of an incoming element that decide whether it
// can be built at all.
type elementHead struct {
	Type docmodel.Kind `json:"type"`
	URL  *string       `json:"url"`
	Rows *int          `json:"rows"`
	Cols *int          `json:"cols"`
}

func (h elementHead) Validate() error {
	kinds := make([]any, len(docmodel.Kinds))
	for i, k := range docmodel.Kinds {
		kinds[i] = k
	}
	isTable := h.Type == docmodel.KindTable

	return validation.ValidateStruct(&h,
		validation.Field(&h.Type, validation.Required, validation.In(kinds...)),
		validation.Field(&h.URL, validation.When(h.Type == docmodel.KindHyperlink, validation.Required)),
		validation.Field(&h.Rows, validation.When(isTable, validation.Required, validation.Max(maxTableSide))),
		validation.Field(&h.Cols, validation.When(isTable, validation.Required, validation.Max(maxTableSide))),
	)
}

// decodeElement builds a fresh element from its wire form. Client supplied
// ids are dropped so every stored element gets a server-assigned one.
func decodeElement(raw json.RawMessage) (docmodel.Element, error) {
	var head elementHead
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, errors.BadRequest("Invalid element", err)
	}
	if err := head.Validate(); err != nil {
		return nil, errors.NewValidationError(err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.BadRequest("Invalid element", err)
	}
	delete(fields, "id")
	stripped, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	el, err := docmodel.UnmarshalElement(stripped)
	if err != nil {
		return nil, errors.FromDomain(err)
	}
	if err := validateStyling(el.Styling()); err != nil {
		return nil, errors.NewValidationError(err)
	}
	return el, nil
}

var alignments = []any{"left", "center", "right", "justify"}

func validateStylePatch(p docmodel.StylePatch) error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Size, validation.NilOrNotEmpty, validation.Min(1), validation.Max(200)),
		validation.Field(&p.Indent, validation.Min(0), validation.Max(20)),
		validation.Field(&p.Alignment, validation.NilOrNotEmpty, validation.In(alignments...)),
		validation.Field(&p.Color, validation.NilOrNotEmpty),
		validation.Field(&p.Font, validation.NilOrNotEmpty),
	)
}

// validateStyling checks a full styling against the same bounds a patch gets.
func validateStyling(s docmodel.Styling) error {
	return validateStylePatch(docmodel.StylePatch{
		Color:     &s.Color,
		Alignment: &s.Alignment,
		Font:      &s.Font,
		Size:      &s.Size,
		Indent:    &s.Indent,
	})
}
