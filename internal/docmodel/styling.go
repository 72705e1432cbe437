package docmodel

// Styling is the presentation record carried by every element.
type Styling struct {
	Bold      bool   `json:"bold"`
	Italic    bool   `json:"italic"`
	Underline bool   `json:"underline"`
	Color     string `json:"color"`
	Alignment string `json:"alignment"`
	Font      string `json:"font"`
	Size      int    `json:"size"`
	Highlight string `json:"highlight"`
	Bullet    bool   `json:"bullet"`
	Number    bool   `json:"number"`
	Indent    int    `json:"indent"`
}

// DefaultStyling returns the styling every new element starts with.
func DefaultStyling() Styling {
	return Styling{
		Color:     "black",
		Alignment: "left",
		Font:      "Arial",
		Size:      12,
		Highlight: "none",
	}
}

// StylePatch is a partial styling update. Nil fields are left untouched.
type StylePatch struct {
	Bold      *bool   `json:"bold,omitempty"`
	Italic    *bool   `json:"italic,omitempty"`
	Underline *bool   `json:"underline,omitempty"`
	Color     *string `json:"color,omitempty"`
	Alignment *string `json:"alignment,omitempty"`
	Font      *string `json:"font,omitempty"`
	Size      *int    `json:"size,omitempty"`
	Highlight *string `json:"highlight,omitempty"`
	Bullet    *bool   `json:"bullet,omitempty"`
	Number    *bool   `json:"number,omitempty"`
	Indent    *int    `json:"indent,omitempty"`
}

// Merge returns s with every field set in p overwritten.
func (s Styling) Merge(p StylePatch) Styling {
	if p.Bold != nil {
		s.Bold = *p.Bold
	}
	if p.Italic != nil {
		s.Italic = *p.Italic
	}
	if p.Underline != nil {
		s.Underline = *p.Underline
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.Alignment != nil {
		s.Alignment = *p.Alignment
	}
	if p.Font != nil {
		s.Font = *p.Font
	}
	if p.Size != nil {
		s.Size = *p.Size
	}
	if p.Highlight != nil {
		s.Highlight = *p.Highlight
	}
	if p.Bullet != nil {
		s.Bullet = *p.Bullet
	}
	if p.Number != nil {
		s.Number = *p.Number
	}
	if p.Indent != nil {
		s.Indent = *p.Indent
	}
	return s
}

// LevelStyle is the default styling for one text style level.
type LevelStyle struct {
	Level   int     `json:"level"`
	Tag     string  `json:"tag"`
	Styling Styling `json:"styling"`
}

var levelTags = []string{"p", "h1", "h2", "h3", "h4", "title", "subtitle"}

// BaseLevelStyles returns the style-level table new documents start with:
// 0 p, 1-4 h1-h4, 5 title, 6 subtitle.
func BaseLevelStyles() []LevelStyle {
	levels := make([]LevelStyle, len(levelTags))
	for i, tag := range levelTags {
		levels[i] = LevelStyle{Level: i, Tag: tag, Styling: DefaultStyling()}
	}
	return levels
}
