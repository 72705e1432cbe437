package docmodel

import "errors"

var (
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrCellOutOfRange     = errors.New("table cell out of range")
	ErrInvalidTableShape  = errors.New("invalid table shape")
	ErrElementNotFound    = errors.New("element not found")
	ErrSectionNotFound    = errors.New("section not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrUnknownElementKind = errors.New("unknown element kind")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrDocumentExists     = errors.New("document already exists")
	ErrInvalidColumns     = errors.New("column count must be positive")
	ErrInvalidElement     = errors.New("invalid element")
)
