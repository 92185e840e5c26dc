package sqlite

import "errors"

// Sentinel errors for the page/record decoder. Callers match with errors.Is;
// call sites wrap these with page/offset context via fmt.Errorf("%w", ...).
var (
	ErrShortRead           = errors.New("sqlite: short read")
	ErrBadPageNumber       = errors.New("sqlite: bad page number")
	ErrTruncatedVarint     = errors.New("sqlite: truncated varint")
	ErrUnknownPageKind     = errors.New("sqlite: unknown page kind")
	ErrInvalidUTF8         = errors.New("sqlite: invalid utf-8 in text column")
	ErrPayloadSizeMismatch = errors.New("sqlite: payload size mismatch")
	ErrOverflowLoop        = errors.New("sqlite: overflow page chain loop")
	ErrBadSchemaRecord     = errors.New("sqlite: malformed schema record")
	ErrRootNotFound        = errors.New("sqlite: root page not found in catalog")
)
