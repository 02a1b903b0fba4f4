package catalogfile

import "errors"

// Sentinel kinds for catalog loading errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported catalog format")
	ErrMissingColumn     = errors.New("missing catalog column")
)
