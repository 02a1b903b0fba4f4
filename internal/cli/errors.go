package cli

import "errors"

// ErrAborted is returned when the user declines a large exhaustive search.
var ErrAborted = errors.New("aborted")
