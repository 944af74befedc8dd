package export

import "errors"

var (
	ErrInvalidRequest = errors.New("export: invalid request")
	ErrPrepareOutput  = errors.New("export: failed to prepare output")
	ErrFetch          = errors.New("export: fetch failed")
	ErrWrite          = errors.New("export: failed to write output")
)
