package checkpoint

import "errors"

// ErrListNotFound is returned by ReadList when the identifier list does
// not exist. Phase 2 treats this as "phase 1 has not run yet".
var ErrListNotFound = errors.New("identifier list not found")
