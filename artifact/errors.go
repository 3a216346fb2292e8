package artifact

import "fmt"

// ErrNotFound is returned when no upload exists for the given session /
// filename pair.
var ErrNotFound = fmt.Errorf("upload not found")
