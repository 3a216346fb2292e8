package model

import (
	"errors"
	"fmt"
)

// BackendError wraps a generation-service failure (network, quota, model
// error). It never crosses the agent boundary raw: the calling agent
// converts it into a failed AgentResult.
type BackendError struct {
	Provider string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend: %v", e.Provider, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsBackendError reports whether err is (or wraps) a BackendError.
func IsBackendError(err error) bool {
	var be *BackendError
	return errors.As(err, &be)
}
