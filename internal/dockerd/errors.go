package dockerd

import (
	"errors"
	"fmt"
)

// ErrContainerGone signals that a per-container detail lookup failed with a
// non-2xx status. Callers skip the container and continue; it is never
// fatal to a reconciliation pass.
var ErrContainerGone = errors.New("dockerd: container gone")

// StatusError reports a non-2xx status on a required daemon call.
type StatusError struct {
	Op   string
	Code string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dockerd: %s returned status %s", e.Op, e.Code)
}
