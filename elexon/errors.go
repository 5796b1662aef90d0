package elexon

import (
	"fmt"

	"github.com/windwatts/curtailment-mining-watcher/types"
)

// NetworkError is a transport failure against the settlement API: a timeout,
// a 5xx, or a 429. It is retried with bounded attempts; on exhaustion the
// period yields an empty authoritative set instead of aborting the run.
type NetworkError struct {
	Side       types.StackSide
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network error on %s stack: %s", e.Side, e.Err)
	}
	return fmt.Sprintf("network error on %s stack: status=%d", e.Side, e.StatusCode)
}

// Unwrap returns the transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}
