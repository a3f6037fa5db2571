package timeclient

import (
	"errors"
	"fmt"
)

// ErrFetchFailure is the single failure class of the time client. Network
// errors, non-2xx responses, unreadable bodies and non-text bodies all match it.
var ErrFetchFailure = errors.New("fetch failure")

// FetchError describes one failed attempt to obtain the time string
type FetchError struct {
	Op         string // request, get, status, read, decode, dial
	Endpoint   string
	StatusCode int // set when Op is "status"
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s: status %d: %v", e.Endpoint, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.Endpoint, e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports every FetchError as an ErrFetchFailure
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailure
}
