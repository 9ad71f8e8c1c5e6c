package repository

import (
	"errors"
	"fmt"
)

var (
	ErrRemoteCall = errors.New("remote call failed")
	ErrNotFound   = errors.New("not found")
)

// RemoteCallError describes a failed call to the cart or catalog service.
// StatusCode is zero when no response arrived.
type RemoteCallError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RemoteCallError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error { return e.Err }

func (e *RemoteCallError) Is(target error) bool {
	if target == ErrRemoteCall {
		return true
	}
	return target == ErrNotFound && e.StatusCode == 404
}
