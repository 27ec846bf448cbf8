package service

import (
	"errors"
)

var ErrLotNotFound = errors.New("Lot not found")

// UpstreamError reports a failed store call. Step names the call that failed;
// Error() yields only the underlying store message, which is what clients see.
type UpstreamError struct {
	Op   string
	Step string
	Err  error
}

func (e *UpstreamError) Error() string {
	return rootCause(e.Err).Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
