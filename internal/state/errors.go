package state

import (
	"errors"
	"fmt"
)

// ErrNilInit is returned by New when no initial state factory is supplied.
var ErrNilInit = errors.New("state: nil initial state factory")

// InitError reports a failed initial state factory. No store is returned.
type InitError struct {
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("state: initial state: %v", e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ListenerError reports a listener that panicked during notification.
type ListenerError struct {
	Subscription Subscription
	Seq          int64
	Panic        any
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("state: listener %d panicked at seq %d: %v", e.Subscription, e.Seq, e.Panic)
}

// IsInitError returns true if err is an InitError.
func IsInitError(err error) bool {
	var ie *InitError
	return errors.As(err, &ie)
}
