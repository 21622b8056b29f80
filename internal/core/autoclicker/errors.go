package autoclicker

import (
	"errors"
	"fmt"
)

// Display adapters may report a name they do not recognise as ErrNoKeycode
// when their keysym table cannot tell it apart from an unmapped keysym.
var (
	ErrDisplayUnavailable = errors.New("display unavailable")
	ErrUnknownKeysym      = errors.New("unknown keysym")
	ErrNoKeycode          = errors.New("no keycode for keysym")
	ErrInvalidButton      = errors.New("button must be left|middle|right|1..9")
	ErrInvalidRate        = errors.New("rate must be a finite number greater than 0")
	ErrInvalidDuty        = errors.New("duty must be a number within 0..100")
)

// ErrorKind classifies how a worker reacts to a failure.
type ErrorKind int

const (
	// KindFatal ends the worker for the rest of the process lifetime.
	KindFatal ErrorKind = iota + 1
	// KindRecoverable is retried on the next cycle.
	KindRecoverable
	// KindDegraded is absorbed by substituting a safe default.
	KindDegraded
)

func (k ErrorKind) String() string {
	switch k {
	case KindFatal:
		return "fatal"
	case KindRecoverable:
		return "recoverable"
	case KindDegraded:
		return "degraded"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type WorkerError struct {
	Worker string
	Kind   ErrorKind
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Worker, e.Kind, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

func fatal(worker string, err error) *WorkerError {
	return &WorkerError{Worker: worker, Kind: KindFatal, Err: err}
}

func recoverable(worker string, err error) *WorkerError {
	return &WorkerError{Worker: worker, Kind: KindRecoverable, Err: err}
}

func degraded(worker string, err error) *WorkerError {
	return &WorkerError{Worker: worker, Kind: KindDegraded, Err: err}
}

// KindOf reports the kind of the first WorkerError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var werr *WorkerError
	if errors.As(err, &werr) {
		return werr.Kind
	}
	return 0
}
