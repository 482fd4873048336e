package workout

import (
	"errors"
	"fmt"

	"github.com/Worcesters/basicfit/internal/storage"
	"go.uber.org/multierr"
)

var (
	// ErrValidation marks malformed input. Nothing has been written.
	ErrValidation = errors.New("validation failed")
	// ErrConflict marks a write the current state does not allow, such as
	// an invalid session transition.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a missing session, exercise entry, set or catalog row.
	ErrNotFound = errors.New("not found")
	// ErrReferential marks child records that could not be loaded while
	// recomputing a parent. The whole write was rolled back.
	ErrReferential = errors.New("referential fault")
)

// Reason codes returned by Reason.
const (
	ReasonValidation  = "validation"
	ReasonConflict    = "conflict"
	ReasonNotFound    = "not_found"
	ReasonReferential = "referential"
	ReasonInternal    = "internal"
)

// OpError records the service operation and resource an error came from.
type OpError struct {
	Op       string
	Resource string
	ID       int64
	Err      error
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.ID > 0 {
		return fmt.Sprintf("%s %s %d: %v", e.Op, e.Resource, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Reason maps err onto a stable reason code.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return ReasonValidation
	case errors.Is(err, ErrConflict):
		return ReasonConflict
	case errors.Is(err, ErrReferential):
		return ReasonReferential
	case errors.Is(err, ErrNotFound):
		return ReasonNotFound
	default:
		return ReasonInternal
	}
}

// Problems returns the individual validation failures carried by err.
func Problems(err error) []string {
	var out []string
	for _, e := range multierr.Errors(unwrapValidation(err)) {
		out = append(out, e.Error())
	}
	return out
}

func unwrapValidation(err error) error {
	var ve *validationError
	if errors.As(err, &ve) {
		return ve.problems
	}
	return nil
}

// translate maps storage sentinels onto the service taxonomy, leaving errors
// that already carry a service sentinel alone.
func translate(err error) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotFound), errors.Is(err, ErrReferential):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, storage.ErrDuplicate):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func notFound(resource string, id int64, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %s %d", ErrNotFound, resource, id)
	}
	return err
}

// validationError carries every problem found in one input.
type validationError struct {
	problems error
}

func (e *validationError) Error() string {
	return fmt.Sprintf("%s: %v", ErrValidation, e.problems)
}

func (e *validationError) Is(target error) bool { return target == ErrValidation }

func (e *validationError) Unwrap() error { return e.problems }

// checker collects validation problems.
type checker struct {
	problems error
}

func (c *checker) check(ok bool, format string, args ...any) {
	if !ok {
		c.problems = multierr.Append(c.problems, fmt.Errorf(format, args...))
	}
}

func (c *checker) err() error {
	if c.problems == nil {
		return nil
	}
	return &validationError{problems: c.problems}
}

func validationf(format string, args ...any) error {
	var c checker
	c.check(false, format, args...)
	return c.err()
}

func effortOK(v *int) bool {
	return v == nil || (*v >= 1 && *v <= 10)
}

func positiveOrNil(v *float64) bool {
	return v == nil || *v > 0
}
