package drawer

import (
	"errors"
	"fmt"
	"net/http"
)

// Error taxonomy shared by the directory tree manager and the file registry.
// Callers test with errors.Is; messages carry the detail.
var (
	// ErrValidation reports malformed input: oversized strings, negative sizes.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound reports a referenced id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOwnership reports an attempted cross-owner reference.
	ErrOwnership = errors.New("ownership mismatch")
	// ErrCycle reports a move that would make a directory its own descendant.
	ErrCycle = errors.New("directory cycle")
)

// StoreError wraps a failure of the backing store. The underlying driver error
// is preserved and reachable through errors.Unwrap.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// storeErr wraps err as a StoreError unless it already belongs to the domain
// taxonomy, in which case it is returned unchanged.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isDomainError(err) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

func isDomainError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrOwnership) ||
		errors.Is(err, ErrCycle)
}

// HTTPStatus maps an error to the status code a presentation layer should use.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrOwnership):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrCycle):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
