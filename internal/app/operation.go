package app

import "strings"

// Operation tracks a CLI command that may mutate the store.
// Operations are created in memory with ID=0. Only mutating commands
// persist them, which gives them an auto-increment ID from the journal.
type Operation struct {
	ID         int64
	Operation  string
	Parameters string
	Status     string // "success" or "error"
}

// NewOperation creates a new in-memory operation. args are joined with
// spaces to form the recorded parameters.
func NewOperation(operation string, args ...string) *Operation {
	return &Operation{
		Operation:  operation,
		Parameters: strings.Join(args, " "),
		Status:     "success",
	}
}

// Persisted returns true if this operation has been saved to the journal.
func (op *Operation) Persisted() bool {
	return op.ID != 0
}

// Fail marks the operation as failed. It is a no-op for a nil error so
// callers can pass their result straight through.
func (op *Operation) Fail(err error) error {
	if err != nil {
		op.Status = "error"
	}
	return err
}
