package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStoreExecution marks failures surfaced by the graph store driver.
var ErrStoreExecution = errors.New("store execution failed")

// StoreExecutionError carries the statement that failed alongside the driver
// error.
type StoreExecutionError struct {
	Statement string
	Err       error
}

func (e *StoreExecutionError) Error() string {
	stmt := strings.Join(strings.Fields(e.Statement), " ")
	if len(stmt) > 200 {
		stmt = stmt[:200] + "..."
	}
	return fmt.Sprintf("executing %q: %v", stmt, e.Err)
}

func (e *StoreExecutionError) Unwrap() error { return e.Err }

func (e *StoreExecutionError) Is(target error) bool {
	return target == ErrStoreExecution
}
