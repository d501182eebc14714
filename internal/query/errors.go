package query

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFilterExpression is returned for malformed filter syntax
	// (population frequency, genotype, operator-prefixed values).
	ErrInvalidFilterExpression = errors.New("invalid filter expression")

	// ErrUnsupportedFilter is returned when a filter key is recognized but
	// cannot be expanded for the requested statement shape.
	ErrUnsupportedFilter = errors.New("unsupported filter")

	// ErrInvalidOption is returned for malformed query options.
	ErrInvalidOption = errors.New("invalid query option")
)

// InvalidFilterExpressionError reports which filter failed to parse and why.
type InvalidFilterExpressionError struct {
	Key    string
	Expr   string
	Reason string
}

func (e *InvalidFilterExpressionError) Error() string {
	return fmt.Sprintf("invalid %s expression %q: %s", e.Key, e.Expr, e.Reason)
}

func (e *InvalidFilterExpressionError) Is(target error) bool {
	return target == ErrInvalidFilterExpression
}

// UnsupportedFilterError reports a filter key that the statement kind cannot express.
type UnsupportedFilterError struct {
	Key  string
	Kind Kind
}

func (e *UnsupportedFilterError) Error() string {
	return fmt.Sprintf("filter %q is not supported in %s queries", e.Key, e.Kind)
}

func (e *UnsupportedFilterError) Is(target error) bool {
	return target == ErrUnsupportedFilter
}

func invalidExpr(key, expr, format string, args ...any) error {
	return &InvalidFilterExpressionError{Key: key, Expr: expr, Reason: fmt.Sprintf(format, args...)}
}

func invalidOption(key string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidOption, key, err)
}
