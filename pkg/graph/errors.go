package graph

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateNode    = errors.New("duplicate node id")
	ErrDanglingEdge     = errors.New("edge references unknown node")
	ErrInvalidInputFrom = errors.New("input_from does not name a predecessor")
	ErrCycle            = errors.New("cycle detected")
)

// Kind classifies a ValidationError.
type Kind string

const (
	KindDuplicateNode    Kind = "duplicate_node"
	KindDanglingEdge     Kind = "dangling_edge"
	KindInvalidInputFrom Kind = "invalid_input_from"
	KindCycle            Kind = "cycle"
)

// ValidationError is one reason a graph cannot run.
type ValidationError struct {
	Kind    Kind
	NodeIDs []string // Implicated node ids
	Detail  string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Unwrap(), strings.Join(e.NodeIDs, ", "))
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	switch e.Kind {
	case KindDuplicateNode:
		return ErrDuplicateNode
	case KindDanglingEdge:
		return ErrDanglingEdge
	case KindInvalidInputFrom:
		return ErrInvalidInputFrom
	case KindCycle:
		return ErrCycle
	}
	return errors.New(string(e.Kind))
}

// AggregateError represents multiple validation failures.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d validation errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors flattens err into its individual validation failures.
func ValidationErrors(err error) []*ValidationError {
	var out []*ValidationError
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		for _, e := range aggr.Errors {
			out = append(out, ValidationErrors(e)...)
		}
		return out
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		out = append(out, ve)
	}
	return out
}

// IsValidationError reports whether err came from Validate.
func IsValidationError(err error) bool {
	return len(ValidationErrors(err)) > 0
}
