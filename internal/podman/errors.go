package podman

import (
	"fmt"
)

// Error wraps a failed podman invocation with the operation it was part of.
type Error struct {
	Op     string // create, remove, generate
	Entity string // container, network, unit
	Name   string
	Err    error
}

func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, entity, name string, err error) *Error {
	return &Error{Op: op, Entity: entity, Name: name, Err: err}
}
