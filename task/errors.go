package task

import (
	"reflect"

	"github.com/pkg/errors"
)

// ErrNoSink is returned when a stage spawns a solution before it was connected to a sink.
var ErrNoSink = errors.New("stage is not connected to a sink")

// ErrNotInitialized is returned when a stage is computed before Init.
var ErrNotInitialized = errors.New("stage has not been initialized")

// NewUndeclaredPropertyError returns an error indicating that a property name was never declared.
func NewUndeclaredPropertyError(name string) error {
	return errors.Errorf("undeclared property %q", name)
}

// NewPropertyTypeError returns an error indicating that a value does not fit a property's declared type.
func NewPropertyTypeError(name string, want, got reflect.Type) error {
	return errors.Errorf("property %q has type %v, cannot hold %v", name, want, got)
}
