package sandbox

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownDependency is matched by every UnknownDependencyError.
	ErrUnknownDependency = errors.New("unknown dependency")
	// ErrInvalidComponentExport is returned when a module exports nothing callable.
	ErrInvalidComponentExport = errors.New("module does not export a component")
	// ErrInterrupted is returned when a run was stopped by timeout or cancellation.
	ErrInterrupted = errors.New("script execution interrupted")
	// ErrRuntimeClosed is returned by a runtime after Close.
	ErrRuntimeClosed = errors.New("sandbox runtime is closed")
	// ErrRenderFailed wraps script errors raised while rendering a component.
	ErrRenderFailed = errors.New("component render failed")
	// ErrForeignModule is returned when a module is rendered by a runtime that did not evaluate it.
	ErrForeignModule = errors.New("module belongs to another runtime")
)

// UnknownDependencyError names a require outside the host allow-list.
type UnknownDependencyError struct {
	Name string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("unknown dependency %q", e.Name)
}

func (e *UnknownDependencyError) Is(target error) bool {
	return target == ErrUnknownDependency
}
