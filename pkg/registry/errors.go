package registry

import "fmt"

// NotFoundError is returned by operations that require an existing
// qualified id.
type NotFoundError struct {
	QualifiedID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.QualifiedID)
}

// DuplicateIDError is returned when a descriptor's qualified id collides
// with one already registered.
type DuplicateIDError struct {
	QualifiedID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate tool ID: %s", e.QualifiedID)
}

// InvocationError wraps a failure in the module.Module.Call boundary
// itself (as opposed to a tool-reported business error).
type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool invocation failed: %s", e.Message)
}

// LoadError wraps a moduleloader failure surfaced through the registry.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load library: %v", e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
