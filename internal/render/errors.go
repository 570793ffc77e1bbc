package render

import (
	"fmt"

	"github.com/mkantor/operator/internal/content"
)

// TemplateError indicates a template could not be parsed or executed.
type TemplateError struct {
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %q: %v", e.Path, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// RecursionError indicates a recursive get would never terminate (direct or
// indirect self-reference) or exceeded the depth limit.
type RecursionError struct {
	Route  content.Route
	Reason string
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("cannot recursively get %q: %s", e.Route, e.Reason)
}

// ExecutableError indicates an executable source could not produce a body:
// it failed to spawn, exited nonzero, or timed out.
type ExecutableError struct {
	Path     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExecutableError) Error() string {
	message := fmt.Sprintf("executable %q failed with exit code %d", e.Path, e.ExitCode)
	if e.Err != nil {
		message = fmt.Sprintf("%s: %v", message, e.Err)
	}
	if e.Stderr != "" {
		message = fmt.Sprintf("%s; stderr: %s", message, e.Stderr)
	}
	return message
}

func (e *ExecutableError) Unwrap() error {
	return e.Err
}
