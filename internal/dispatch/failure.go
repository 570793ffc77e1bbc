package dispatch

import (
	"errors"
	"fmt"

	"github.com/mkantor/operator/internal/content"
	"github.com/mkantor/operator/internal/render"
)

// Kind classifies why a resolve-and-render attempt could not produce a
// body. The string values appear in render contexts (error.kind), logs, and
// metrics labels.
type Kind string

const (
	KindInvalidRoute         Kind = "invalid-route"
	KindNotFound             Kind = "not-found"
	KindAmbiguous            Kind = "ambiguous"
	KindForbidden            Kind = "forbidden"
	KindUnsupportedMediaType Kind = "unsupported-media-type"
	KindTemplateError        Kind = "template-error"
	KindRecursionError       Kind = "recursion-error"
	KindExecutableError      Kind = "executable-error"
	KindErrorHandlerFailed   Kind = "error-handler-failed"
	KindInternal             Kind = "internal-error"
)

// Failure is a classified pipeline error. When Kind is
// KindErrorHandlerFailed, Original records what the error handler was asked
// to present.
type Failure struct {
	Kind     Kind
	Original Kind
	Err      error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ClassifyError maps a pipeline error to its Kind. Recursion errors are
// checked before template errors because a refused recursive get surfaces
// wrapped in the enclosing template's execution error.
func ClassifyError(err error) Kind {
	var (
		invalidRoute  *content.InvalidRouteError
		recursionErr  *render.RecursionError
		templateErr   *render.TemplateError
		executableErr *render.ExecutableError
	)

	switch {
	case errors.As(err, &invalidRoute):
		return KindInvalidRoute
	case errors.Is(err, content.ErrNotFound):
		return KindNotFound
	case errors.Is(err, content.ErrAmbiguous):
		return KindAmbiguous
	case errors.Is(err, content.ErrForbidden):
		return KindForbidden
	case errors.Is(err, content.ErrUnsupportedMediaType):
		return KindUnsupportedMediaType
	case errors.As(err, &recursionErr):
		return KindRecursionError
	case errors.As(err, &executableErr):
		return KindExecutableError
	case errors.As(err, &templateErr):
		return KindTemplateError
	default:
		return KindInternal
	}
}
