package dispatch

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mkantor/operator/internal/content"
	"github.com/mkantor/operator/internal/render"
)

func TestClassifyError(t *testing.T) {
	tests := map[Kind]error{
		KindInvalidRoute:         &content.InvalidRouteError{Route: "..", Reason: "relative"},
		KindNotFound:             fmt.Errorf("route %q: %w", "/x", content.ErrNotFound),
		KindAmbiguous:            content.ErrAmbiguous,
		KindForbidden:            content.ErrForbidden,
		KindUnsupportedMediaType: content.ErrUnsupportedMediaType,
		KindTemplateError:        &render.TemplateError{Path: "/x", Err: errors.New("parse")},
		KindRecursionError:       &render.RecursionError{Route: "/x", Reason: "cycle"},
		KindExecutableError:      &render.ExecutableError{Path: "/x", ExitCode: 1},
		KindInternal:             errors.New("something else"),
	}

	for want, err := range tests {
		require.Equal(t, want, ClassifyError(err), "error %v", err)
	}
}

// A recursion error inside a template surfaces wrapped in the template's
// execution error; the classification must report the recursion, not the
// wrapping.
func TestClassifyNestedRecursionError(t *testing.T) {
	nested := &render.TemplateError{
		Path: "/x",
		Err:  fmt.Errorf("executing: %w", &render.RecursionError{Route: "/x", Reason: "cycle"}),
	}
	require.Equal(t, KindRecursionError, ClassifyError(nested))
}

func TestFailureUnwrap(t *testing.T) {
	failure := &Failure{
		Kind: KindNotFound,
		Err:  fmt.Errorf("route %q: %w", "/x", content.ErrNotFound),
	}
	require.ErrorIs(t, failure, content.ErrNotFound)
	require.Contains(t, failure.Error(), "not-found")
}
