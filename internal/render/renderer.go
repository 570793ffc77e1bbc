package render

import (
	"context"

	"github.com/mkantor/operator/internal/content"
	"github.com/mkantor/operator/internal/mediatype"
)

// Result is a fully-rendered response body and the media type it was
// produced as. Bodies are complete: a renderer either delivers the whole
// body or fails, never a prefix.
type Result struct {
	Body      []byte
	MediaType mediatype.MediaType
}

// Recursion tracks the routes currently being rendered on this logical call
// stack, so recursive gets can be cut off deterministically instead of
// exhausting resources.
type Recursion struct {
	Visited []content.Route
}

// Depth is the number of renders already in flight.
func (r Recursion) Depth() int {
	return len(r.Visited)
}

// Contains reports whether the route is already being rendered.
func (r Recursion) Contains(route content.Route) bool {
	for _, visited := range r.Visited {
		if visited == route {
			return true
		}
	}
	return false
}

// Enter returns the recursion state for a nested render of the route. The
// receiver is not mutated; nested calls see their own stack.
func (r Recursion) Enter(route content.Route) Recursion {
	visited := make([]content.Route, 0, len(r.Visited)+1)
	visited = append(visited, r.Visited...)
	visited = append(visited, route)
	return Recursion{Visited: visited}
}

// Renderer produces a response body from a content source.
type Renderer interface {
	Render(ctx context.Context, source *content.Source, renderContext Context, recursion Recursion) (*Result, error)
}

// Getter re-enters the resolve-and-render pipeline for another route while a
// render is in flight. Implemented by the dispatcher; consumed by the
// template renderer's get helper.
type Getter interface {
	RenderRoute(ctx context.Context, route content.Route, preferences []mediatype.Range, parent Context, recursion Recursion) (*Result, error)
}
