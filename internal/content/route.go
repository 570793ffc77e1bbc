package content

import (
	"fmt"
	"strings"
)

// Route is a canonicalized absolute path identifying a logical resource. It
// is not a filesystem path: routes never carry extensions, and which file
// answers a route is the resolver's business.
type Route string

// RootRoute answers for the bare "/" path.
const RootRoute = Route("/")

// InvalidRouteError indicates a route that cannot be canonicalized.
type InvalidRouteError struct {
	Route  string
	Reason string
}

func (e *InvalidRouteError) Error() string {
	return fmt.Sprintf("invalid route %q: %s", e.Route, e.Reason)
}

// ParseRoute canonicalizes a raw path into a Route. Routes must be absolute;
// repeated separators collapse; "." and ".." segments are rejected rather
// than resolved so a route can never name anything above the content
// directory.
func ParseRoute(raw string) (Route, error) {
	if !strings.HasPrefix(raw, "/") {
		return "", &InvalidRouteError{Route: raw, Reason: "routes must be absolute (start with '/')"}
	}

	var segments []string
	for _, segment := range strings.Split(raw, "/") {
		switch segment {
		case "", ".":
			continue
		case "..":
			return "", &InvalidRouteError{Route: raw, Reason: "routes must not contain '..' segments"}
		default:
			segments = append(segments, segment)
		}
	}

	return Route("/" + strings.Join(segments, "/")), nil
}

func (r Route) String() string {
	return string(r)
}

// IsRoot reports whether the route is "/".
func (r Route) IsRoot() bool {
	return r == RootRoute
}

// Segments returns the route's path segments; the root route has none.
func (r Route) Segments() []string {
	if r.IsRoot() {
		return nil
	}
	return strings.Split(strings.TrimPrefix(string(r), "/"), "/")
}

// Parent returns the route of the enclosing directory; the root route is its
// own parent.
func (r Route) Parent() Route {
	segments := r.Segments()
	if len(segments) == 0 {
		return RootRoute
	}
	return Route("/" + strings.Join(segments[:len(segments)-1], "/"))
}

// Base returns the final segment, or "" for the root route.
func (r Route) Base() string {
	segments := r.Segments()
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// hidden reports whether any segment is dot-prefixed. Hidden files and
// directories never answer routes.
func (r Route) hidden() bool {
	for _, segment := range r.Segments() {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
