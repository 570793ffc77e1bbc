package content

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRouteValid(t *testing.T) {
	route, err := ParseRoute("/foo/bar")
	require.NoError(t, err)
	require.Equal(t, "/foo/bar", route.String())
}

func TestParseRouteCanonicalizes(t *testing.T) {
	canonical, err := ParseRoute("/foo/bar")
	require.NoError(t, err)

	identical := []string{
		"/foo/bar/",
		"//foo/bar/",
		"/foo/bar//",
		"/foo//bar",
		"////foo/////bar////",
		"/./foo/./bar",
	}
	for _, raw := range identical {
		route, err := ParseRoute(raw)
		require.NoError(t, err, "route %q", raw)
		require.Equal(t, canonical, route, "route %q", raw)
	}
}

func TestParseRouteRoot(t *testing.T) {
	for _, raw := range []string{"/", "////"} {
		route, err := ParseRoute(raw)
		require.NoError(t, err)
		require.Equal(t, RootRoute, route)
		require.True(t, route.IsRoot())
	}
}

func TestParseRouteInvalid(t *testing.T) {
	invalid := []string{
		"no-leading-slash",
		"",
		"/foo/../bar",
		"/..",
	}
	for _, raw := range invalid {
		_, err := ParseRoute(raw)
		require.Error(t, err, "route %q", raw)

		var invalidRoute *InvalidRouteError
		require.ErrorAs(t, err, &invalidRoute)
	}
}

func TestRouteParentAndBase(t *testing.T) {
	route := Route("/blog/posts/first")
	require.Equal(t, Route("/blog/posts"), route.Parent())
	require.Equal(t, "first", route.Base())

	require.Equal(t, RootRoute, RootRoute.Parent())
	require.Equal(t, "", RootRoute.Base())
	require.Equal(t, RootRoute, Route("/top").Parent())
}
