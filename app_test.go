package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mkantor/operator/internal/config"
	"github.com/mkantor/operator/internal/content"
	"github.com/mkantor/operator/internal/testhelpers"
)

func newTestApp(t *testing.T, files map[string]string, mutate func(*config.Config)) *theApp {
	t.Helper()

	cfg := &config.Config{}
	cfg.Content.Directory = testhelpers.WriteTree(t, files)
	cfg.Content.ExecutableTimeout = 10 * time.Second
	if mutate != nil {
		mutate(cfg)
	}

	dispatcher, err := newDispatcher(cfg, true)
	require.NoError(t, err)

	app := &theApp{
		config:        cfg,
		dispatcher:    dispatcher,
		operatorPath:  "/bin/operator",
		socketAddress: "127.0.0.1:8080",
	}
	if cfg.Content.IndexRoute != "" {
		app.indexRoute, err = content.ParseRoute(cfg.Content.IndexRoute)
		require.NoError(t, err)
	}
	if len(cfg.Server.CustomHeaders) > 0 {
		app.customHeaders, err = config.ParseHeaderString(cfg.Server.CustomHeaders)
		require.NoError(t, err)
	}
	return app
}

func doRequest(app *theApp, method, target string, requestHeaders map[string]string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, nil)
	for name, value := range requestHeaders {
		request.Header.Set(name, value)
	}
	recorder := httptest.NewRecorder()
	app.ServeHTTP(recorder, request)
	return recorder
}

func TestServeStaticFile(t *testing.T) {
	app := newTestApp(t, map[string]string{"hello.txt": "hello world"}, nil)

	response := doRequest(app, http.MethodGet, "/hello", nil)
	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, "text/plain", response.Header().Get("Content-Type"))
	require.Equal(t, "hello world", response.Body.String())
}

func TestServeNegotiatesBetweenSources(t *testing.T) {
	app := newTestApp(t, map[string]string{
		"home.html":    "<html>home</html>",
		"home.json.sh": testhelpers.Script(`printf '{"home":true}'`),
	}, nil)

	response := doRequest(app, http.MethodGet, "/home", map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, "<html>home</html>", response.Body.String())

	response = doRequest(app, http.MethodGet, "/home", map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, `{"home":true}`, response.Body.String())
	require.Equal(t, "application/json", response.Header().Get("Content-Type"))
}

func TestURLExtensionOverridesAcceptHeader(t *testing.T) {
	app := newTestApp(t, map[string]string{
		"home.html":    "<html>home</html>",
		"home.json.sh": testhelpers.Script(`printf '{"home":true}'`),
	}, nil)

	response := doRequest(app, http.MethodGet, "/home.json", map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, `{"home":true}`, response.Body.String())
}

func TestServeNotFound(t *testing.T) {
	app := newTestApp(t, map[string]string{"hello.txt": "hello"}, nil)

	response := doRequest(app, http.MethodGet, "/missing", nil)
	require.Equal(t, http.StatusNotFound, response.Code)
	require.Contains(t, response.Body.String(), "not-found")
}

func TestServeNotAcceptable(t *testing.T) {
	app := newTestApp(t, map[string]string{"hello.txt": "hello"}, nil)

	response := doRequest(app, http.MethodGet, "/hello", map[string]string{"Accept": "image/png"})
	require.Equal(t, http.StatusNotAcceptable, response.Code)
}

func TestServeErrorHandler(t *testing.T) {
	app := newTestApp(t, map[string]string{
		"error.html.tmpl": `<h1>{{.Error.Kind}}</h1>`,
	}, func(cfg *config.Config) {
		cfg.Content.ErrorHandlerRoute = "/error"
	})

	response := doRequest(app, http.MethodGet, "/missing", map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusNotFound, response.Code)
	require.Equal(t, "<h1>not-found</h1>", response.Body.String())
	require.Equal(t, "text/html", response.Header().Get("Content-Type"))
}

func TestServeErrorHandlerFailure(t *testing.T) {
	app := newTestApp(t, map[string]string{"hello.txt": "hello"}, func(cfg *config.Config) {
		cfg.Content.ErrorHandlerRoute = "/error"
	})

	// The error handler route does not exist; the response falls back to
	// the original failure's status with a plain body naming both the
	// original failure and the handler's.
	response := doRequest(app, http.MethodGet, "/missing", nil)
	require.Equal(t, http.StatusNotFound, response.Code)
	require.Contains(t, response.Body.String(), "not-found")
	require.Contains(t, response.Body.String(), "error handler failed")
}

func TestServeIndexRoute(t *testing.T) {
	app := newTestApp(t, map[string]string{"home.html": "<html>home</html>"}, func(cfg *config.Config) {
		cfg.Content.IndexRoute = "/home"
	})

	response := doRequest(app, http.MethodGet, "/", map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, "<html>home</html>", response.Body.String())
}

func TestServeDirectoryIndex(t *testing.T) {
	app := newTestApp(t, map[string]string{"blog/index.html": "<html>blog</html>"}, nil)

	response := doRequest(app, http.MethodGet, "/blog", map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, "<html>blog</html>", response.Body.String())
}

func TestServeHiddenContent(t *testing.T) {
	app := newTestApp(t, map[string]string{".secret.txt": "nope"}, nil)

	response := doRequest(app, http.MethodGet, "/.secret", nil)
	require.Equal(t, http.StatusNotFound, response.Code)
}

func TestServeMethodNotAllowed(t *testing.T) {
	app := newTestApp(t, map[string]string{"hello.txt": "hello"}, nil)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		response := doRequest(app, method, "/hello", nil)
		require.Equal(t, http.StatusMethodNotAllowed, response.Code, method)
		require.Equal(t, "GET, HEAD", response.Header().Get("Allow"))
	}
}

func TestServeHeadHasNoBody(t *testing.T) {
	app := newTestApp(t, map[string]string{"hello.txt": "hello world"}, nil)

	response := doRequest(app, http.MethodHead, "/hello", nil)
	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, "11", response.Header().Get("Content-Length"))
	require.Empty(t, response.Body.String())
}

func TestServeURITooLong(t *testing.T) {
	app := newTestApp(t, map[string]string{"hello.txt": "hello"}, func(cfg *config.Config) {
		cfg.Server.MaxURILength = 16
	})

	request := httptest.NewRequest(http.MethodGet, "/"+strings.Repeat("x", 64), nil)
	recorder := httptest.NewRecorder()
	app.httpHandler().ServeHTTP(recorder, request)
	require.Equal(t, http.StatusRequestURITooLong, recorder.Code)
}

func TestServeCustomHeaders(t *testing.T) {
	app := newTestApp(t, map[string]string{"hello.txt": "hello"}, func(cfg *config.Config) {
		cfg.Server.CustomHeaders = []string{"X-Powered-By: operator"}
	})

	response := doRequest(app, http.MethodGet, "/hello", nil)
	require.Equal(t, "operator", response.Header().Get("X-Powered-By"))
}

func TestExecutableSeesRequestDetails(t *testing.T) {
	app := newTestApp(t, map[string]string{
		"dump.json.sh": testhelpers.Script(`printf '%s' "$OPERATOR_RENDER_DATA"`),
	}, nil)

	response := doRequest(app, http.MethodGet, "/dump?key=value", map[string]string{"Accept": "application/json"})
	require.Equal(t, http.StatusOK, response.Code)

	body := response.Body.String()
	require.Contains(t, body, `"route":"/dump"`)
	require.Contains(t, body, `"key":"value"`)
	require.Contains(t, body, `"socket-address":"127.0.0.1:8080"`)
	require.Contains(t, body, `"operator-path":"/bin/operator"`)
	require.Contains(t, body, `"accept":"application/json"`)
}

func TestSplitMediaTypeExtension(t *testing.T) {
	trimmed, mediaType, ok := splitMediaTypeExtension("/page.html")
	require.True(t, ok)
	require.Equal(t, "/page", trimmed)
	require.Equal(t, "text/html", mediaType.Essence())

	_, _, ok = splitMediaTypeExtension("/page")
	require.False(t, ok)

	// An unrecognized extension stays part of the route.
	_, _, ok = splitMediaTypeExtension("/page.nonsense")
	require.False(t, ok)

	// A bare extension with no name is not an extension.
	_, _, ok = splitMediaTypeExtension("/.html")
	require.False(t, ok)
}

func TestTemplateSeesRenderContext(t *testing.T) {
	app := newTestApp(t, map[string]string{
		"page.html.tmpl": `<p>{{.Request.Route}} via {{.ServerInfo.SocketAddress}}</p>`,
	}, nil)

	response := doRequest(app, http.MethodGet, "/page", map[string]string{"Accept": "text/html"})
	require.Equal(t, http.StatusOK, response.Code)
	require.Equal(t, "<p>/page via 127.0.0.1:8080</p>", response.Body.String())
}
