package main

import (
	"net/http"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/mkantor/operator/internal/config"
	"github.com/mkantor/operator/internal/content"
	"github.com/mkantor/operator/internal/dispatch"
	"github.com/mkantor/operator/internal/mediatype"
	"github.com/mkantor/operator/internal/render"
	"github.com/mkantor/operator/metrics"
)

type theApp struct {
	config        *config.Config
	dispatcher    *dispatch.Dispatcher
	indexRoute    content.Route
	customHeaders http.Header
	operatorPath  string

	// socketAddress is the bound listener address, set before serving
	// starts and included in every render context.
	socketAddress string
}

func (a *theApp) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	route, preferences, err := a.routeAndPreferences(r)
	if err != nil {
		metrics.RequestsServed.WithLabelValues(dispatch.OutcomeFailed.String()).Inc()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	renderContext := render.Build(string(route), requestHeaders(r), queryParameters(r), render.ServerInfo{
		SocketAddress: a.socketAddress,
		OperatorPath:  a.operatorPath,
	})

	result, outcome, failure := a.dispatcher.Handle(r.Context(), dispatch.Request{
		Route:       route,
		Preferences: preferences,
		Context:     renderContext,
	})
	metrics.RequestsServed.WithLabelValues(outcome.String()).Inc()

	config.AddCustomHeaders(w, a.customHeaders)

	switch outcome {
	case dispatch.OutcomeSuccess:
		a.writeResult(w, r, http.StatusOK, result)
	case dispatch.OutcomeErrorHandled:
		// The handler's body presents the original failure, which still
		// determines the status code.
		a.writeResult(w, r, statusFor(failure.Kind), result)
	default:
		kind := failure.Kind
		body := string(kind)
		if kind == dispatch.KindErrorHandlerFailed {
			// Status and the leading line come from the original failure;
			// the handler's own failure is named so it doesn't go unseen.
			kind = failure.Original
			body = string(failure.Original) + " (additionally, the error handler failed)"
		}
		http.Error(w, body, statusFor(kind))
	}
}

func (a *theApp) writeResult(w http.ResponseWriter, r *http.Request, status int, result *render.Result) {
	w.Header().Set("Content-Type", result.MediaType.String())
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Body)))
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		w.Write(result.Body)
	}
}

// routeAndPreferences derives the route and the media-range preference list
// from the request. A recognized media-type extension on the URL ("/page.html")
// names the resource "/page" and overrides the Accept header entirely; an
// absent Accept header expresses no preference at all.
func (a *theApp) routeAndPreferences(r *http.Request) (content.Route, []mediatype.Range, error) {
	requestPath := r.URL.Path
	if requestPath == "" || requestPath == "/" {
		if a.indexRoute != "" {
			preferences, err := acceptPreferences(r)
			return a.indexRoute, preferences, err
		}
		requestPath = "/"
	}

	if trimmed, mediaType, ok := splitMediaTypeExtension(requestPath); ok {
		route, err := content.ParseRoute(trimmed)
		if err != nil {
			return "", nil, err
		}
		return route, []mediatype.Range{{
			Type:    mediaType.Type,
			Subtype: mediaType.Subtype,
			Quality: 1,
		}}, nil
	}

	route, err := content.ParseRoute(requestPath)
	if err != nil {
		return "", nil, err
	}
	preferences, err := acceptPreferences(r)
	return route, preferences, err
}

func acceptPreferences(r *http.Request) ([]mediatype.Range, error) {
	accept := r.Header.Get("Accept")
	if strings.TrimSpace(accept) == "" {
		return nil, nil
	}
	return mediatype.ParseAccept(accept)
}

// splitMediaTypeExtension splits "/page.html" into "/page" and text/html.
// Unrecognized extensions are part of the route itself.
func splitMediaTypeExtension(requestPath string) (string, mediatype.MediaType, bool) {
	ext := path.Ext(requestPath)
	if ext == "" {
		return "", mediatype.MediaType{}, false
	}

	mediaType, ok := mediatype.FromExtension(ext)
	if !ok {
		return "", mediatype.MediaType{}, false
	}

	trimmed := strings.TrimSuffix(requestPath, ext)
	if trimmed == "" || strings.HasSuffix(trimmed, "/") {
		return "", mediatype.MediaType{}, false
	}
	return trimmed, mediaType, true
}

// requestHeaders flattens the request's headers into the render context's
// shape: Host first (it lives on the Request, not the map), the rest sorted
// by name so serialization is deterministic.
func requestHeaders(r *http.Request) render.Headers {
	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	headers := make(render.Headers, 0, len(names)+1)
	if r.Host != "" {
		headers = append(headers, render.Header{Name: "Host", Value: r.Host})
	}
	for _, name := range names {
		headers = append(headers, render.Header{Name: name, Value: strings.Join(r.Header[name], ", ")})
	}
	return headers
}

func queryParameters(r *http.Request) map[string]string {
	values := r.URL.Query()
	if len(values) == 0 {
		return nil
	}
	parameters := make(map[string]string, len(values))
	for key, value := range values {
		parameters[key] = value[0]
	}
	return parameters
}

func statusFor(kind dispatch.Kind) int {
	switch kind {
	case dispatch.KindNotFound:
		return http.StatusNotFound
	case dispatch.KindInvalidRoute:
		return http.StatusBadRequest
	case dispatch.KindForbidden:
		return http.StatusForbidden
	case dispatch.KindUnsupportedMediaType:
		return http.StatusNotAcceptable
	default:
		return http.StatusInternalServerError
	}
}
