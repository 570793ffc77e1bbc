package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"text/template"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mkantor/operator/internal/content"
	"github.com/mkantor/operator/internal/mediatype"
)

// TemplateRenderer renders template sources with the render context as the
// binding root ({{.Request.Route}}, {{.ServerInfo.SocketAddress}}, ...).
// Its one capability beyond substitution is the get helper, which re-enters
// the whole pipeline for another route and inlines the rendered body:
//
//	{{get "/fragments/navigation"}}
//	{{get "/report" "application/json"}}
//
// Without an explicit media range the helper requests the enclosing
// template's own media type, so nested content composes to a consistent
// whole.
type TemplateRenderer struct {
	getter   Getter
	compiled *gocache.Cache
}

// NewTemplateRenderer wires the renderer to the pipeline it recurses into.
// A cacheTTL greater than zero caches compiled templates, invalidated by
// file modification time.
func NewTemplateRenderer(getter Getter, cacheTTL time.Duration) *TemplateRenderer {
	renderer := &TemplateRenderer{getter: getter}
	if cacheTTL > 0 {
		renderer.compiled = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return renderer
}

func (r *TemplateRenderer) Render(ctx context.Context, source *content.Source, renderContext Context, recursion Recursion) (*Result, error) {
	compiled, err := r.compile(source.Path)
	if err != nil {
		return nil, err
	}

	// The cached template is shared; execution binds per-render state by
	// cloning and swapping in live helper implementations.
	instance, err := compiled.Clone()
	if err != nil {
		return nil, &TemplateError{Path: source.Path, Err: err}
	}
	instance.Funcs(r.helpers(ctx, source, renderContext, recursion))

	var body bytes.Buffer
	if err := instance.Execute(&body, renderContext); err != nil {
		return nil, &TemplateError{Path: source.Path, Err: err}
	}

	return &Result{Body: body.Bytes(), MediaType: source.MediaType}, nil
}

// RenderSource renders template text that did not come from the content
// directory (the render-from-stdin front end). Recursive gets work the same
// as for registered templates.
func (r *TemplateRenderer) RenderSource(ctx context.Context, text string, mediaType mediatype.MediaType, renderContext Context) (*Result, error) {
	const name = "(stdin)"

	compiled, err := parseTemplate(name, text)
	if err != nil {
		return nil, &TemplateError{Path: name, Err: err}
	}

	source := &content.Source{Path: name, MediaType: mediaType, Strategy: content.StrategyTemplate}
	compiled.Funcs(r.helpers(ctx, source, renderContext, Recursion{}))

	var body bytes.Buffer
	if err := compiled.Execute(&body, renderContext); err != nil {
		return nil, &TemplateError{Path: name, Err: err}
	}

	return &Result{Body: body.Bytes(), MediaType: mediaType}, nil
}

func (r *TemplateRenderer) helpers(ctx context.Context, source *content.Source, renderContext Context, recursion Recursion) template.FuncMap {
	return template.FuncMap{
		"get": func(rawRoute string, mediaRange ...string) (string, error) {
			route, err := content.ParseRoute(rawRoute)
			if err != nil {
				return "", fmt.Errorf("the get helper needs a valid route: %w", err)
			}

			if route == source.Route || recursion.Contains(route) {
				return "", &RecursionError{Route: route, Reason: "the route is already being rendered"}
			}

			preferences, err := getPreferences(source, mediaRange)
			if err != nil {
				return "", err
			}

			result, err := r.getter.RenderRoute(ctx, route, preferences, renderContext, recursion.Enter(source.Route))
			if err != nil {
				return "", err
			}
			return string(result.Body), nil
		},
	}
}

// getPreferences derives the preference list for a recursive get: an
// explicit media range if the template gave one, otherwise exactly the
// enclosing template's own media type.
func getPreferences(source *content.Source, mediaRange []string) ([]mediatype.Range, error) {
	switch len(mediaRange) {
	case 0:
		return []mediatype.Range{{
			Type:    source.MediaType.Type,
			Subtype: source.MediaType.Subtype,
			Quality: 1,
		}}, nil
	case 1:
		parsed, err := mediatype.ParseRange(mediaRange[0])
		if err != nil {
			return nil, fmt.Errorf("the get helper's media range is invalid: %w", err)
		}
		return []mediatype.Range{parsed}, nil
	default:
		return nil, fmt.Errorf("the get helper takes a route and at most one media range, got %d extra arguments", len(mediaRange))
	}
}

// compile loads and parses a template, consulting the cache when enabled.
// Cache entries are keyed by path plus modification time so edits take
// effect immediately.
func (r *TemplateRenderer) compile(path string) (*template.Template, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &TemplateError{Path: path, Err: err}
	}
	key := fmt.Sprintf("%s|%d", path, info.ModTime().UnixNano())

	if r.compiled != nil {
		if cached, found := r.compiled.Get(key); found {
			return cached.(*template.Template), nil
		}
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateError{Path: path, Err: err}
	}

	compiled, err := parseTemplate(path, string(text))
	if err != nil {
		return nil, &TemplateError{Path: path, Err: err}
	}

	if r.compiled != nil {
		r.compiled.Set(key, compiled, gocache.DefaultExpiration)
	}
	return compiled, nil
}

// parseTemplate registers the helper names with placeholder implementations
// so parsing succeeds; real implementations are bound per execution.
func parseTemplate(name, text string) (*template.Template, error) {
	placeholder := template.FuncMap{
		"get": func(string, ...string) (string, error) {
			return "", fmt.Errorf("the get helper is not available in this context")
		},
	}
	return template.New(name).Option("missingkey=error").Funcs(placeholder).Parse(text)
}
