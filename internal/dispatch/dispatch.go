// Package dispatch ties resolution and rendering together and owns the
// error-handler fallback: when a route cannot be served, the configured
// error-handler route gets one chance to present the failure.
package dispatch

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mkantor/operator/internal/content"
	"github.com/mkantor/operator/internal/mediatype"
	"github.com/mkantor/operator/internal/render"
	"github.com/mkantor/operator/metrics"
)

// DefaultMaxRecursionDepth bounds nested gets that cycle through routes
// without ever directly repeating one.
const DefaultMaxRecursionDepth = 32

// Options configures a Dispatcher. The zero value is usable: no error
// handler, default timeouts and depth limit, caches disabled.
type Options struct {
	// ErrorHandlerRoute is rendered when the requested route fails. Empty
	// disables the fallback.
	ErrorHandlerRoute content.Route
	// ExecutableTimeout bounds each child process; zero means
	// render.DefaultExecutableTimeout.
	ExecutableTimeout time.Duration
	// MaxRecursionDepth bounds nested gets; zero means
	// DefaultMaxRecursionDepth.
	MaxRecursionDepth int
	// CacheTTL enables the directory-listing and compiled-template caches
	// when greater than zero.
	CacheTTL time.Duration
}

// Request is one resolve-and-render job.
type Request struct {
	Route       content.Route
	Preferences []mediatype.Range
	Context     render.Context
}

// Outcome says which body Handle produced.
type Outcome int

const (
	// OutcomeSuccess is the requested route's own body.
	OutcomeSuccess Outcome = iota
	// OutcomeErrorHandled is the error handler's body presenting a failure.
	OutcomeErrorHandled
	// OutcomeFailed is no body at all.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeErrorHandled:
		return "error-handled"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Dispatcher is the resolve-and-render pipeline. It implements
// render.Getter so templates can recursively get other routes through the
// same pipeline that serves requests.
type Dispatcher struct {
	resolver          *content.Resolver
	static            render.StaticRenderer
	template          *render.TemplateRenderer
	executable        render.ExecutableRenderer
	errorHandlerRoute content.Route
	maxDepth          int
}

func NewDispatcher(contentDirectory string, options Options) (*Dispatcher, error) {
	resolver, err := content.NewResolver(contentDirectory, options.CacheTTL)
	if err != nil {
		return nil, err
	}

	maxDepth := options.MaxRecursionDepth
	if maxDepth == 0 {
		maxDepth = DefaultMaxRecursionDepth
	}

	dispatcher := &Dispatcher{
		resolver: resolver,
		executable: render.ExecutableRenderer{
			WorkingDirectory: resolver.Root(),
			Timeout:          options.ExecutableTimeout,
		},
		errorHandlerRoute: options.ErrorHandlerRoute,
		maxDepth:          maxDepth,
	}
	dispatcher.template = render.NewTemplateRenderer(dispatcher, options.CacheTTL)

	return dispatcher, nil
}

// ContentDirectory is the canonicalized root all routes resolve under.
func (d *Dispatcher) ContentDirectory() string {
	return d.resolver.Root()
}

// Resolve checks which source (if any) answers a route without rendering
// it, so misconfigured routes can be caught at startup.
func (d *Dispatcher) Resolve(route content.Route, preferences []mediatype.Range) (*content.Source, error) {
	return d.resolver.Resolve(route, preferences)
}

// TemplateRenderer exposes the pipeline-wired template renderer for front
// ends that render template text from outside the content directory.
func (d *Dispatcher) TemplateRenderer() *render.TemplateRenderer {
	return d.template
}

// Handle renders the requested route, falling back to the error handler on
// failure. The returned Failure is non-nil unless the outcome is
// OutcomeSuccess; for OutcomeErrorHandled it describes the original failure
// the handler's body presents.
func (d *Dispatcher) Handle(ctx context.Context, request Request) (*render.Result, Outcome, *Failure) {
	result, err := d.render(ctx, request.Route, request.Preferences, request.Context, render.Recursion{})
	if err == nil {
		return result, OutcomeSuccess, nil
	}

	failure := &Failure{Kind: ClassifyError(err), Err: err}
	log.WithError(err).WithFields(log.Fields{
		"route": request.Route,
		"kind":  failure.Kind,
	}).Warn("failed to render route")

	if d.errorHandlerRoute == "" {
		return nil, OutcomeFailed, failure
	}

	// The error handler gets exactly one attempt, with the original
	// request's context plus the error zone. Its own failures are not
	// handled again.
	errorContext := request.Context.WithError(string(failure.Kind), err.Error())
	handled, handlerErr := d.render(ctx, d.errorHandlerRoute, request.Preferences, errorContext, render.Recursion{})
	if handlerErr != nil {
		log.WithError(handlerErr).WithField("route", d.errorHandlerRoute).Error("error handler failed")
		return nil, OutcomeFailed, &Failure{
			Kind:     KindErrorHandlerFailed,
			Original: failure.Kind,
			Err:      fmt.Errorf("error handler %q failed (%v) while presenting: %w", d.errorHandlerRoute, handlerErr, err),
		}
	}

	return handled, OutcomeErrorHandled, failure
}

// RenderRoute implements render.Getter: recursive gets from templates
// re-enter the pipeline here. Failures propagate to the enclosing render
// instead of triggering the error handler.
func (d *Dispatcher) RenderRoute(ctx context.Context, route content.Route, preferences []mediatype.Range, parent render.Context, recursion render.Recursion) (*render.Result, error) {
	if recursion.Depth() > d.maxDepth {
		return nil, &render.RecursionError{
			Route:  route,
			Reason: fmt.Sprintf("recursion depth limit (%d) exceeded", d.maxDepth),
		}
	}
	return d.render(ctx, route, preferences, parent, recursion)
}

func (d *Dispatcher) render(ctx context.Context, route content.Route, preferences []mediatype.Range, renderContext render.Context, recursion render.Recursion) (*render.Result, error) {
	source, err := d.resolver.Resolve(route, preferences)
	if err != nil {
		metrics.RenderFailures.WithLabelValues(string(ClassifyError(err))).Inc()
		return nil, err
	}

	started := time.Now()
	result, err := d.rendererFor(source.Strategy).Render(ctx, source, renderContext, recursion)
	metrics.RenderDuration.WithLabelValues(source.Strategy.String()).Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.RenderFailures.WithLabelValues(string(ClassifyError(err))).Inc()
		return nil, err
	}

	metrics.Renders.WithLabelValues(source.Strategy.String()).Inc()
	return result, nil
}

func (d *Dispatcher) rendererFor(strategy content.Strategy) render.Renderer {
	switch strategy {
	case content.StrategyTemplate:
		return d.template
	case content.StrategyExecutable:
		return d.executable
	default:
		return d.static
	}
}
