package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mkantor/operator/internal/config"
	"github.com/mkantor/operator/internal/content"
	"github.com/mkantor/operator/internal/dispatch"
	"github.com/mkantor/operator/internal/mediatype"
	"github.com/mkantor/operator/internal/render"
)

func newDispatcher(cfg *config.Config, withErrorHandler bool) (*dispatch.Dispatcher, error) {
	options := dispatch.Options{
		ExecutableTimeout: cfg.Content.ExecutableTimeout,
		MaxRecursionDepth: cfg.Content.MaxRecursionDepth,
		CacheTTL:          cfg.Content.CacheTTL,
	}
	if withErrorHandler && cfg.Content.ErrorHandlerRoute != "" {
		route, err := content.ParseRoute(cfg.Content.ErrorHandlerRoute)
		if err != nil {
			return nil, fmt.Errorf("error-handler-route: %w", err)
		}
		options.ErrorHandlerRoute = route
	}

	return dispatch.NewDispatcher(cfg.Content.Directory, options)
}

// operatorPath is the binary's own location, handed to rendered content so
// it can re-invoke operator.
func operatorPath() string {
	path, err := os.Executable()
	if err != nil {
		return os.Args[0]
	}
	return path
}

// getCommand renders one route to standard output. There is no error
// handler here: failures go to stderr and a nonzero exit, like any other
// command line tool.
func getCommand(args []string) error {
	cfg, err := config.LoadGet(args)
	if err != nil {
		return err
	}
	configureLogging(cfg.Log.Format, cfg.Log.Verbose)

	dispatcher, err := newDispatcher(cfg, false)
	if err != nil {
		return err
	}

	route, err := content.ParseRoute(cfg.Get.Route)
	if err != nil {
		return err
	}

	var preferences []mediatype.Range
	if cfg.Get.Accept != "" {
		if preferences, err = mediatype.ParseAccept(cfg.Get.Accept); err != nil {
			return err
		}
	}

	renderContext := render.Build(string(route), nil, nil, render.ServerInfo{
		OperatorPath: operatorPath(),
	})

	result, _, failure := dispatcher.Handle(context.Background(), dispatch.Request{
		Route:       route,
		Preferences: preferences,
		Context:     renderContext,
	})
	if failure != nil {
		return failure
	}

	_, err = os.Stdout.Write(result.Body)
	return err
}

// renderCommand reads template text from standard input and renders it
// against the content directory, so recursive gets resolve as usual.
func renderCommand(args []string) error {
	cfg, err := config.LoadRender(args)
	if err != nil {
		return err
	}
	configureLogging(cfg.Log.Format, cfg.Log.Verbose)

	dispatcher, err := newDispatcher(cfg, false)
	if err != nil {
		return err
	}

	mediaType, err := mediatype.Parse(cfg.Render.MediaType)
	if err != nil {
		return err
	}

	text, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("reading standard input: %w", err)
	}

	renderContext := render.Build("", nil, nil, render.ServerInfo{
		OperatorPath: operatorPath(),
	})

	result, err := dispatcher.TemplateRenderer().RenderSource(context.Background(), string(text), mediaType, renderContext)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(result.Body)
	return err
}
