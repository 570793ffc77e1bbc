package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/handlers"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"

	"github.com/mkantor/operator/internal/config"
	"github.com/mkantor/operator/internal/content"
	"github.com/mkantor/operator/internal/urilimiter"
)

func serveCommand(args []string) error {
	cfg, err := config.LoadServe(args)
	if err != nil {
		return err
	}
	configureLogging(cfg.Log.Format, cfg.Log.Verbose)

	dispatcher, err := newDispatcher(cfg, true)
	if err != nil {
		return err
	}

	// Validated during config loading.
	customHeaders, err := config.ParseHeaderString(cfg.Server.CustomHeaders)
	if err != nil {
		return err
	}

	app := &theApp{
		config:        cfg,
		dispatcher:    dispatcher,
		customHeaders: customHeaders,
		operatorPath:  operatorPath(),
	}

	if cfg.Content.IndexRoute != "" {
		if app.indexRoute, err = content.ParseRoute(cfg.Content.IndexRoute); err != nil {
			return err
		}
	}

	// A misconfigured index or error-handler route should fail at startup,
	// not on the first unlucky request.
	for _, configured := range []struct {
		flag  string
		value string
	}{
		{"index-route", cfg.Content.IndexRoute},
		{"error-handler-route", cfg.Content.ErrorHandlerRoute},
	} {
		if configured.value == "" {
			continue
		}
		route, err := content.ParseRoute(configured.value)
		if err != nil {
			return err
		}
		if _, err := dispatcher.Resolve(route, nil); err != nil {
			return err
		}
	}

	return app.run()
}

// httpHandler wraps the app with its middleware: URI length limiting, CORS
// (unless disabled), and access logging, outermost last.
func (a *theApp) httpHandler() http.Handler {
	var handler http.Handler = a
	handler = urilimiter.NewMiddleware(handler, a.config.Server.MaxURILength)
	if !a.config.Server.DisableCrossOriginRequests {
		handler = cors.New(cors.Options{
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
		}).Handler(handler)
	}
	return handlers.CombinedLoggingHandler(log.StandardLogger().Writer(), handler)
}

func (a *theApp) run() error {
	listener, err := net.Listen("tcp", a.config.Server.ListenHTTP)
	if err != nil {
		return err
	}
	a.socketAddress = listener.Addr().String()

	server := &http.Server{
		Handler:           a.httpHandler(),
		ReadTimeout:       a.config.Server.ReadTimeout,
		ReadHeaderTimeout: a.config.Server.ReadHeaderTimeout,
		WriteTimeout:      a.config.Server.WriteTimeout,
	}

	errs := make(chan error, 2)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	metricsServer := startMetricsListener(a.config.Server.MetricsAddress, errs)

	log.WithFields(log.Fields{
		"listener":          a.socketAddress,
		"content-directory": a.dispatcher.ContentDirectory(),
	}).Info("operator is listening")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		return err
	case sig := <-shutdown:
		log.WithField("signal", sig.String()).Info("shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()

		if metricsServer != nil {
			metricsServer.Close()
		}
		return server.Shutdown(ctx)
	}
}

func startMetricsListener(addr string, errs chan<- error) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	log.WithField("listener", addr).Debug("Set up metrics listener")
	return server
}
