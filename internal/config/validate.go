package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/mkantor/operator/internal/content"
	"github.com/mkantor/operator/internal/mediatype"
)

func validateShared(config *Config) *multierror.Error {
	var result *multierror.Error

	if config.Content.Directory == "" {
		result = multierror.Append(result, errors.New("content-directory must be defined"))
	}

	for _, route := range []struct {
		flag  string
		value string
	}{
		{"index-route", config.Content.IndexRoute},
		{"error-handler-route", config.Content.ErrorHandlerRoute},
	} {
		if route.value == "" {
			continue
		}
		if _, err := content.ParseRoute(route.value); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", route.flag, err))
		}
	}

	if config.Content.ExecutableTimeout <= 0 {
		result = multierror.Append(result, errors.New("executable-timeout must be positive"))
	}
	if config.Content.MaxRecursionDepth < 0 {
		result = multierror.Append(result, errors.New("max-recursion-depth must not be negative"))
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		result = multierror.Append(result, fmt.Errorf("log-format must be 'text' or 'json', got %q", config.Log.Format))
	}

	return result
}

func validateServe(config *Config) error {
	result := validateShared(config)

	if config.Server.ListenHTTP == "" {
		result = multierror.Append(result, errors.New("listen-http must be defined"))
	}
	if config.Server.MaxURILength < 0 {
		result = multierror.Append(result, errors.New("max-uri-length must not be negative"))
	}
	if _, err := ParseHeaderString(config.Server.CustomHeaders); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}

func validateGet(config *Config) error {
	result := validateShared(config)

	if config.Get.Route == "" {
		result = multierror.Append(result, errors.New("route must be defined"))
	} else if _, err := content.ParseRoute(config.Get.Route); err != nil {
		result = multierror.Append(result, fmt.Errorf("route: %w", err))
	}

	if config.Get.Accept != "" {
		if _, err := mediatype.ParseAccept(config.Get.Accept); err != nil {
			result = multierror.Append(result, fmt.Errorf("accept: %w", err))
		}
	}

	return result.ErrorOrNil()
}

func validateRender(config *Config) error {
	result := validateShared(config)

	if _, err := mediatype.Parse(config.Render.MediaType); err != nil {
		result = multierror.Append(result, fmt.Errorf("media-type: %w", err))
	}

	return result.ErrorOrNil()
}
