// Package config parses command line flags (or OPERATOR_* environment
// variables) for the operator commands and validates the result.
package config

import (
	"time"

	"github.com/namsral/flag"

	"github.com/mkantor/operator/internal/render"
)

// EnvPrefix lets every flag be supplied as an environment variable
// (OPERATOR_CONTENT_DIRECTORY, OPERATOR_LISTEN_HTTP, ...).
const EnvPrefix = "OPERATOR"

// DefaultMaxRecursionDepth bounds recursive gets when -max-recursion-depth
// is not given.
const DefaultMaxRecursionDepth = 32

// Config stores all the options relevant to one operator invocation. Only
// the section for the command being run is meaningful beyond Content/Log.
type Config struct {
	Content Content
	Server  Server
	Get     Get
	Render  Render
	Log     Log
}

// Content groups settings of the resolve-and-render engine, shared by every
// command.
type Content struct {
	Directory         string
	IndexRoute        string
	ErrorHandlerRoute string
	ExecutableTimeout time.Duration
	MaxRecursionDepth int
	CacheTTL          time.Duration
}

// Server groups settings of the serve command's HTTP listener.
type Server struct {
	ListenHTTP                 string
	MetricsAddress             string
	DisableCrossOriginRequests bool
	CustomHeaders              []string
	MaxURILength               int
	ReadTimeout                time.Duration
	ReadHeaderTimeout          time.Duration
	WriteTimeout               time.Duration
	ShutdownTimeout            time.Duration
}

// Get groups settings of the one-shot get command.
type Get struct {
	Route  string
	Accept string
}

// Render groups settings of the render-from-stdin command.
type Render struct {
	MediaType string
}

// Log groups logging settings.
type Log struct {
	Format  string
	Verbose bool
}

// flagSet is one command's flags plus the config they parse into.
type flagSet struct {
	*flag.FlagSet
	config  *Config
	headers MultiStringFlag
}

func newFlagSet(command string) *flagSet {
	s := &flagSet{
		FlagSet: flag.NewFlagSetWithEnvPrefix("operator "+command, EnvPrefix, flag.ContinueOnError),
		config:  &Config{},
	}

	content := &s.config.Content
	s.StringVar(&content.Directory, "content-directory", "", "The directory whose files answer routes")
	s.StringVar(&content.IndexRoute, "index-route", "", "The route served for the bare '/' path")
	s.StringVar(&content.ErrorHandlerRoute, "error-handler-route", "", "The route rendered when another route fails; its render context carries the failure")
	s.DurationVar(&content.ExecutableTimeout, "executable-timeout", render.DefaultExecutableTimeout, "How long an executable may run before being killed")
	s.IntVar(&content.MaxRecursionDepth, "max-recursion-depth", DefaultMaxRecursionDepth, "How deeply templates may recursively get other routes")
	s.DurationVar(&content.CacheTTL, "cache-ttl", 0, "How long directory listings and compiled templates are cached, 0 disables caching")

	logSettings := &s.config.Log
	s.StringVar(&logSettings.Format, "log-format", "text", "The log output format: 'text' or 'json'")
	s.BoolVar(&logSettings.Verbose, "log-verbose", false, "Verbose logging")

	return s
}

// LoadServe parses and validates flags for the serve command.
func LoadServe(args []string) (*Config, error) {
	s := newFlagSet("serve")

	server := &s.config.Server
	s.StringVar(&server.ListenHTTP, "listen-http", "127.0.0.1:8080", "The address to listen on for HTTP requests")
	s.StringVar(&server.MetricsAddress, "metrics-address", "", "The address to listen on for metrics requests")
	s.BoolVar(&server.DisableCrossOriginRequests, "disable-cross-origin-requests", false, "Disable cross-origin requests")
	// Header values may legitimately contain commas; use an unlikely
	// separator for the multi-valued flag.
	s.headers.separator = ";;"
	s.Var(&s.headers, "header", "Extra response header ('Name: Value'), can be given multiple times")
	s.IntVar(&server.MaxURILength, "max-uri-length", 1024, "Limit the length of URI, 0 for unlimited")
	s.DurationVar(&server.ReadTimeout, "server-read-timeout", 5*time.Second, "Maximum duration for reading the entire request")
	s.DurationVar(&server.ReadHeaderTimeout, "server-read-header-timeout", time.Second, "Amount of time allowed to read request headers")
	s.DurationVar(&server.WriteTimeout, "server-write-timeout", 0, "Maximum duration before timing out response writes, 0 for no timeout")
	s.DurationVar(&server.ShutdownTimeout, "server-shutdown-timeout", 30*time.Second, "Graceful shutdown timeout")

	return s.load(args, validateServe)
}

// LoadGet parses and validates flags for the get command.
func LoadGet(args []string) (*Config, error) {
	s := newFlagSet("get")

	get := &s.config.Get
	s.StringVar(&get.Route, "route", "", "The route to render")
	s.StringVar(&get.Accept, "accept", "", "Media ranges to negotiate with, like an Accept header; empty accepts anything")

	return s.load(args, validateGet)
}

// LoadRender parses and validates flags for the render command.
func LoadRender(args []string) (*Config, error) {
	s := newFlagSet("render")

	s.StringVar(&s.config.Render.MediaType, "media-type", "text/html", "The media type the template renders as")

	return s.load(args, validateRender)
}

func (s *flagSet) load(args []string, validate func(*Config) error) (*Config, error) {
	if err := s.Parse(args); err != nil {
		return nil, err
	}
	s.config.Server.CustomHeaders = s.headers.Split()

	if err := validate(s.config); err != nil {
		return nil, err
	}
	return s.config, nil
}
