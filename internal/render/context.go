// Package render turns resolved content sources into response bodies. The
// three strategies (static, template, executable) share one small Renderer
// surface so the dispatcher never branches on source kind beyond picking an
// implementation.
package render

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EnvironmentVariable carries the serialized render context to executables.
const EnvironmentVariable = "OPERATOR_RENDER_DATA"

// Header is a single name/value pair. Names compare case-insensitively but
// serialize lower-cased.
type Header struct {
	Name  string
	Value string
}

// Headers preserves the order headers arrived in; serialization is therefore
// deterministic for a given request.
type Headers []Header

// Get returns the first value for a name, matching case-insensitively.
func (h Headers) Get(name string) (string, bool) {
	for _, header := range h {
		if strings.EqualFold(header.Name, name) {
			return header.Value, true
		}
	}
	return "", false
}

// MarshalJSON emits an object with lower-cased names in slice order. A nil
// or empty Headers is an empty object, never null: the context's field set
// must not vary with the transport.
func (h Headers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, header := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(strings.ToLower(header.Name))
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(header.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RequestInfo is the request zone of the render context.
type RequestInfo struct {
	// Route is empty when the render was not triggered by a request for a
	// route (the render-from-stdin front end); it serializes as null then.
	Route           string
	Headers         Headers
	QueryParameters map[string]string
}

func (r RequestInfo) MarshalJSON() ([]byte, error) {
	query := r.QueryParameters
	if query == nil {
		query = map[string]string{}
	}
	return json.Marshal(struct {
		Route           *string           `json:"route"`
		Headers         Headers           `json:"headers"`
		QueryParameters map[string]string `json:"query-parameters"`
	}{
		Route:           nullable(r.Route),
		Headers:         r.Headers,
		QueryParameters: query,
	})
}

// ServerInfo is the server zone of the render context.
type ServerInfo struct {
	// SocketAddress is the address the server is bound to; empty (null on
	// the wire) when the invocation is not over a network.
	SocketAddress string
	// OperatorPath is the filesystem path of the running binary, so
	// rendered content can re-invoke it.
	OperatorPath string
}

func (s ServerInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		SocketAddress *string `json:"socket-address"`
		OperatorPath  string  `json:"operator-path"`
	}{
		SocketAddress: nullable(s.SocketAddress),
		OperatorPath:  s.OperatorPath,
	})
}

// ErrorInfo is present only when rendering the error-handler route.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Context is the data every render sees: request facts, server facts, and
// (on error-handler dispatch only) the failure that got us here. Contexts
// are immutable per invocation; WithError returns a copy.
type Context struct {
	Request    RequestInfo `json:"request"`
	ServerInfo ServerInfo  `json:"server-info"`
	Error      *ErrorInfo  `json:"error,omitempty"`
}

// Build assembles a render context. It is a pure function of its inputs: no
// clocks, no randomness, no globals, so identical inputs serialize
// identically whether the invocation came over the network or not.
func Build(route string, headers Headers, query map[string]string, serverInfo ServerInfo) Context {
	return Context{
		Request: RequestInfo{
			Route:           route,
			Headers:         headers,
			QueryParameters: query,
		},
		ServerInfo: serverInfo,
	}
}

// WithError returns a copy of the context carrying the error zone.
func (c Context) WithError(kind, message string) Context {
	c.Error = &ErrorInfo{Kind: kind, Message: message}
	return c
}

// Serialize renders the context as single-line JSON, the form passed to
// executables and exposed for debugging. Ordering is deterministic: struct
// fields serialize in declaration order, header pairs in request order, and
// query parameters sorted by key.
func (c Context) Serialize() (string, error) {
	serialized, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(serialized), nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
