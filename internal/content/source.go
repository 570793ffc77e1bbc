package content

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/mkantor/operator/internal/mediatype"
)

// Strategy is how a content source's bytes become a response body.
type Strategy int

const (
	// StrategyStatic copies the file's bytes verbatim.
	StrategyStatic Strategy = iota
	// StrategyTemplate renders the file as a template.
	StrategyTemplate
	// StrategyExecutable runs the file and captures its standard output.
	StrategyExecutable
)

func (s Strategy) String() string {
	switch s {
	case StrategyStatic:
		return "static"
	case StrategyTemplate:
		return "template"
	case StrategyExecutable:
		return "executable"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// TemplateExtension marks template sources ("page.html.tmpl").
const TemplateExtension = "tmpl"

// Source is a file under the content directory that can answer a route.
type Source struct {
	// Path is the absolute filesystem location.
	Path string
	// Route is the logical resource the source answers.
	Route Route
	// MediaType is declared by the filename's media-type extension.
	MediaType mediatype.MediaType
	// Strategy is declared by the filename's strategy suffix and mode bits.
	Strategy Strategy
	// IsIndex is set for directory-index sources, which rank below
	// exact-name matches.
	IsIndex bool
}

// sourceNameError reports a filename that does not follow the content
// directory's naming grammar. Such files are skipped (with a warning) rather
// than failing the whole resolution.
type sourceNameError struct {
	name   string
	reason string
}

func (e *sourceNameError) Error() string {
	return fmt.Sprintf("unsupported content file name %q: %s", e.name, e.reason)
}

// parseSourceName decodes the naming grammar:
//
//	name.ext           static file (must not be executable)
//	name.ext.tmpl      template rendered as ext's media type
//	name.ext.anything  executable emitting ext's media type (x bit required)
//
// The returned logical name has all extensions stripped.
func parseSourceName(name string, mode fs.FileMode) (logical string, mediaType mediatype.MediaType, strategy Strategy, err error) {
	executable := mode&0o111 != 0

	parts := strings.Split(name, ".")
	switch len(parts) {
	case 1:
		return "", mediatype.MediaType{}, 0, &sourceNameError{name: name, reason: "content file names must have an extension"}

	case 2:
		if executable {
			return "", mediatype.MediaType{}, 0, &sourceNameError{
				name:   name,
				reason: "executables need two extensions: the first declares the output media type, the second is arbitrary",
			}
		}
		strategy = StrategyStatic

	case 3:
		if parts[2] == TemplateExtension {
			if executable {
				return "", mediatype.MediaType{}, 0, &sourceNameError{
					name:   name,
					reason: "a ." + TemplateExtension + " file must not be executable; it is one or the other",
				}
			}
			strategy = StrategyTemplate
		} else {
			if !executable {
				return "", mediatype.MediaType{}, 0, &sourceNameError{
					name:   name,
					reason: "two extensions mean a template (." + TemplateExtension + ") or an executable (x bit set)",
				}
			}
			strategy = StrategyExecutable
		}

	default:
		return "", mediatype.MediaType{}, 0, &sourceNameError{name: name, reason: "too many extensions"}
	}

	mediaType, ok := mediatype.FromExtension(parts[1])
	if !ok {
		return "", mediatype.MediaType{}, 0, &sourceNameError{
			name:   name,
			reason: fmt.Sprintf("extension %q does not map to any known media type", parts[1]),
		}
	}

	return parts[0], mediaType, strategy, nil
}
