package mediatype

import (
	"mime"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Extensions that the stdlib table misses (or that vary across the host's
// /etc/mime.types) but that content directories commonly use. Registered so
// resolution behaves identically on every platform.
var extraExtensionTypes = map[string]string{
	".avif": "image/avif",
	".ico":  "image/vnd.microsoft.icon",
	".md":   "text/markdown",
	".txt":  "text/plain",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
}

func init() {
	for ext, mimeType := range extraExtensionTypes {
		if err := mime.AddExtensionType(ext, mimeType); err != nil {
			log.WithError(err).Errorf("failed to add extension %q with MIME type %q", ext, mimeType)
		}
	}
}

// FromExtension maps a filename extension (with or without the leading dot)
// to its media type. Charset and other parameters implied by the extension
// table are dropped: naming conventions declare a type, not an encoding.
func FromExtension(ext string) (MediaType, bool) {
	if ext == "" {
		return MediaType{}, false
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	value := mime.TypeByExtension(strings.ToLower(ext))
	if value == "" {
		return MediaType{}, false
	}

	mediaType, err := Parse(value)
	if err != nil {
		return MediaType{}, false
	}
	mediaType.Params = nil
	return mediaType, true
}

// FromPath maps the final extension of a path to its media type.
func FromPath(path string) (MediaType, bool) {
	return FromExtension(filepath.Ext(path))
}
