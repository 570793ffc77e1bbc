package content

import "errors"

var (
	// ErrNotFound indicates no content source answers the route.
	ErrNotFound = errors.New("no content found for route")

	// ErrAmbiguous indicates two or more sources answer the route at equal
	// rank. This is a content-directory configuration error that the
	// operator must fix; the resolver never silently picks one.
	ErrAmbiguous = errors.New("multiple content sources answer the route at equal rank")

	// ErrForbidden indicates a permission failure or a symlink escaping the
	// content directory was encountered while enumerating sources.
	ErrForbidden = errors.New("content source is not accessible")

	// ErrUnsupportedMediaType indicates sources exist for the route but none
	// is compatible with the request's preference list.
	ErrUnsupportedMediaType = errors.New("no content source has an acceptable media type")
)
