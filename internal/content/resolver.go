package content

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/mkantor/operator/internal/mediatype"
)

// Resolver maps routes to content sources under a single content directory.
// Sources are discovered from the filesystem on every call; the only state a
// Resolver holds is an optional TTL cache of directory listings, so a single
// Resolver is safe for concurrent use across requests.
type Resolver struct {
	root     string
	listings *gocache.Cache
}

// NewResolver validates the content directory and returns a resolver rooted
// at it. A cacheTTL of zero disables the directory-listing cache.
func NewResolver(contentDirectory string, cacheTTL time.Duration) (*Resolver, error) {
	abs, err := filepath.Abs(contentDirectory)
	if err != nil {
		return nil, fmt.Errorf("content directory %q: %w", contentDirectory, err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("content directory %q: %w", contentDirectory, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("content directory %q: %w", contentDirectory, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content directory %q is not a directory", contentDirectory)
	}

	resolver := &Resolver{root: root}
	if cacheTTL > 0 {
		resolver.listings = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return resolver, nil
}

// Root is the canonicalized absolute path of the content directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve finds the single content source answering the route. A nil
// preference list means the request expressed no preference: the most
// specific, earliest-declared source wins. With preferences, candidates are
// ranked by the media-type model and an unresolvable tie is ErrAmbiguous.
func (r *Resolver) Resolve(route Route, preferences []mediatype.Range) (*Source, error) {
	if route.hidden() {
		return nil, fmt.Errorf("route %q: %w", route, ErrNotFound)
	}

	exact, err := r.exactCandidates(route)
	if err != nil {
		return nil, err
	}
	index, err := r.indexCandidates(route)
	if err != nil {
		return nil, err
	}

	candidates := append(exact, index...)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("route %q: %w", route, ErrNotFound)
	}

	source, err := selectSource(candidates, preferences)
	if err != nil {
		return nil, fmt.Errorf("route %q: %w", route, err)
	}

	if err := r.checkContained(source); err != nil {
		return nil, err
	}
	return source, nil
}

// exactCandidates are sources in the route's parent directory whose logical
// name matches the route's final segment.
func (r *Resolver) exactCandidates(route Route) ([]*Source, error) {
	base := route.Base()
	if base == "" {
		return nil, nil
	}
	return r.candidatesIn(route.Parent(), base, route, false)
}

// indexCandidates are sources named "index" inside a directory that matches
// the route itself.
func (r *Resolver) indexCandidates(route Route) ([]*Source, error) {
	dir := r.fsPath(route)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, nil
	}
	return r.candidatesIn(route, "index", route, true)
}

func (r *Resolver) candidatesIn(dir Route, logicalName string, route Route, isIndex bool) ([]*Source, error) {
	entries, err := r.listDir(r.fsPath(dir))
	if err != nil {
		return nil, err
	}

	var candidates []*Source
	for _, entry := range entries {
		if entry.isDir || strings.HasPrefix(entry.name, ".") {
			continue
		}
		if !strings.HasPrefix(entry.name, logicalName+".") {
			continue
		}

		logical, mediaType, strategy, err := parseSourceName(entry.name, entry.mode)
		if err != nil {
			log.WithError(err).Warnf("skipping content file %q", filepath.Join(r.fsPath(dir), entry.name))
			continue
		}
		if logical != logicalName {
			continue
		}

		candidates = append(candidates, &Source{
			Path:      filepath.Join(r.fsPath(dir), entry.name),
			Route:     route,
			MediaType: mediaType,
			Strategy:  strategy,
			IsIndex:   isIndex,
		})
	}
	return candidates, nil
}

// selectSource applies negotiation and specificity. Candidates arrive in
// declaration order with exact matches before index fallbacks.
func selectSource(candidates []*Source, preferences []mediatype.Range) (*Source, error) {
	if preferences == nil {
		// No preference expressed: specificity order, then declaration
		// order. Two sources representable at the same rank with the same
		// media type can never be told apart, so that stays an error.
		chosen := candidates[0]
		for _, candidate := range candidates[1:] {
			if candidate.IsIndex && !chosen.IsIndex {
				continue
			}
			if candidate.IsIndex == chosen.IsIndex && candidate.MediaType.Essence() == chosen.MediaType.Essence() {
				return nil, fmt.Errorf("%w: %q and %q both declare %s",
					ErrAmbiguous, chosen.Path, candidate.Path, chosen.MediaType.Essence())
			}
		}
		return chosen, nil
	}

	types := make([]mediatype.MediaType, len(candidates))
	for i, candidate := range candidates {
		types[i] = candidate.MediaType
	}

	winners, err := mediatype.Negotiate(types, preferences)
	if err != nil {
		if errors.Is(err, mediatype.ErrNotAcceptable) {
			return nil, ErrUnsupportedMediaType
		}
		return nil, err
	}

	if len(winners) == 1 {
		return candidates[winners[0]], nil
	}

	// Equal negotiation rank: an exact match may still outrank index
	// fallbacks. More than one survivor is a configuration error.
	var survivors []*Source
	for _, i := range winners {
		if !candidates[i].IsIndex {
			survivors = append(survivors, candidates[i])
		}
	}
	if len(survivors) == 0 {
		for _, i := range winners {
			survivors = append(survivors, candidates[i])
		}
	}
	if len(survivors) > 1 {
		return nil, fmt.Errorf("%w: %q and %q rank equally",
			ErrAmbiguous, survivors[0].Path, survivors[1].Path)
	}
	return survivors[0], nil
}

// checkContained rejects sources that resolve (through symlinks) to
// somewhere outside the content directory. Contained sources have their path
// rewritten to the resolved location so renderers operate on real files.
func (r *Resolver) checkContained(source *Source) error {
	resolved, err := filepath.EvalSymlinks(source.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("route %q: %w", source.Route, ErrNotFound)
		}
		return fmt.Errorf("%q: %v: %w", source.Path, err, ErrForbidden)
	}
	if resolved != r.root && !strings.HasPrefix(resolved, r.root+string(filepath.Separator)) {
		return fmt.Errorf("%q resolves outside the content directory: %w", source.Path, ErrForbidden)
	}
	source.Path = resolved
	return nil
}

func (r *Resolver) fsPath(route Route) string {
	return filepath.Join(r.root, filepath.FromSlash(strings.TrimPrefix(string(route), "/")))
}

// dirEntry is the cached shape of a directory entry; just enough for the
// naming grammar (the mode carries the executable bit).
type dirEntry struct {
	name  string
	mode  fs.FileMode
	isDir bool
}

func (r *Resolver) listDir(dir string) ([]dirEntry, error) {
	if r.listings != nil {
		if cached, found := r.listings.Get(dir); found {
			return cached.([]dirEntry), nil
		}
	}

	rawEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%q: %v: %w", dir, err, ErrForbidden)
	}

	// os.ReadDir sorts by name, making declaration order deterministic.
	entries := make([]dirEntry, 0, len(rawEntries))
	for _, rawEntry := range rawEntries {
		info, err := rawEntry.Info()
		if err != nil {
			continue
		}
		entries = append(entries, dirEntry{
			name:  rawEntry.Name(),
			mode:  info.Mode(),
			isDir: rawEntry.IsDir(),
		})
	}

	if r.listings != nil {
		r.listings.Set(dir, entries, gocache.DefaultExpiration)
	}
	return entries, nil
}
