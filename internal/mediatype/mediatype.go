// Package mediatype models IETF media types (RFC 2046) and implements the
// proactive content negotiation used to pick between alternative
// representations of the same route.
package mediatype

import (
	"errors"
	"fmt"
	"mime"
	"sort"
	"strings"
)

// ErrNotAcceptable is returned by Negotiate when no candidate is compatible
// with any entry in the preference list.
var ErrNotAcceptable = errors.New("no candidate media type is acceptable")

// MediaType is a concrete (wildcard-free) media type such as "text/html".
type MediaType struct {
	Type    string
	Subtype string
	Params  map[string]string
}

// Parse parses a concrete media type. Wildcards are rejected; use ParseRange
// for accept-header entries.
func Parse(value string) (MediaType, error) {
	essence, params, err := mime.ParseMediaType(value)
	if err != nil {
		return MediaType{}, fmt.Errorf("malformed media type %q: %w", value, err)
	}

	t, subtype, ok := strings.Cut(essence, "/")
	if !ok {
		return MediaType{}, fmt.Errorf("malformed media type %q", value)
	}
	if t == "*" || subtype == "*" {
		return MediaType{}, fmt.Errorf("%q is a media range, not a concrete media type", value)
	}

	return MediaType{Type: t, Subtype: subtype, Params: params}, nil
}

func (t MediaType) String() string {
	return mime.FormatMediaType(t.Type+"/"+t.Subtype, t.Params)
}

// Essence is the "type/subtype" form without parameters.
func (t MediaType) Essence() string {
	return t.Type + "/" + t.Subtype
}

// Matches reports whether the media type falls within the given range.
// Parameters do not participate in matching.
func (t MediaType) Matches(r Range) bool {
	if r.Type == "*" {
		return true
	}
	if r.Subtype == "*" {
		return t.Type == r.Type
	}
	return t.Type == r.Type && t.Subtype == r.Subtype
}

// Range is a media range from a preference list. Type and/or Subtype may be
// the wildcard "*".
type Range struct {
	Type    string
	Subtype string
	Quality float64
}

// Any is the full-wildcard range "*/*".
func Any() Range {
	return Range{Type: "*", Subtype: "*", Quality: 1}
}

// ParseRange parses a single media range, optionally carrying a q parameter.
func ParseRange(value string) (Range, error) {
	essence, params, err := mime.ParseMediaType(value)
	if err != nil {
		return Range{}, fmt.Errorf("malformed media range %q: %w", value, err)
	}

	t, subtype, ok := strings.Cut(essence, "/")
	if !ok {
		return Range{}, fmt.Errorf("malformed media range %q", value)
	}
	if t == "*" && subtype != "*" {
		return Range{}, fmt.Errorf("malformed media range %q: wildcard type with concrete subtype", value)
	}

	r := Range{Type: t, Subtype: subtype, Quality: 1}
	if q, present := params["q"]; present {
		quality, err := parseQuality(q)
		if err != nil {
			return Range{}, fmt.Errorf("malformed media range %q: %w", value, err)
		}
		r.Quality = quality
	}
	return r, nil
}

func (r Range) String() string {
	return r.Type + "/" + r.Subtype
}

// specificity class used for ranking: exact match beats a subtype wildcard,
// which beats the full wildcard.
func (r Range) specificity() int {
	switch {
	case r.Type == "*":
		return 2
	case r.Subtype == "*":
		return 1
	default:
		return 0
	}
}

// rank is the negotiation rank of a single candidate against a preference
// list: the specificity class of the most specific matching range, breaking
// ties by the range's position in the (already preference-ordered) list.
// Lower is better. ok is false when nothing matches.
func rank(candidate MediaType, preferences []Range) (specificity, position int, ok bool) {
	specificity, position, ok = 0, 0, false
	for i, r := range preferences {
		if !candidate.Matches(r) {
			continue
		}
		if !ok || r.specificity() < specificity {
			specificity, position, ok = r.specificity(), i, true
		}
	}
	return specificity, position, ok
}

// Negotiate ranks candidates against the preference list. A nil preference
// list means no preference and is treated as "*/*"; an empty non-nil list
// means nothing is acceptable (a header whose every entry carried q=0). The
// result holds the indices of every candidate achieving the best rank, in
// declaration order: a single winner means unambiguous negotiation, several
// mean the caller must break the tie itself (or refuse to). ErrNotAcceptable
// is returned when no candidate matches any preference.
func Negotiate(candidates []MediaType, preferences []Range) ([]int, error) {
	if preferences == nil {
		preferences = []Range{Any()}
	}

	var winners []int
	var bestSpecificity, bestPosition int
	for i, candidate := range candidates {
		specificity, position, ok := rank(candidate, preferences)
		if !ok {
			continue
		}
		switch {
		case len(winners) == 0,
			specificity < bestSpecificity,
			specificity == bestSpecificity && position < bestPosition:
			winners = append(winners[:0], i)
			bestSpecificity, bestPosition = specificity, position
		case specificity == bestSpecificity && position == bestPosition:
			winners = append(winners, i)
		}
	}

	if len(winners) == 0 {
		return nil, ErrNotAcceptable
	}
	return winners, nil
}

func parseQuality(q string) (float64, error) {
	var quality float64
	if _, err := fmt.Sscanf(q, "%f", &quality); err != nil {
		return 0, fmt.Errorf("invalid q value %q", q)
	}
	if quality < 0 || quality > 1 {
		return 0, fmt.Errorf("q value %q out of range", q)
	}
	return quality, nil
}

// ParseAccept parses an accept-header style preference list into ranges
// ordered by descending quality. Order within equal qualities is preserved.
// An empty value yields a single "*/*" entry; a value whose every entry has
// q=0 yields an empty list (nothing is acceptable).
func ParseAccept(value string) ([]Range, error) {
	if strings.TrimSpace(value) == "" {
		return []Range{Any()}, nil
	}

	var ranges []Range
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := ParseRange(part)
		if err != nil {
			return nil, err
		}
		if r.Quality == 0 {
			// q=0 means "explicitly not acceptable".
			continue
		}
		ranges = append(ranges, r)
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Quality > ranges[j].Quality
	})

	if ranges == nil {
		// Every entry was an explicit rejection. Distinct from an absent
		// header: nothing is acceptable, so hand Negotiate an empty list
		// rather than falling back to "*/*".
		return []Range{}, nil
	}
	return ranges, nil
}
