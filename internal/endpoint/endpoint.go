// Package endpoint composes request targets for the console backend.
//
// Every function here is pure and total: the same inputs always produce the
// same target and no input is rejected.
package endpoint

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/roach88/rconsole/internal/model"
)

// DefaultBase is the versioned API root used when none is configured.
const DefaultBase = "/api/v1beta1"

// WildcardQuery requests every item of a collection.
const WildcardQuery = "*"

// Well-known system segments.
const (
	SegmentConfig   = "system/config"
	SegmentStatus   = "system/status"
	SegmentLogs     = "system/logs"
	SegmentLogsWS   = "system/logs-ws"
	registryBackend = "registry"
)

// Target is a concrete request destination.
// Path includes the query string, if any. Token is attached by the transport.
type Target struct {
	Path  string
	Token string
}

// Authorize sets the bearer token header when the target carries a token.
func (t Target) Authorize(h http.Header) {
	if t.Token != "" {
		h.Set("Authorization", "Bearer "+t.Token)
	}
}

// Build joins base and segment and appends query verbatim after "?".
// An empty query produces no trailing separator.
func Build(base, segment, query, token string) Target {
	return Target{
		Path:  join(base, segment) + suffix(query),
		Token: token,
	}
}

// Collection translates a logical section into its backend collection name.
func Collection(section model.Section) string {
	if section == model.SectionRegistration {
		return registryBackend
	}
	return string(section)
}

// Resource builds the segment for one resource of a section. The ref is
// escaped so it stays inside its own path segment.
func Resource(section model.Section, ref string) string {
	return Collection(section) + "/" + url.PathEscape(ref)
}

// SocketURL derives a websocket URL from an HTTP origin: "http" becomes "ws"
// and "https" becomes "wss". The token travels as a query parameter because
// socket clients cannot always set headers.
func SocketURL(origin, base, segment, token string) string {
	o := strings.TrimRight(origin, "/")
	switch {
	case strings.HasPrefix(o, "https://"):
		o = "wss://" + strings.TrimPrefix(o, "https://")
	case strings.HasPrefix(o, "http://"):
		o = "ws://" + strings.TrimPrefix(o, "http://")
	}
	q := ""
	if token != "" {
		q = "token=" + token
	}
	return o + join(base, segment) + suffix(q)
}

func join(base, segment string) string {
	b := strings.TrimRight(base, "/")
	s := strings.TrimLeft(segment, "/")
	if s == "" {
		return b
	}
	return b + "/" + s
}

func suffix(query string) string {
	if query == "" {
		return ""
	}
	return "?" + query
}
