package storage

import (
	"net/url"
	"strings"
)

// Resolver turns stored keys into absolute URLs under a configured base.
// It never touches the backend, so the same key always resolves to the same URL.
type Resolver struct {
	baseURL string
}

// NewResolver returns a resolver for baseURL ("https://cdn.example.com/media/")
func NewResolver(baseURL string) *Resolver {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Resolver{baseURL: baseURL}
}

// Resolve returns nil for a nil or empty key
func (r *Resolver) Resolve(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	u := r.URL(*key)
	return &u
}

// URL joins the base and the escaped key
func (r *Resolver) URL(key string) string {
	segments := strings.Split(strings.TrimLeft(key, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return r.baseURL + strings.Join(segments, "/")
}
