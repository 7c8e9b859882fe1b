// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package did resolves Decentralized Identifiers across four methods:
// did:ethr (secp256k1 address identity), did:web (HTTPS-hosted DID
// document), did:key (inline multicodec public key), and did:nlc (an
// opaque registry-backed identifier for off-chain-native participants).
package did

import (
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ErrUnsupportedMethod is returned when no resolver is registered for
// a DID's method segment.
var ErrUnsupportedMethod = errors.New("did: unsupported method")

// ErrMalformedDID is returned when a DID string does not have the
// minimum did:<method>:<id> shape.
var ErrMalformedDID = errors.New("did: malformed identifier")

// ErrResolutionFailed wraps a method-specific resolution failure
// (network error, invalid document, key decode failure).
var ErrResolutionFailed = errors.New("did: resolution failed")

// resolutionCacheTTL is how long a resolved Document is trusted before
// Resolve asks the underlying Resolver again.
const resolutionCacheTTL = 300 * time.Second

// didGrammar validates the full did:<method>:<method-specific-id>
// shape before any resolver lookup is attempted: the method is
// lowercase alphanumeric, and the method-specific id is restricted to
// the DID spec's unreserved/pct-encoded/sub-delim character class.
var didGrammar = regexp.MustCompile(`^did:[a-z0-9]+:[A-Za-z0-9._:%-]+$`)

// VerificationMethod is one key a DID document asserts controls the
// identity, in the minimal shape this module needs (type + raw key
// material) rather than the full W3C VM object.
type VerificationMethod struct {
	ID        string
	Type      string
	PublicKey []byte
}

// Document is a resolved DID document, reduced to the fields this
// module's authentication flow consults.
type Document struct {
	ID                  string
	Controller          string
	VerificationMethods []VerificationMethod
}

// Resolver resolves one DID method to a Document.
type Resolver interface {
	Resolve(id string) (*Document, error)
}

// cacheEntry is one cached resolution result, expiring resolutionCacheTTL
// after it was populated.
type cacheEntry struct {
	doc       *Document
	expiresAt time.Time
}

// Registry dispatches resolution to a per-method Resolver, the same
// method-name-to-resolver-function shape as the original
// did_resolver.py, and caches each DID's resolved Document for
// resolutionCacheTTL so repeated lookups of the same identifier don't
// re-hit a method's (possibly network-backed) resolver.
type Registry struct {
	resolvers map[string]Resolver

	cacheMu sync.RWMutex
	cache   map[string]cacheEntry
}

// NewRegistry creates a Registry with no resolvers registered.
func NewRegistry() *Registry {
	return &Registry{
		resolvers: make(map[string]Resolver),
		cache:     make(map[string]cacheEntry),
	}
}

// Register binds a Resolver to a DID method name (e.g. "ethr").
func (r *Registry) Register(method string, resolver Resolver) {
	r.resolvers[method] = resolver
}

// Resolve parses id's method segment and dispatches to the registered
// Resolver for it, serving a cached Document if id was resolved within
// the last resolutionCacheTTL.
func (r *Registry) Resolve(id string) (*Document, error) {
	method, _, err := Parse(id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.RLock()
	entry, cached := r.cache[id]
	r.cacheMu.RUnlock()
	if cached && time.Now().Before(entry.expiresAt) {
		return entry.doc, nil
	}

	resolver, ok := r.resolvers[method]
	if !ok {
		return nil, ErrUnsupportedMethod
	}
	doc, err := resolver.Resolve(id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = cacheEntry{doc: doc, expiresAt: time.Now().Add(resolutionCacheTTL)}
	r.cacheMu.Unlock()

	return doc, nil
}

// Parse validates id against the full DID grammar and splits it into
// its method and method-specific-id components.
func Parse(id string) (method, specific string, err error) {
	if !didGrammar.MatchString(id) {
		return "", "", ErrMalformedDID
	}
	parts := strings.SplitN(id, ":", 3)
	return parts[1], parts[2], nil
}
