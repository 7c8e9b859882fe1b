// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package did

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// WebResolver resolves did:web:<domain>[:<path-segments>] identifiers
// by fetching the corresponding HTTPS .well-known/did.json document.
// No third-party HTTP client is wired in here: a single GET-and-parse
// is exactly what net/http's zero-configuration Client already does,
// and no example in the pack reaches for anything heavier for this.
type WebResolver struct {
	Client *http.Client
}

type webDIDDocument struct {
	ID                 string `json:"id"`
	Controller         string `json:"controller"`
	VerificationMethod []struct {
		ID                 string `json:"id"`
		Type               string `json:"type"`
		PublicKeyHex       string `json:"publicKeyHex"`
		PublicKeyMultibase string `json:"publicKeyMultibase"`
	} `json:"verificationMethod"`
}

// Resolve fetches and parses the did:web document for id.
func (r WebResolver) Resolve(id string) (*Document, error) {
	method, specific, err := Parse(id)
	if err != nil {
		return nil, err
	}
	if method != "web" {
		return nil, ErrUnsupportedMethod
	}

	url, err := webURL(specific)
	if err != nil {
		return nil, err
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	return fetchDocument(client, url, id)
}

// fetchDocument performs the GET-and-parse for a did:web document at
// url, labeling the resulting Document with id.
func fetchDocument(client *http.Client, url, id string) (*Document, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrResolutionFailed, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrResolutionFailed, url, resp.StatusCode)
	}

	var doc webDIDDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %v", ErrResolutionFailed, err)
	}

	out := &Document{ID: id, Controller: doc.Controller}
	for _, vm := range doc.VerificationMethod {
		var key []byte
		if vm.PublicKeyHex != "" {
			key, _ = hex.DecodeString(vm.PublicKeyHex)
		}
		out.VerificationMethods = append(out.VerificationMethods, VerificationMethod{
			ID:        vm.ID,
			Type:      vm.Type,
			PublicKey: key,
		})
	}
	return out, nil
}

// webURL maps a did:web method-specific id to its .well-known/did.json
// URL per the did:web method spec: colons separate path segments, and
// a bare domain resolves to its root .well-known document.
func webURL(specific string) (string, error) {
	segments := strings.Split(specific, ":")
	for i, s := range segments {
		decoded := strings.ReplaceAll(s, "%3A", ":")
		segments[i] = decoded
	}
	if len(segments) == 0 || segments[0] == "" {
		return "", ErrMalformedDID
	}

	domain := segments[0]
	if len(segments) == 1 {
		return "https://" + domain + "/.well-known/did.json", nil
	}
	return "https://" + domain + "/" + strings.Join(segments[1:], "/") + "/did.json", nil
}
