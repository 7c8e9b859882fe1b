// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package did

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// Multicodec prefixes for the key types did:key supports here. Values
// per the multicodec table: 0xed01 for ed25519-pub, 0xe701 for
// secp256k1-pub.
var (
	codecEd25519   = []byte{0xed, 0x01}
	codecSecp256k1 = []byte{0xe7, 0x01}
)

// KeyResolver resolves did:key:<multibase> identifiers. Unlike
// did:web, the entire document is derivable from the identifier
// itself: the key is encoded inline, not fetched.
type KeyResolver struct{}

// Resolve decodes the multibase-encoded, multicodec-prefixed public
// key embedded in a did:key identifier.
func (KeyResolver) Resolve(id string) (*Document, error) {
	method, specific, err := Parse(id)
	if err != nil {
		return nil, err
	}
	if method != "key" {
		return nil, ErrUnsupportedMethod
	}
	if len(specific) == 0 || specific[0] != 'z' {
		return nil, fmt.Errorf("%w: did:key must use base58btc multibase prefix 'z'", ErrMalformedDID)
	}

	decoded, err := base58.Decode(specific[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: base58 decode: %v", ErrMalformedDID, err)
	}

	vmType, key, err := splitMulticodec(decoded)
	if err != nil {
		return nil, err
	}

	return &Document{
		ID: id,
		VerificationMethods: []VerificationMethod{
			{ID: id + "#" + specific[1:], Type: vmType, PublicKey: key},
		},
	}, nil
}

func splitMulticodec(b []byte) (vmType string, key []byte, err error) {
	switch {
	case len(b) > 2 && b[0] == codecEd25519[0] && b[1] == codecEd25519[1]:
		key = b[2:]
		if len(key) != ed25519.PublicKeySize {
			return "", nil, fmt.Errorf("%w: ed25519 key must be %d bytes, got %d", ErrMalformedDID, ed25519.PublicKeySize, len(key))
		}
		return "Ed25519VerificationKey2020", key, nil
	case len(b) > 2 && b[0] == codecSecp256k1[0] && b[1] == codecSecp256k1[1]:
		key = b[2:]
		if len(key) != 33 {
			return "", nil, fmt.Errorf("%w: compressed secp256k1 key must be 33 bytes, got %d", ErrMalformedDID, len(key))
		}
		return "EcdsaSecp256k1VerificationKey2019", key, nil
	default:
		return "", nil, fmt.Errorf("%w: unrecognized multicodec prefix", ErrMalformedDID)
	}
}
