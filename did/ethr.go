// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package did

import (
	"encoding/hex"
	"errors"
	"strings"
)

// EthrResolver resolves did:ethr:[<chain>:]<0x-address> identifiers.
// Unlike did:web, no network call is made: the identity's address is
// the DID itself, and the corresponding public key is recovered at
// authentication time from a submitted signature rather than fetched
// here (see package auth).
type EthrResolver struct{}

// Resolve builds a minimal Document asserting a single
// EcdsaSecp256k1RecoveryMethod2020 verification method whose key
// material is the 20-byte Ethereum-style address encoded in the DID.
func (EthrResolver) Resolve(id string) (*Document, error) {
	method, specific, err := Parse(id)
	if err != nil {
		return nil, err
	}
	if method != "ethr" {
		return nil, ErrUnsupportedMethod
	}

	addrHex := specific
	if idx := strings.LastIndex(specific, ":"); idx >= 0 {
		addrHex = specific[idx+1:]
	}
	addrHex = strings.TrimPrefix(addrHex, "0x")
	addr, err := hex.DecodeString(addrHex)
	if err != nil || len(addr) != 20 {
		return nil, errors.New("did: ethr identifier is not a 20-byte address")
	}

	return &Document{
		ID: id,
		VerificationMethods: []VerificationMethod{
			{
				ID:        id + "#controller",
				Type:      "EcdsaSecp256k1RecoveryMethod2020",
				PublicKey: addr,
			},
		},
	}, nil
}
