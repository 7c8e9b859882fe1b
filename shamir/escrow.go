// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package shamir

import (
	"errors"
	"math/big"
	"sync"

	logpkg "github.com/luxfi/log"
)

// ErrContextNotEscrowed is returned when recovering or fetching shares
// for a context id that was never escrowed.
var ErrContextNotEscrowed = errors.New("shamir: context not escrowed")

// ErrContextAlreadyEscrowed is returned when escrowing a context id a
// second time.
var ErrContextAlreadyEscrowed = errors.New("shamir: context already escrowed")

// Escrow holds Shamir-split secrets (e.g. viewing-key private bytes,
// see package viewingkey) keyed by the same opaque context id used
// elsewhere in this module, so a key's escrow shares and its ECIES
// envelope share one identifier space.
type Escrow struct {
	mu      sync.RWMutex
	config  Config
	entries map[string][]Share

	log logpkg.Logger
}

// NewEscrow creates an Escrow using config for every split it performs.
func NewEscrow(config Config, log logpkg.Logger) *Escrow {
	return &Escrow{config: config, entries: make(map[string][]Share), log: log}
}

// Put splits secretBytes into shares under contextID and holds them in
// the escrow, returning the shares for out-of-band distribution to
// their respective holders.
func (e *Escrow) Put(contextID string, secretBytes []byte) ([]Share, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.entries[contextID]; exists {
		return nil, ErrContextAlreadyEscrowed
	}

	secret := new(big.Int).SetBytes(secretBytes)
	shares, err := Split(secret, e.config.Threshold, e.config.Total, contextID)
	if err != nil {
		return nil, err
	}
	e.entries[contextID] = shares
	return shares, nil
}

// Recover reconstructs the original secret bytes from providedShares,
// which must number at least the escrow's configured threshold and
// must each pass VerifyShare against the rest of providedShares.
func (e *Escrow) Recover(contextID string, providedShares []Share) ([]byte, error) {
	for i, s := range providedShares {
		others := make([]Share, 0, len(providedShares)-1)
		others = append(others, providedShares[:i]...)
		others = append(others, providedShares[i+1:]...)

		ok, err := VerifyShare(s, others, e.config.Threshold)
		if err != nil {
			if e.log != nil {
				e.log.Debug("shamir: share could not be verified during recovery", "context_id", contextID, "index", s.Index, "error", err)
			}
			return nil, ErrShareVerificationFailed
		}
		if !ok {
			if e.log != nil {
				e.log.Debug("shamir: share failed verification during recovery", "context_id", contextID, "index", s.Index)
			}
			return nil, ErrShareVerificationFailed
		}
	}

	secret, err := Reconstruct(providedShares, e.config.Threshold)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 32)
	b := secret.Bytes()
	copy(out[32-len(b):], b)
	return out, nil
}

// ShareFor returns the share issued to a specific holder role within
// contextID's escrowed set.
func (e *Escrow) ShareFor(contextID string, holder ShareHolder) (Share, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	shares, ok := e.entries[contextID]
	if !ok {
		return Share{}, ErrContextNotEscrowed
	}
	for i, s := range shares {
		if e.config.HolderForIndex(s.Index) == holder {
			return shares[i], nil
		}
	}
	return Share{}, errors.New("shamir: no share issued to that holder")
}

// VerifyReconstructionPossible reports whether the given shares, after
// independent verification against each other, number at least the
// escrow's threshold.
func (e *Escrow) VerifyReconstructionPossible(shares []Share) bool {
	valid := 0
	for i, s := range shares {
		others := make([]Share, 0, len(shares)-1)
		others = append(others, shares[:i]...)
		others = append(others, shares[i+1:]...)

		if ok, err := VerifyShare(s, others, e.config.Threshold); err == nil && ok {
			valid++
		}
	}
	return valid >= e.config.Threshold
}
