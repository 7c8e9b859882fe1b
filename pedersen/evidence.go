// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pedersen

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"github.com/luxfi/rra-core/hashing"
)

// ErrAlreadyCommitted is returned when committing evidence for a
// context id that already has an open commitment.
var ErrAlreadyCommitted = errors.New("pedersen: context already has a commitment")

// ErrNoCommitment is returned when revealing or verifying evidence for
// a context id with no prior commitment.
var ErrNoCommitment = errors.New("pedersen: no commitment for context")

// ErrAlreadyRevealed is returned when revealing evidence a second time
// for the same context id.
var ErrAlreadyRevealed = errors.New("pedersen: context already revealed")

type evidenceEntry struct {
	commitment Commitment
	blinding   [32]byte
	tag        string
	revealed   bool
}

// EvidenceLedger enforces a commit-then-reveal workflow keyed by an
// opaque context id (e.g. a dispute id): a context may be committed
// exactly once, and revealed exactly once after that, with the reveal
// independently re-verifiable against the original commitment.
//
// Grounded on the original implementation's EvidenceCommitmentManager,
// which this module's tests exercise with the same commit/reveal/
// verify-revelation/aggregate shape.
type EvidenceLedger struct {
	mu      sync.Mutex
	c       *Committer
	entries map[string]*evidenceEntry
}

// NewEvidenceLedger creates an empty ledger backed by the given
// Committer.
func NewEvidenceLedger(c *Committer) *EvidenceLedger {
	return &EvidenceLedger{
		c:       c,
		entries: make(map[string]*evidenceEntry),
	}
}

// EvidenceHash domain-hashes evidence bytes under tag before
// committing to them, so the committed value is always a fixed-size
// field element regardless of the evidence's original length. tag
// binds the hash to its dispute context — "evidence" by default,
// "dispute:<id>" for a specific dispute, "dispute:<id>:item:<k>" for
// one item of a batch — so identical evidence bytes committed under
// two different contexts never collide.
func EvidenceHash(evidence []byte, tag string) [32]byte {
	return hashing.Hash(tag, evidence)
}

// Commit commits to evidence under contextID, generating a fresh
// random blinding factor. It fails if contextID already has an open
// commitment.
func (l *EvidenceLedger) Commit(contextID string, evidence []byte) (Commitment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[contextID]; exists {
		return Commitment{}, ErrAlreadyCommitted
	}

	var blinding [32]byte
	if _, err := rand.Read(blinding[:]); err != nil {
		return Commitment{}, fmt.Errorf("pedersen: generate blinding: %w", err)
	}

	tag := hashing.DomainEvidenceDispute(contextID)
	value := EvidenceHash(evidence, tag)
	commitment, err := l.c.Commit(value, blinding)
	if err != nil {
		return Commitment{}, err
	}

	l.entries[contextID] = &evidenceEntry{commitment: commitment, blinding: blinding, tag: tag}
	return commitment, nil
}

// Reveal returns the blinding factor committed under contextID so a
// verifier can check it against the commitment and the evidence. It
// fails if there is no commitment for contextID, or if it was already
// revealed.
func (l *EvidenceLedger) Reveal(contextID string, evidence []byte) (Commitment, [32]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[contextID]
	if !ok {
		return Commitment{}, [32]byte{}, ErrNoCommitment
	}
	if entry.revealed {
		return Commitment{}, [32]byte{}, ErrAlreadyRevealed
	}

	entry.revealed = true
	_ = evidence // evidence is re-hashed by the caller via VerifyRevelation
	return entry.commitment, entry.blinding, nil
}

// VerifyRevelation checks that evidence and blinding open commitment
// under the given domain tag, independent of this ledger's internal
// state — this is the check a third party performs given only the
// public commitment. tag must be the same one used at commit time
// (e.g. "dispute:<id>" from Commit, or "dispute:<id>:item:<k>" from
// BatchCommit).
func (l *EvidenceLedger) VerifyRevelation(commitment Commitment, evidence []byte, blinding [32]byte, tag string) (bool, error) {
	value := EvidenceHash(evidence, tag)
	return l.c.Verify(commitment, value, blinding)
}

// VerifyDisputeRevelation is VerifyRevelation for the common case of a
// single dispute-scoped commitment produced by Commit, deriving the
// "dispute:<id>" tag from contextID.
func (l *EvidenceLedger) VerifyDisputeRevelation(contextID string, commitment Commitment, evidence []byte, blinding [32]byte) (bool, error) {
	return l.VerifyRevelation(commitment, evidence, blinding, hashing.DomainEvidenceDispute(contextID))
}

// CommitmentFor returns the stored commitment for contextID, if any.
func (l *EvidenceLedger) CommitmentFor(contextID string) (Commitment, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[contextID]
	if !ok {
		return Commitment{}, false
	}
	return entry.commitment, true
}

// BatchCommit commits to m evidence items under contextID (e.g. a
// dispute with several exhibits), each under its own
// "dispute:<id>:item:<k>" domain tag and a fresh blinding factor, then
// returns their point-sum aggregate plus the per-item blindings.
// Individual per-item commitments are not retained: a verifier who
// wants to check one item recomputes commit(evidence_hash(item, tag),
// blindings[k]) and confirms it appears in the aggregate, the same
// shape as the original batch_commit.
func (l *EvidenceLedger) BatchCommit(contextID string, evidences [][]byte) (Commitment, [][32]byte, error) {
	if len(evidences) == 0 {
		return Commitment{}, nil, errors.New("pedersen: batch commit requires at least one evidence item")
	}

	commitments := make([]Commitment, len(evidences))
	blindings := make([][32]byte, len(evidences))
	for k, evidence := range evidences {
		tag := hashing.DomainEvidenceBatchItem(contextID, k)

		var blinding [32]byte
		if _, err := rand.Read(blinding[:]); err != nil {
			return Commitment{}, nil, fmt.Errorf("pedersen: generate blinding: %w", err)
		}

		value := EvidenceHash(evidence, tag)
		commitment, err := l.c.Commit(value, blinding)
		if err != nil {
			return Commitment{}, nil, fmt.Errorf("pedersen: batch commit item %d: %w", k, err)
		}

		commitments[k] = commitment
		blindings[k] = blinding
	}

	aggregated, err := l.Aggregate(commitments)
	if err != nil {
		return Commitment{}, nil, err
	}
	return aggregated, blindings, nil
}

// Aggregate homomorphically sums a set of commitments into one,
// matching the original's aggregate_commitments: the aggregate opens
// to (sum of values, sum of blindings) without revealing any of the
// individual openings.
func (l *EvidenceLedger) Aggregate(commitments []Commitment) (Commitment, error) {
	if len(commitments) == 0 {
		return Commitment{}, errors.New("pedersen: aggregate requires at least one commitment")
	}
	acc := commitments[0]
	var err error
	for _, c := range commitments[1:] {
		acc, err = l.c.Add(acc, c)
		if err != nil {
			return Commitment{}, err
		}
	}
	return acc, nil
}
