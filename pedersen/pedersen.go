// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package pedersen implements Pedersen commitments over BN254 G1:
// C = v*G + r*H, with H derived by hash-to-curve so no party knows a
// discrete-log relation between G and H. Commitments are homomorphic
// under addition/subtraction, which is how VerifyBalance checks a set
// of inputs sums to a set of outputs without revealing either.
package pedersen

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/luxfi/rra-core/bn254"
	"github.com/luxfi/rra-core/hashing"

	logpkg "github.com/luxfi/log"
)

// ErrInvalidScalar is returned when a 32-byte value does not encode a
// valid scalar for commitment arithmetic.
var ErrInvalidScalar = errors.New("pedersen: invalid scalar")

// ErrPointAtInfinity is returned when a commitment operation would
// produce the point at infinity, which can only happen if the inputs
// were chosen adversarially (v=r=0, or two commitments that are exact
// negations of one another) and is therefore always rejected.
var ErrPointAtInfinity = errors.New("pedersen: commitment is the point at infinity")

// ErrTooManyValues is returned when VectorCommit receives more values
// than there are precomputed generators.
var ErrTooManyValues = errors.New("pedersen: too many values for vector commitment")

// ErrInvalidCommitment is returned when decoding a commitment's wire
// encoding fails or it does not lie on the curve.
var ErrInvalidCommitment = errors.New("pedersen: invalid commitment encoding")

// numVectorGenerators bounds VectorCommit / NoteCommitment inputs.
const numVectorGenerators = 32

// Commitment is the 64-byte affine wire encoding of a commitment
// point: X(32) || Y(32), big-endian, with the all-zero encoding never
// produced by a valid commit (see ErrPointAtInfinity).
type Commitment [64]byte

// Committer holds the generator set used to form and verify
// commitments.
type Committer struct {
	mu sync.RWMutex

	g          bn254.G1Affine
	h          bn254.G1Affine
	generators []bn254.G1Affine

	log logpkg.Logger

	totalCommitments   uint64
	totalVerifications uint64
}

// New creates a Committer with the canonical generator G and a
// nothing-up-my-sleeve blinding generator H derived via hash-to-curve,
// plus a fixed pool of additional generators for vector commitments.
func New(log logpkg.Logger) *Committer {
	c := &Committer{
		g:   bn254.Generator(),
		h:   hashing.HashToG1(hashing.DomainPedersenH),
		log: log,
	}
	c.generators = make([]bn254.G1Affine, numVectorGenerators)
	for i := 0; i < numVectorGenerators; i++ {
		c.generators[i] = hashing.HashToG1(genDomain(i))
	}
	return c
}

func genDomain(i int) string {
	return fmt.Sprintf("%s/%d", hashing.DomainPedersenGen, i)
}

func scalarFromBytes(b [32]byte) *big.Int {
	return new(big.Int).SetBytes(b[:])
}

func encode(p bn254.G1Affine) Commitment {
	var c Commitment
	copy(c[:], p.Marshal())
	return c
}

func decode(c Commitment) (bn254.G1Affine, error) {
	p, err := bn254.Unmarshal(c[:])
	if err != nil {
		return bn254.G1Affine{}, ErrInvalidCommitment
	}
	return p, nil
}

// Commit computes C = value*G + blinding*H and returns its 64-byte
// affine encoding.
func (c *Committer) Commit(value, blinding [32]byte) (Commitment, error) {
	vG := bn254.ScalarMul(c.g, scalarFromBytes(value))
	rH := bn254.ScalarMul(c.h, scalarFromBytes(blinding))
	sum := bn254.AddAffine(vG, rH)
	if sum.IsInfinity() {
		return Commitment{}, ErrPointAtInfinity
	}

	c.mu.Lock()
	c.totalCommitments++
	c.mu.Unlock()

	return encode(sum), nil
}

// Verify reports whether commitment opens to (value, blinding).
func (c *Committer) Verify(commitment Commitment, value, blinding [32]byte) (bool, error) {
	point, err := decode(commitment)
	if err != nil {
		return false, err
	}

	expectedCommit, err := c.Commit(value, blinding)
	if err != nil {
		return false, err
	}
	expectedPoint, err := decode(expectedCommit)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.totalVerifications++
	c.mu.Unlock()

	return point.Equal(expectedPoint), nil
}

// Add combines two commitments homomorphically: commit(v1+v2, r1+r2).
func (c *Committer) Add(a, b Commitment) (Commitment, error) {
	pa, err := decode(a)
	if err != nil {
		return Commitment{}, err
	}
	pb, err := decode(b)
	if err != nil {
		return Commitment{}, err
	}
	sum := bn254.AddAffine(pa, pb)
	return encode(sum), nil
}

// Sub subtracts commitment b from a: commit(v1-v2, r1-r2). The result
// may legitimately be the point at infinity (a == b) so, unlike
// Commit, Sub does not reject it.
func (c *Committer) Sub(a, b Commitment) (Commitment, error) {
	pa, err := decode(a)
	if err != nil {
		return Commitment{}, err
	}
	pb, err := decode(b)
	if err != nil {
		return Commitment{}, err
	}
	diff := bn254.SubAffine(pa, pb)
	return encode(diff), nil
}

// VectorCommit computes sum(values[i]*Generators[i]) + blinding*H.
func (c *Committer) VectorCommit(values [][32]byte, blinding [32]byte) (Commitment, error) {
	if len(values) > len(c.generators) {
		return Commitment{}, ErrTooManyValues
	}

	acc := bn254.Infinity().ToJacobian()
	for i, v := range values {
		term := bn254.ScalarMul(c.generators[i], scalarFromBytes(v))
		acc = acc.Add(term.ToJacobian())
	}
	rH := bn254.ScalarMul(c.h, scalarFromBytes(blinding))
	acc = acc.Add(rH.ToJacobian())

	return encode(acc.ToAffine()), nil
}

// VerifyBalance reports whether the homomorphic sum of inputs equals
// the homomorphic sum of outputs, i.e. whether a transaction's
// committed amounts balance without revealing any of them.
func (c *Committer) VerifyBalance(inputs, outputs []Commitment) (bool, error) {
	sumIn := bn254.Infinity().ToJacobian()
	for _, in := range inputs {
		p, err := decode(in)
		if err != nil {
			return false, err
		}
		sumIn = sumIn.Add(p.ToJacobian())
	}
	sumOut := bn254.Infinity().ToJacobian()
	for _, out := range outputs {
		p, err := decode(out)
		if err != nil {
			return false, err
		}
		sumOut = sumOut.Add(p.ToJacobian())
	}
	return sumIn.ToAffine().Equal(sumOut.ToAffine()), nil
}

// Stats returns commit/verify usage counters.
func (c *Committer) Stats() (commits, verifications uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalCommitments, c.totalVerifications
}
