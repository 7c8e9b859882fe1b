// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package shamir implements (t, n) threshold secret sharing over a
// 256-bit safe prime field, with Lagrange interpolation reconstruction
// and Feldman-style share verification against public commitments.
package shamir

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"github.com/luxfi/rra-core/hashing"
)

// Prime is the shared 256-bit safe prime field modulus: 2^256 - 189.
// Verified prime via Miller-Rabin at package init, mirroring the
// original's _verify_prime_constant fail-fast guard.
var Prime *big.Int

func init() {
	Prime = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(189))
	if !Prime.ProbablyPrime(40) {
		panic("shamir: prime constant failed Miller-Rabin primality test")
	}
}

// ErrInvalidThreshold is returned when configuring threshold > total
// or threshold < 1.
var ErrInvalidThreshold = errors.New("shamir: threshold must satisfy 1 <= t <= n")

// ErrSecretTooLarge is returned when a secret does not fit in the
// field (i.e. is >= Prime).
var ErrSecretTooLarge = errors.New("shamir: secret must be smaller than the field prime")

// ErrInsufficientShares is returned when reconstruction is attempted
// with fewer shares than the threshold requires.
var ErrInsufficientShares = errors.New("shamir: insufficient shares to reconstruct")

// ErrDuplicateShareIndex is returned when two shares presented for
// reconstruction share the same index.
var ErrDuplicateShareIndex = errors.New("shamir: duplicate share index")

// ErrShareVerificationFailed is returned when a share's commitment
// does not match its disclosed value.
var ErrShareVerificationFailed = errors.New("shamir: share commitment mismatch")

// ErrCommitmentMismatch is returned when a reconstructed secret's hash
// does not match the commitment carried by the shares used to
// reconstruct it, meaning at least one share was corrupted,
// substituted, or came from a different split.
var ErrCommitmentMismatch = errors.New("shamir: reconstructed secret does not match share commitment")

// ErrInvalidIndex is returned when a share's index is outside the
// valid [1, 255] range: index 0 would trivially leak the secret
// (f(0) is the secret itself), and indices are encoded as a single
// byte, so nothing above 255 is addressable.
var ErrInvalidIndex = errors.New("shamir: share index must satisfy 1 <= index <= 255")

// Share is one party's point on the sharing polynomial, plus a public
// commitment to its value that lets a verifier check the share was
// not corrupted without learning the secret.
type Share struct {
	Index      int
	Value      *big.Int
	ContextID  string
	Commitment [32]byte
}

// secretBytes32 encodes secret as a fixed 32-byte big-endian word via
// uint256 (rather than big.Int's variable-width .Bytes(), which drops
// leading zero bytes) so that two different secrets can never produce
// colliding hash inputs through length ambiguity, and so every share
// split from one secret hashes an identically-shaped input.
func secretBytes32(secret *big.Int) [32]byte {
	return uint256.MustFromBig(secret).Bytes32()
}

// commitSecret computes keccak(secret), the single commitment shared
// by every share produced from one Split call. Committing the secret
// itself — rather than any share-holder-controlled value like an
// index or a share's y-value — means the commitment cannot be forged
// by a party who only controls their own share.
func commitSecret(secret *big.Int) [32]byte {
	word := secretBytes32(secret)
	return hashing.Hash(hashing.DomainShareCommitment, word[:])
}

// Split divides secret into n shares such that any threshold of them
// reconstructs secret via Lagrange interpolation, and fewer reveal
// nothing about it (information-theoretic secrecy, the defining
// property of Shamir sharing).
func Split(secret *big.Int, threshold, total int, contextID string) ([]Share, error) {
	if threshold < 1 || threshold > total {
		return nil, ErrInvalidThreshold
	}
	if total > 255 {
		return nil, ErrInvalidIndex
	}
	if secret.Sign() < 0 || secret.Cmp(Prime) >= 0 {
		return nil, ErrSecretTooLarge
	}

	coeffs := make([]*big.Int, threshold)
	coeffs[0] = new(big.Int).Set(secret)
	for i := 1; i < threshold; i++ {
		c, err := rand.Int(rand.Reader, Prime)
		if err != nil {
			return nil, fmt.Errorf("shamir: generate coefficient: %w", err)
		}
		coeffs[i] = c
	}

	commitment := commitSecret(secret)

	shares := make([]Share, total)
	for i := 0; i < total; i++ {
		x := big.NewInt(int64(i + 1))
		y := evaluatePolynomial(coeffs, x)
		shares[i] = Share{
			Index:      i + 1,
			Value:      y,
			ContextID:  contextID,
			Commitment: commitment,
		}
	}
	return shares, nil
}

// evaluatePolynomial evaluates coefficients (constant term first) at
// x modulo Prime using Horner's method.
func evaluatePolynomial(coeffs []*big.Int, x *big.Int) *big.Int {
	result := new(big.Int)
	for i := len(coeffs) - 1; i >= 0; i-- {
		result.Mul(result, x)
		result.Add(result, coeffs[i])
		result.Mod(result, Prime)
	}
	return result
}

// Reconstruct recovers the secret from at least threshold shares via
// Lagrange interpolation at x=0, then verifies the result against the
// shares' shared commitment (keccak of the secret, see commitSecret)
// before returning it, so a corrupted or mismatched share produces an
// error rather than a wrong secret. Shares must have distinct indices
// in [1, 255].
func Reconstruct(shares []Share, threshold int) (*big.Int, error) {
	if len(shares) < threshold {
		return nil, ErrInsufficientShares
	}
	used := shares[:threshold]

	seen := make(map[int]bool, len(used))
	for _, s := range used {
		if s.Index < 1 || s.Index > 255 {
			return nil, ErrInvalidIndex
		}
		if seen[s.Index] {
			return nil, ErrDuplicateShareIndex
		}
		seen[s.Index] = true
	}

	secret, err := lagrangeInterpolateAtZero(used)
	if err != nil {
		return nil, err
	}

	got := commitSecret(secret)
	want := used[0].Commitment
	if subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
		return nil, ErrCommitmentMismatch
	}
	return secret, nil
}

// lagrangeInterpolateAtZero computes f(0) given points (share.Index,
// share.Value), using a single batched modular inversion for all
// denominators rather than one inversion per share.
func lagrangeInterpolateAtZero(shares []Share) (*big.Int, error) {
	n := len(shares)
	denominators := make([]*big.Int, n)
	for i := range shares {
		xi := big.NewInt(int64(shares[i].Index))
		denom := big.NewInt(1)
		for j := range shares {
			if i == j {
				continue
			}
			xj := big.NewInt(int64(shares[j].Index))
			diff := new(big.Int).Sub(xi, xj)
			diff.Mod(diff, Prime)
			denom.Mul(denom, diff)
			denom.Mod(denom, Prime)
		}
		denominators[i] = denom
	}

	invDenoms := batchModInverse(denominators)

	result := new(big.Int)
	for i := range shares {
		xi := big.NewInt(int64(shares[i].Index))
		numerator := big.NewInt(1)
		for j := range shares {
			if i == j {
				continue
			}
			xj := big.NewInt(int64(shares[j].Index))
			numerator.Mul(numerator, new(big.Int).Neg(xj))
			numerator.Mod(numerator, Prime)
		}
		_ = xi

		term := new(big.Int).Mul(numerator, invDenoms[i])
		term.Mod(term, Prime)
		term.Mul(term, shares[i].Value)
		term.Mod(term, Prime)

		result.Add(result, term)
		result.Mod(result, Prime)
	}
	return result, nil
}

// batchModInverse inverts every element of xs mod Prime using
// Montgomery's trick: one modular inversion plus O(n) multiplications.
func batchModInverse(xs []*big.Int) []*big.Int {
	n := len(xs)
	out := make([]*big.Int, n)
	if n == 0 {
		return out
	}

	prefix := make([]*big.Int, n)
	acc := big.NewInt(1)
	for i, x := range xs {
		prefix[i] = new(big.Int).Set(acc)
		acc.Mul(acc, x)
		acc.Mod(acc, Prime)
	}

	inv := new(big.Int).ModInverse(acc, Prime)
	for i := n - 1; i >= 0; i-- {
		out[i] = new(big.Int).Mul(inv, prefix[i])
		out[i].Mod(out[i], Prime)

		inv.Mul(inv, xs[i])
		inv.Mod(inv, Prime)
	}
	return out
}

// VerifyShare verifies share in isolation: it reconstructs the secret
// from share plus threshold-1 of others (filtering out any entry that
// happens to carry share's own index) and checks the result against
// the shared commitment, without ever learning whether share's value
// is individually well-formed any other way. There is no sound way to
// validate a single Shamir share against a public commitment alone —
// any one point is consistent with infinitely many polynomials — so a
// lone share with no other shares to reconstruct against is reported
// as unverifiable, never as valid: fail closed, not open.
func VerifyShare(share Share, others []Share, threshold int) (bool, error) {
	if threshold < 1 {
		return false, ErrInvalidThreshold
	}

	distinct := make([]Share, 0, len(others))
	seen := map[int]bool{share.Index: true}
	for _, o := range others {
		if o.Index == share.Index || seen[o.Index] {
			continue
		}
		seen[o.Index] = true
		distinct = append(distinct, o)
	}

	need := threshold - 1
	if len(distinct) < need {
		return false, fmt.Errorf("shamir: %w: have %d other shares, need %d", ErrInsufficientShares, len(distinct), need)
	}

	test := make([]Share, 0, threshold)
	test = append(test, distinct[:need]...)
	test = append(test, share)

	// Reconstruct already checks the result against the shares'
	// commitment and fails if it doesn't match, duplicate/invalid
	// indices are present, or too few shares were given — any such
	// failure here means share does not verify, not an error to
	// propagate.
	if _, err := Reconstruct(test, threshold); err != nil {
		return false, nil
	}
	return true, nil
}
