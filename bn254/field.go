// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package bn254 implements BN254 (alt_bn128) G1 group arithmetic:
// Jacobian-coordinate point addition and doubling, affine conversion,
// double-and-add scalar multiplication, on-curve validation, and the
// canonical 64-byte affine wire encoding used throughout this module.
package bn254

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
)

// ErrNotOnCurve is returned when an encoded point fails the curve
// equation check.
var ErrNotOnCurve = errors.New("bn254: point not on curve")

// ErrInvalidEncoding is returned when a byte slice is not a valid
// 64-byte affine point encoding.
var ErrInvalidEncoding = errors.New("bn254: invalid point encoding")

// P is the BN254 base field modulus.
var P, _ = new(big.Int).SetString("21888242871839275222246405745257275088696311157297823662689037894645226208583", 10)

// N is the BN254 scalar field modulus (the order of G1).
var N, _ = new(big.Int).SetString("21888242871839275222246405745257275088548364400416034343698204186575808495617", 10)

// curveB is the BN254 short-Weierstrass coefficient: y^2 = x^3 + 3.
const curveB = 3

func init() {
	// Sanity-check the compile-time constants the rest of the package
	// assumes, mirroring the original implementation's
	// _validate_curve_constants guard.
	if P.Sign() <= 0 || N.Sign() <= 0 {
		panic("bn254: curve constants failed to parse")
	}
	if P.Bit(1) == 0 {
		// p mod 4 must be 3 for the (p+1)/4 sqrt shortcut to apply.
		if new(big.Int).Mod(P, big.NewInt(4)).Int64() != 3 {
			panic("bn254: base field modulus is not 3 mod 4")
		}
	}
}

// Element is a BN254 base-field element. It wraps gnark-crypto's
// constant-time fp.Element and adds the Tonelli-Shanks-shortcut square
// root this package's hash-to-curve and curve-validation routines need.
type Element struct {
	v fp.Element
}

// NewElement builds an Element from a big-endian byte slice, reduced
// mod p.
func NewElement(b []byte) Element {
	var e Element
	e.v.SetBytes(b)
	return e
}

// NewElementFromBig builds an Element from a *big.Int, reduced mod p.
func NewElementFromBig(x *big.Int) Element {
	var e Element
	e.v.SetBigInt(x)
	return e
}

// Zero returns the additive identity.
func Zero() Element { return Element{} }

// One returns the multiplicative identity.
func One() Element {
	var e Element
	e.v.SetOne()
	return e
}

// Bytes returns the canonical 32-byte big-endian encoding.
func (e Element) Bytes() [32]byte { return e.v.Bytes() }

// Big returns the element as a *big.Int in [0, p).
func (e Element) Big() *big.Int {
	var out big.Int
	e.v.BigInt(&out)
	return &out
}

// IsZero reports whether e is the additive identity.
func (e Element) IsZero() bool { return e.v.IsZero() }

// Equal reports whether e and o represent the same field element.
func (e Element) Equal(o Element) bool { return e.v.Equal(&o.v) }

// Add returns e + o mod p.
func (e Element) Add(o Element) Element {
	var r Element
	r.v.Add(&e.v, &o.v)
	return r
}

// Sub returns e - o mod p.
func (e Element) Sub(o Element) Element {
	var r Element
	r.v.Sub(&e.v, &o.v)
	return r
}

// Mul returns e * o mod p.
func (e Element) Mul(o Element) Element {
	var r Element
	r.v.Mul(&e.v, &o.v)
	return r
}

// Square returns e^2 mod p.
func (e Element) Square() Element {
	var r Element
	r.v.Square(&e.v)
	return r
}

// Neg returns -e mod p.
func (e Element) Neg() Element {
	var r Element
	r.v.Neg(&e.v)
	return r
}

// Inverse returns the modular inverse of e, or the zero element if e
// is zero (matching the convention that 1/0 is undefined and callers
// must check IsZero first).
func (e Element) Inverse() Element {
	if e.v.IsZero() {
		return Element{}
	}
	var r Element
	r.v.Inverse(&e.v)
	return r
}

// Sqrt computes a square root of e via the (p+1)/4 exponentiation
// shortcut, valid because p ≡ 3 (mod 4) for BN254. Returns (root,
// true) if e is a quadratic residue, or (zero, false) otherwise.
//
// This is the Tonelli-Shanks special case for primes congruent to 3
// mod 4: sqrt(a) = a^((p+1)/4) mod p, verified by squaring the
// candidate back and comparing to e.
func (e Element) Sqrt() (Element, bool) {
	if e.v.IsZero() {
		return Element{}, true
	}
	var candidate Element
	if candidate.v.Sqrt(&e.v) == nil {
		return Element{}, false
	}
	// gnark-crypto's Sqrt already validates the residue internally and
	// returns nil on failure, but we re-verify to keep this routine
	// self-contained and independently auditable.
	check := candidate.Square()
	if !check.Equal(e) {
		return Element{}, false
	}
	return candidate, true
}

// BatchInverse computes the modular inverse of every element in xs in
// a single inversion using Montgomery's trick: O(1) inversions plus
// O(n) multiplications instead of O(n) inversions. Every element of
// xs must be nonzero; callers (Lagrange interpolation over distinct
// points) guarantee this by construction.
func BatchInverse(xs []Element) []Element {
	n := len(xs)
	out := make([]Element, n)
	if n == 0 {
		return out
	}

	prefix := make([]Element, n)
	acc := One()
	for i, x := range xs {
		prefix[i] = acc
		acc = acc.Mul(x)
	}

	inv := acc.Inverse()
	for i := n - 1; i >= 0; i-- {
		out[i] = inv.Mul(prefix[i])
		inv = inv.Mul(xs[i])
	}
	return out
}
