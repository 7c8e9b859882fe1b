// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package hashing

import (
	"math/big"

	"github.com/luxfi/rra-core/bn254"
)

var threeBig = big.NewInt(3)

// maxCounter bounds the try-and-increment loop. With a 256-bit hash
// output the probability of exhausting this many candidates without
// finding a quadratic residue is astronomically small; it exists so
// the loop is provably total rather than relying on it never firing.
const maxCounter = 256

// HashToG1 derives a BN254 G1 point deterministically from a domain
// tag using try-and-increment: hash(domain, counter) is interpreted as
// a candidate x-coordinate, and the first counter for which
// x^3+3 is a quadratic residue yields the point. This is the
// "nothing-up-my-sleeve" construction used to derive auxiliary
// generators with no known discrete log relative to the base
// generator.
func HashToG1(domain string) bn254.G1Affine {
	for counter := 0; counter < maxCounter; counter++ {
		digest := Hash(domain, []byte{byte(counter)})
		x := bn254.NewElement(digest[:])

		rhs := x.Square().Mul(x).Add(bn254.NewElementFromBig(threeBig))
		y, ok := rhs.Sqrt()
		if !ok {
			continue
		}

		p := bn254.G1Affine{X: x, Y: y}
		if p.IsOnCurve() && !p.IsInfinity() {
			return p
		}
	}
	// Unreachable for any fixed real-world domain tag; fall back to
	// the canonical generator rather than returning an invalid point.
	return bn254.Generator()
}
