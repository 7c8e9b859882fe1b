// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package bn254

import "math/big"

// G1Jac is a G1 point in Jacobian coordinates (X, Y, Z) representing
// the affine point (X/Z^2, Y/Z^3). The point at infinity is Z == 0.
type G1Jac struct {
	X, Y, Z Element
}

// G1Affine is a G1 point in affine coordinates. The point at infinity
// is represented by X == Y == 0, which is not a solution of
// y^2 = x^3 + 3 and is therefore an unambiguous sentinel.
type G1Affine struct {
	X, Y Element
}

// Infinity returns the point at infinity in affine form.
func Infinity() G1Affine { return G1Affine{} }

// IsInfinity reports whether p is the point at infinity.
func (p G1Affine) IsInfinity() bool { return p.X.IsZero() && p.Y.IsZero() }

// Generator returns the canonical BN254 G1 generator (1, 2).
func Generator() G1Affine {
	return G1Affine{X: One(), Y: One().Add(One())}
}

// IsOnCurve reports whether p satisfies y^2 = x^3 + 3, treating the
// point at infinity as valid.
func (p G1Affine) IsOnCurve() bool {
	if p.IsInfinity() {
		return true
	}
	lhs := p.Y.Square()
	rhs := p.X.Square().Mul(p.X).Add(NewElementFromBig(big.NewInt(curveB)))
	return lhs.Equal(rhs)
}

// Equal reports whether p and o represent the same affine point.
func (p G1Affine) Equal(o G1Affine) bool {
	return p.X.Equal(o.X) && p.Y.Equal(o.Y)
}

// Neg returns the negation of p.
func (p G1Affine) Neg() G1Affine {
	if p.IsInfinity() {
		return p
	}
	return G1Affine{X: p.X, Y: p.Y.Neg()}
}

// ToJacobian lifts an affine point to Jacobian coordinates.
func (p G1Affine) ToJacobian() G1Jac {
	if p.IsInfinity() {
		return G1Jac{}
	}
	return G1Jac{X: p.X, Y: p.Y, Z: One()}
}

// ToAffine converts a Jacobian point back to affine coordinates.
func (p G1Jac) ToAffine() G1Affine {
	if p.Z.IsZero() {
		return Infinity()
	}
	zInv := p.Z.Inverse()
	zInv2 := zInv.Square()
	zInv3 := zInv2.Mul(zInv)
	return G1Affine{X: p.X.Mul(zInv2), Y: p.Y.Mul(zInv3)}
}

// Double returns 2*p using the standard Jacobian doubling formula for
// a == 0 short-Weierstrass curves.
func (p G1Jac) Double() G1Jac {
	if p.Z.IsZero() || p.Y.IsZero() {
		return G1Jac{}
	}
	// A = X^2, B = Y^2, C = B^2
	a := p.X.Square()
	b := p.Y.Square()
	c := b.Square()

	// D = 2*((X+B)^2 - A - C)
	xPlusB := p.X.Add(b)
	d := xPlusB.Square().Sub(a).Sub(c)
	d = d.Add(d)

	// E = 3*A, F = E^2
	e := a.Add(a).Add(a)
	f := e.Square()

	// X3 = F - 2*D
	x3 := f.Sub(d).Sub(d)

	// Y3 = E*(D - X3) - 8*C
	eightC := c.Add(c)
	eightC = eightC.Add(eightC)
	eightC = eightC.Add(eightC)
	y3 := e.Mul(d.Sub(x3)).Sub(eightC)

	// Z3 = 2*Y*Z
	z3 := p.Y.Mul(p.Z)
	z3 = z3.Add(z3)

	return G1Jac{X: x3, Y: y3, Z: z3}
}

// Add returns p + q using the standard Jacobian addition formula,
// falling back to Double when the operands coincide and to the
// non-trivial operand when either is the point at infinity.
func (p G1Jac) Add(q G1Jac) G1Jac {
	if p.Z.IsZero() {
		return q
	}
	if q.Z.IsZero() {
		return p
	}

	z1z1 := p.Z.Square()
	z2z2 := q.Z.Square()

	u1 := p.X.Mul(z2z2)
	u2 := q.X.Mul(z1z1)

	s1 := p.Y.Mul(q.Z).Mul(z2z2)
	s2 := q.Y.Mul(p.Z).Mul(z1z1)

	if u1.Equal(u2) {
		if !s1.Equal(s2) {
			// p == -q
			return G1Jac{}
		}
		return p.Double()
	}

	h := u2.Sub(u1)
	i := h.Add(h).Square()
	j := h.Mul(i)
	r := s2.Sub(s1)
	r = r.Add(r)
	v := u1.Mul(i)

	x3 := r.Square().Sub(j).Sub(v).Sub(v)
	y3 := r.Mul(v.Sub(x3)).Sub(s1.Mul(j).Add(s1.Mul(j)))
	z3 := p.Z.Add(q.Z).Square().Sub(z1z1).Sub(z2z2).Mul(h)

	return G1Jac{X: x3, Y: y3, Z: z3}
}

// ScalarMul computes k*p via double-and-add, processing k's bits from
// most to least significant. k is reduced mod N first; k == 0 or
// p == infinity yields the point at infinity.
func ScalarMul(p G1Affine, k *big.Int) G1Affine {
	kk := new(big.Int).Mod(k, N)
	if kk.Sign() == 0 || p.IsInfinity() {
		return Infinity()
	}

	acc := G1Jac{}
	base := p.ToJacobian()
	for i := kk.BitLen() - 1; i >= 0; i-- {
		acc = acc.Double()
		if kk.Bit(i) == 1 {
			acc = acc.Add(base)
		}
	}
	return acc.ToAffine()
}

// AddAffine returns p + q in affine coordinates.
func AddAffine(p, q G1Affine) G1Affine {
	return p.ToJacobian().Add(q.ToJacobian()).ToAffine()
}

// SubAffine returns p - q in affine coordinates.
func SubAffine(p, q G1Affine) G1Affine {
	return AddAffine(p, q.Neg())
}

// Marshal encodes p as 64 bytes: X (32 bytes big-endian) followed by
// Y (32 bytes big-endian). The point at infinity encodes as 64 zero
// bytes.
func (p G1Affine) Marshal() []byte {
	out := make([]byte, 64)
	xb := p.X.Bytes()
	yb := p.Y.Bytes()
	copy(out[0:32], xb[:])
	copy(out[32:64], yb[:])
	return out
}

// Unmarshal decodes a 64-byte affine encoding produced by Marshal,
// validating the result lies on the curve (or is the infinity
// sentinel).
func Unmarshal(data []byte) (G1Affine, error) {
	if len(data) != 64 {
		return G1Affine{}, ErrInvalidEncoding
	}
	p := G1Affine{
		X: NewElement(data[0:32]),
		Y: NewElement(data[32:64]),
	}
	if !p.IsOnCurve() {
		return G1Affine{}, ErrNotOnCurve
	}
	return p, nil
}
