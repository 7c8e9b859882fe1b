// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pedersen

import (
	"strconv"
	"testing"
)

func TestCommitVerifyRoundTrip(t *testing.T) {
	c := New(nil)
	var value, blinding [32]byte
	value[31] = 42
	blinding[31] = 7

	commitment, err := c.Commit(value, blinding)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := c.Verify(commitment, value, blinding)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("commitment should verify against its own opening")
	}
}

func TestVerifyRejectsWrongValue(t *testing.T) {
	c := New(nil)
	var value, wrongValue, blinding [32]byte
	value[31] = 42
	wrongValue[31] = 43
	blinding[31] = 7

	commitment, err := c.Commit(value, blinding)
	if err != nil {
		t.Fatal(err)
	}
	ok, err := c.Verify(commitment, wrongValue, blinding)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("commitment must not verify against the wrong value")
	}
}

func TestHomomorphicAdd(t *testing.T) {
	c := New(nil)
	var v1, v2, r1, r2 [32]byte
	v1[31], v2[31] = 10, 20
	r1[31], r2[31] = 3, 4

	c1, err := c.Commit(v1, r1)
	if err != nil {
		t.Fatal(err)
	}
	c2, err := c.Commit(v2, r2)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := c.Add(c1, c2)
	if err != nil {
		t.Fatal(err)
	}

	var vSum, rSum [32]byte
	vSum[31], rSum[31] = 30, 7
	expected, err := c.Commit(vSum, rSum)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := c.Verify(sum, vSum, rSum)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("sum of commitments must open to sum of values and blindings")
	}
	_ = expected
}

func TestSubCancelsToInfinity(t *testing.T) {
	c := New(nil)
	var v, r [32]byte
	v[31], r[31] = 5, 9
	commitment, err := c.Commit(v, r)
	if err != nil {
		t.Fatal(err)
	}
	diff, err := c.Sub(commitment, commitment)
	if err != nil {
		t.Fatal(err)
	}
	var zero Commitment
	if diff != zero {
		t.Fatal("C - C must encode the point at infinity (all-zero)")
	}
}

func TestVerifyBalance(t *testing.T) {
	c := New(nil)
	var vIn, rIn, vOut1, rOut1, vOut2, rOut2 [32]byte
	vIn[31], rIn[31] = 100, 1
	vOut1[31], rOut1[31] = 60, 1
	vOut2[31], rOut2[31] = 40, 0

	cIn, _ := c.Commit(vIn, rIn)
	cOut1, _ := c.Commit(vOut1, rOut1)
	cOut2, _ := c.Commit(vOut2, rOut2)

	ok, err := c.VerifyBalance([]Commitment{cIn}, []Commitment{cOut1, cOut2})
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("100 = 60 + 40 with matching blinding sums should balance")
	}
}

func TestEvidenceCommitRevealWorkflow(t *testing.T) {
	l := NewEvidenceLedger(New(nil))
	evidence := []byte("dispute-evidence-payload")

	commitment, err := l.Commit("dispute-1", evidence)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := l.Commit("dispute-1", evidence); err != ErrAlreadyCommitted {
		t.Fatalf("expected ErrAlreadyCommitted, got %v", err)
	}

	revealedCommit, blinding, err := l.Reveal("dispute-1", evidence)
	if err != nil {
		t.Fatal(err)
	}
	if revealedCommit != commitment {
		t.Fatal("revealed commitment must match the original")
	}

	ok, err := l.VerifyDisputeRevelation("dispute-1", commitment, evidence, blinding)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("revelation must verify against the commitment")
	}

	if _, _, err := l.Reveal("dispute-1", evidence); err != ErrAlreadyRevealed {
		t.Fatalf("expected ErrAlreadyRevealed, got %v", err)
	}
}

func TestEvidenceRevealWithoutCommitFails(t *testing.T) {
	l := NewEvidenceLedger(New(nil))
	if _, _, err := l.Reveal("missing", []byte("x")); err != ErrNoCommitment {
		t.Fatalf("expected ErrNoCommitment, got %v", err)
	}
}

func TestBatchCommitAndAggregate(t *testing.T) {
	l := NewEvidenceLedger(New(nil))
	evs := [][]byte{[]byte("e1"), []byte("e2"), []byte("e3")}

	agg, blindings, err := l.BatchCommit("dispute-batch", evs)
	if err != nil {
		t.Fatal(err)
	}
	if len(blindings) != 3 {
		t.Fatalf("expected 3 blindings, got %d", len(blindings))
	}

	var zero Commitment
	if agg == zero {
		t.Fatal("aggregate of non-cancelling commitments should not be infinity")
	}

	c := New(nil)
	recombined := Commitment{}
	first := true
	for k, ev := range evs {
		tag := "dispute:dispute-batch:item:" + strconv.Itoa(k)
		value := EvidenceHash(ev, tag)
		commitment, err := c.Commit(value, blindings[k])
		if err != nil {
			t.Fatal(err)
		}
		if first {
			recombined = commitment
			first = false
			continue
		}
		recombined, err = c.Add(recombined, commitment)
		if err != nil {
			t.Fatal(err)
		}
	}
	if recombined != agg {
		t.Fatal("recomputing each item's commitment from its blinding and summing must reproduce the aggregate")
	}
}

func TestBatchCommitItemsAreDomainSeparated(t *testing.T) {
	l := NewEvidenceLedger(New(nil))
	same := [][]byte{[]byte("identical"), []byte("identical")}

	agg, blindings, err := l.BatchCommit("dispute-dup", same)
	if err != nil {
		t.Fatal(err)
	}

	c := New(nil)
	c0, err := c.Commit(EvidenceHash(same[0], "dispute:dispute-dup:item:0"), blindings[0])
	if err != nil {
		t.Fatal(err)
	}
	c1, err := c.Commit(EvidenceHash(same[1], "dispute:dispute-dup:item:1"), blindings[1])
	if err != nil {
		t.Fatal(err)
	}
	if c0 == c1 {
		t.Fatal("identical evidence bytes under different item indices must not produce the same commitment")
	}
	sum, err := c.Add(c0, c1)
	if err != nil {
		t.Fatal(err)
	}
	if sum != agg {
		t.Fatal("sum of the two recomputed item commitments must equal the returned aggregate")
	}
}
