// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package poseidon

import "testing"

func TestHashDeterministic(t *testing.T) {
	var a, b [32]byte
	a[0] = 1
	b[0] = 2
	h1, err := Hash(a, b)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Hash(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Fatal("Hash must be deterministic")
	}
}

func TestHashDiffersByInput(t *testing.T) {
	var a, b, c [32]byte
	a[0], b[0], c[0] = 1, 2, 3
	h1, _ := Hash(a, b)
	h2, _ := Hash(a, c)
	if h1 == h2 {
		t.Fatal("different inputs must (overwhelmingly) produce different hashes")
	}
}

func TestHashRejectsTooMany(t *testing.T) {
	inputs := make([][32]byte, maxInputs+1)
	_, err := Hash(inputs...)
	if err != ErrTooManyInputs {
		t.Fatalf("expected ErrTooManyInputs, got %v", err)
	}
}

func TestHashRejectsEmpty(t *testing.T) {
	_, err := Hash()
	if err != ErrNoInputs {
		t.Fatalf("expected ErrNoInputs, got %v", err)
	}
}

func TestMerkleRootAndProof(t *testing.T) {
	leaves := make([][32]byte, 4)
	for i := range leaves {
		leaves[i][0] = byte(i + 1)
	}
	root, err := MerkleRoot(leaves)
	if err != nil {
		t.Fatal(err)
	}

	for i := range leaves {
		proof, isLeft, err := MerkleProof(leaves, i)
		if err != nil {
			t.Fatal(err)
		}
		ok, err := VerifyMerkleProof(leaves[i], proof, isLeft, root)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatalf("proof for leaf %d did not verify", i)
		}
	}
}

func TestMerkleProofRejectsWrongLeaf(t *testing.T) {
	leaves := make([][32]byte, 4)
	for i := range leaves {
		leaves[i][0] = byte(i + 1)
	}
	root, err := MerkleRoot(leaves)
	if err != nil {
		t.Fatal(err)
	}
	proof, isLeft, err := MerkleProof(leaves, 0)
	if err != nil {
		t.Fatal(err)
	}
	var wrong [32]byte
	wrong[0] = 99
	ok, err := VerifyMerkleProof(wrong, proof, isLeft, root)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("proof must not verify against a different leaf")
	}
}

func TestHasherCachesResults(t *testing.T) {
	h := NewHasher(nil)
	var a, b [32]byte
	a[0], b[0] = 5, 6

	if _, err := h.Hash(a, b); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Hash(a, b); err != nil {
		t.Fatal(err)
	}

	total, hits, misses := h.Stats()
	if total != 1 {
		t.Fatalf("expected 1 total hash, got %d", total)
	}
	if hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got hits=%d misses=%d", hits, misses)
	}
}
