// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package viewingkey

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/hkdf"

	"github.com/luxfi/rra-core/hashing"

	logpkg "github.com/luxfi/log"
)

// ErrInvalidRecipientKey is returned when the recipient public key is
// malformed or not on the curve.
var ErrInvalidRecipientKey = errors.New("viewingkey: invalid recipient public key")

// ErrDecryptionFailed is returned when AES-GCM authentication fails or
// the key-commitment does not match the decrypting private key.
var ErrDecryptionFailed = errors.New("viewingkey: decryption failed")

// aesKeySize is 32 bytes for AES-256.
const aesKeySize = 32

// Engine performs ECIES encryption/decryption for a single recipient
// key pair, maintaining a monotonic nonce counter so that no two
// messages encrypted under the same ephemeral-to-recipient shared
// secret ever reuse a nonce.
type Engine struct {
	mu      sync.Mutex
	counter uint32
	log     logpkg.Logger
}

// NewEngine creates an Engine with a fresh nonce counter.
func NewEngine(log logpkg.Logger) *Engine {
	return &Engine{log: log}
}

// nextNonce produces 8 random bytes followed by the engine's 4-byte
// big-endian monotonic counter, then advances the counter.
func (e *Engine) nextNonce() ([nonceSize]byte, error) {
	var n [nonceSize]byte
	if _, err := rand.Read(n[:8]); err != nil {
		return n, fmt.Errorf("viewingkey: generate nonce randomness: %w", err)
	}

	e.mu.Lock()
	binary.BigEndian.PutUint32(n[8:], e.counter)
	e.counter++
	e.mu.Unlock()

	return n, nil
}

// Encrypt encrypts plaintext for recipientPub (a 33-byte compressed
// secp256k1 public key): a fresh ephemeral key pair is generated, ECDH
// derives a shared secret, HKDF-SHA256 derives the AES-256 key, and
// the result is sealed with AES-256-GCM. The envelope's key-commitment
// field is keccak(recipientPub), letting a decrypting party quickly
// confirm a ciphertext was addressed to them before attempting an
// expensive ECDH.
func (e *Engine) Encrypt(recipientPub []byte, plaintext, associatedData []byte) (Envelope, error) {
	recipient, err := secp256k1.ParsePubKey(recipientPub)
	if err != nil {
		return Envelope{}, ErrInvalidRecipientKey
	}

	ephPriv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return Envelope{}, fmt.Errorf("viewingkey: generate ephemeral key: %w", err)
	}
	ephPub := ephPriv.PubKey()

	ephPub64 := uncompressedXY(ephPub)

	shared := ecdh(ephPriv, recipient)
	aesKey, err := deriveAESKey(shared, ephPub64)
	if err != nil {
		return Envelope{}, err
	}

	nonce, err := e.nextNonce()
	if err != nil {
		return Envelope{}, err
	}

	aead, err := newGCM(aesKey)
	if err != nil {
		return Envelope{}, err
	}
	ciphertext := aead.Seal(nil, nonce[:], plaintext, associatedData)

	commitment := hashing.Hash(hashing.DomainKeyCommitment, recipientPub)

	return Envelope{
		EphemeralPubKey: ephPub64[:],
		Nonce:           nonce,
		Ciphertext:      ciphertext,
		KeyCommitment:   commitment,
	}, nil
}

// Decrypt decrypts env using recipientPriv (32-byte secp256k1 scalar),
// first verifying the envelope's key-commitment matches this key's
// public key so a caller never burns an ECDH on a clearly-misaddressed
// message.
func (e *Engine) Decrypt(recipientPriv []byte, env Envelope, associatedData []byte) ([]byte, error) {
	priv := secp256k1.PrivKeyFromBytes(recipientPriv)
	pub := priv.PubKey().SerializeCompressed()

	expectedCommitment := hashing.Hash(hashing.DomainKeyCommitment, pub)
	if subtle.ConstantTimeCompare(expectedCommitment[:], env.KeyCommitment[:]) != 1 {
		return nil, ErrDecryptionFailed
	}

	ephPub, err := parseUncompressedXY(env.EphemeralPubKey)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	var ephPub64 [64]byte
	copy(ephPub64[:], env.EphemeralPubKey)

	shared := ecdh(priv, ephPub)
	aesKey, err := deriveAESKey(shared, ephPub64)
	if err != nil {
		return nil, err
	}

	aead, err := newGCM(aesKey)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, env.Nonce[:], env.Ciphertext, associatedData)
	if err != nil {
		if e.log != nil {
			e.log.Debug("viewingkey: AES-GCM authentication failed")
		}
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// ecdh performs scalar multiplication of priv with pub and returns the
// x-coordinate of the resulting point as a 32-byte big-endian value,
// the standard ECDH shared-secret convention.
func ecdh(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) []byte {
	var pt secp256k1.JacobianPoint
	pub.AsJacobian(&pt)

	var result secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&priv.Key, &pt, &result)
	result.ToAffine()

	xBytes := result.X.Bytes()
	return xBytes[:]
}

// deriveAESKey runs HKDF-SHA256 over the ECDH shared secret to
// produce a 32-byte AES-256 key. salt is the first 16 bytes of the
// ephemeral public key's canonical 64-byte x||y encoding, binding the
// derived key to the specific ephemeral point used for this
// encryption; info is the fixed spec domain tag for ECIES envelope
// encryption.
func deriveAESKey(shared []byte, ephPub64 [64]byte) ([]byte, error) {
	salt := ephPub64[:16]
	reader := hkdf.New(sha256.New, shared, salt, []byte(hashing.DomainViewingKeyEncryption))
	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("viewingkey: HKDF key derivation: %w", err)
	}
	return key, nil
}

// uncompressedXY returns pub's canonical 64-byte x||y encoding: the
// 65-byte SEC1 uncompressed form with its leading 0x04 tag stripped.
func uncompressedXY(pub *secp256k1.PublicKey) [64]byte {
	var out [64]byte
	copy(out[:], pub.SerializeUncompressed()[1:])
	return out
}

// parseUncompressedXY parses a 64-byte x||y encoding back into a
// public key by re-attaching the 0x04 SEC1 uncompressed-point tag.
func parseUncompressedXY(xy []byte) (*secp256k1.PublicKey, error) {
	if len(xy) != 64 {
		return nil, errors.New("viewingkey: ephemeral public key must be 64 bytes")
	}
	var sec1 [65]byte
	sec1[0] = 0x04
	copy(sec1[1:], xy)
	return secp256k1.ParsePubKey(sec1[:])
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("viewingkey: AES cipher init: %w", err)
	}
	return cipher.NewGCM(block)
}
