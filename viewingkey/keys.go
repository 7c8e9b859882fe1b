// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package viewingkey

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"

	"github.com/luxfi/rra-core/hashing"
)

// PBKDF2Iterations is the minimum iteration count for at-rest key
// wrapping, chosen to track current OWASP guidance for
// PBKDF2-HMAC-SHA256.
const PBKDF2Iterations = 600_000

const pbkdf2SaltSize = 16

// ErrKeyNotFound is returned when looking up a viewing key for a
// context that has none registered.
var ErrKeyNotFound = errors.New("viewingkey: no key registered for context")

// ErrContextExists is returned when generating a key for a context id
// that already has one.
var ErrContextExists = errors.New("viewingkey: context already has a key")

// ErrInvalidPassword is returned when Unwrap fails to authenticate a
// WrappedKey's ciphertext, meaning the passphrase (or context id) used
// does not match the one it was wrapped with. It is distinct from
// ErrDecryptionFailed, which covers the unrelated ECIES envelope path.
var ErrInvalidPassword = errors.New("viewingkey: incorrect passphrase")

// Purpose scopes what a viewing key is used to decrypt, so the same
// (master secret, context) pair can derive several independent keys
// for different roles within the same dispute.
type Purpose string

const (
	PurposeDisputeEvidence Purpose = "dispute_evidence"
	PurposeLicenseMetadata Purpose = "license_metadata"
	PurposeAuditTrail      Purpose = "audit_trail"
	PurposeComplianceReport Purpose = "compliance_report"
)

// Key is a viewing key: a 32-byte secp256k1 scalar plus the metadata
// needed to manage its lifecycle.
type Key struct {
	ContextID string
	Purpose   Purpose
	Index     int
	Private   [32]byte
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the key has passed its expiry time.
func (k Key) IsExpired(now time.Time) bool {
	return !k.ExpiresAt.IsZero() && now.After(k.ExpiresAt)
}

// Commitment returns a public, non-reversible identifier for the key,
// suitable for recording on-chain or in a log without revealing the
// private scalar.
func (k Key) Commitment() [32]byte {
	return hashing.Hash(hashing.DomainViewingKeyID, []byte(k.ContextID), k.Private[:])
}

// Manager owns a per-context registry of viewing keys, mirroring the
// original ViewingKeyManager's per-dispute key lifecycle.
type Manager struct {
	mu   sync.RWMutex
	keys map[string]*Key

	masterSecret []byte
}

// NewManager creates a Manager whose hierarchical derivation is rooted
// at masterSecret (e.g. an HSM-backed or otherwise securely-provisioned
// root key). masterSecret is never stored in exported state.
func NewManager(masterSecret []byte) *Manager {
	return &Manager{
		keys:         make(map[string]*Key),
		masterSecret: append([]byte(nil), masterSecret...),
	}
}

// GenerateForContext derives a fresh dispute_evidence viewing key for
// contextID via HKDF over the manager's master secret, so the same
// (master secret, contextID) pair always yields the same key —
// recoverable without persisted per-key state as long as the master
// secret is retained. It is GenerateForPurpose with the common-case
// purpose and index.
func (m *Manager) GenerateForContext(contextID string, ttl time.Duration) (*Key, error) {
	return m.GenerateForPurpose(contextID, PurposeDisputeEvidence, 0, ttl)
}

// GenerateForPurpose derives a fresh viewing key for (contextID,
// purpose, index) via hierarchical HKDF over the manager's master
// secret, so the same (master secret, context, purpose, index) tuple
// always yields the same key.
func (m *Manager) GenerateForPurpose(contextID string, purpose Purpose, index int, ttl time.Duration) (*Key, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.keys[contextID]; exists {
		return nil, ErrContextExists
	}

	priv, err := m.derive(purpose, contextID, index)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	key := &Key{
		ContextID: contextID,
		Purpose:   purpose,
		Index:     index,
		Private:   priv,
		CreatedAt: now,
	}
	if ttl > 0 {
		key.ExpiresAt = now.Add(ttl)
	}
	m.keys[contextID] = key
	return key, nil
}

// derive runs HKDF-SHA256 over the master secret, with the fixed salt
// "rra-viewing-key-v1" and info "<purpose>:<context>:<index>", giving
// each (purpose, context, index) tuple an independent-looking but
// deterministically-recoverable 32-byte scalar.
func (m *Manager) derive(purpose Purpose, contextID string, index int) ([32]byte, error) {
	info := fmt.Sprintf("%s:%s:%d", purpose, contextID, index)
	reader := hkdf.New(sha256.New, m.masterSecret, []byte(hashing.DomainViewingKeyDerivation), []byte(info))
	var out [32]byte
	if _, err := io.ReadFull(reader, out[:]); err != nil {
		return [32]byte{}, fmt.Errorf("viewingkey: derive context key: %w", err)
	}
	return out, nil
}

// Get returns the key registered for contextID.
func (m *Manager) Get(contextID string) (*Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.keys[contextID]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return k, nil
}

// ExportForEscrow serializes a key's raw private bytes for handoff to
// Shamir splitting (see package shamir's Escrow, which shares the same
// contextID namespace).
func (m *Manager) ExportForEscrow(contextID string) ([]byte, error) {
	k, err := m.Get(contextID)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 32)
	copy(out, k.Private[:])
	return out, nil
}

// ImportFromEscrow registers a key reconstructed from escrow shares
// under contextID, failing if contextID already has a key.
func (m *Manager) ImportFromEscrow(contextID string, raw []byte) (*Key, error) {
	if len(raw) != 32 {
		return nil, errors.New("viewingkey: escrow import requires exactly 32 bytes")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.keys[contextID]; exists {
		return nil, ErrContextExists
	}
	var priv [32]byte
	copy(priv[:], raw)
	k := &Key{ContextID: contextID, Private: priv, CreatedAt: time.Now()}
	m.keys[contextID] = k
	return k, nil
}

// WrappedKey is a viewing key's at-rest encrypted form: the PBKDF2
// salt, the AES-GCM nonce, and the sealed private-key bytes.
type WrappedKey struct {
	Salt  [pbkdf2SaltSize]byte
	Nonce [nonceSize]byte
	Box   []byte
}

// Wrap encrypts a key's private bytes for storage using a passphrase,
// via PBKDF2-HMAC-SHA256 (PBKDF2Iterations rounds) + AES-256-GCM.
func Wrap(key Key, passphrase []byte) (WrappedKey, error) {
	var salt [pbkdf2SaltSize]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return WrappedKey{}, fmt.Errorf("viewingkey: generate salt: %w", err)
	}

	aesKey := pbkdf2.Key(passphrase, salt[:], PBKDF2Iterations, aesKeySize, sha256.New)
	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return WrappedKey{}, fmt.Errorf("viewingkey: AES cipher init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return WrappedKey{}, err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return WrappedKey{}, fmt.Errorf("viewingkey: generate nonce: %w", err)
	}

	box := aead.Seal(nil, nonce[:], key.Private[:], []byte(key.ContextID))
	return WrappedKey{Salt: salt, Nonce: nonce, Box: box}, nil
}

// Unwrap decrypts a WrappedKey back into its raw 32-byte private
// scalar, given the same passphrase and contextID used to Wrap it.
func Unwrap(w WrappedKey, contextID string, passphrase []byte) ([32]byte, error) {
	aesKey := pbkdf2.Key(passphrase, w.Salt[:], PBKDF2Iterations, aesKeySize, sha256.New)
	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return [32]byte{}, fmt.Errorf("viewingkey: AES cipher init: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return [32]byte{}, err
	}

	plaintext, err := aead.Open(nil, w.Nonce[:], w.Box, []byte(contextID))
	if err != nil {
		return [32]byte{}, ErrInvalidPassword
	}
	var out [32]byte
	copy(out[:], plaintext)
	return out, nil
}
