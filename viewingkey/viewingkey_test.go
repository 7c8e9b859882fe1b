// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package viewingkey

import (
	"bytes"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey().SerializeCompressed()

	engine := NewEngine(nil)
	plaintext := []byte("hello viewing key")
	aad := []byte("context-1")

	env, err := engine.Encrypt(pub, plaintext, aad)
	require.NoError(t, err)

	out, err := engine.Decrypt(priv.Serialize(), env, aad)
	require.NoError(t, err)
	require.Equal(t, plaintext, out)
}

func TestDecryptFailsWithWrongKey(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey().SerializeCompressed()

	otherPriv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)

	engine := NewEngine(nil)
	env, err := engine.Encrypt(pub, []byte("secret"), nil)
	require.NoError(t, err)

	_, err = engine.Decrypt(otherPriv.Serialize(), env, nil)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDecryptFailsWithTamperedCiphertext(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey().SerializeCompressed()

	engine := NewEngine(nil)
	env, err := engine.Encrypt(pub, []byte("secret"), nil)
	require.NoError(t, err)

	env.Ciphertext[0] ^= 0xFF
	_, err = engine.Decrypt(priv.Serialize(), env, nil)
	require.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEnvelopeBytesRoundTrip(t *testing.T) {
	priv, err := secp256k1.GeneratePrivateKey()
	require.NoError(t, err)
	pub := priv.PubKey().SerializeCompressed()

	engine := NewEngine(nil)
	env, err := engine.Encrypt(pub, []byte("round trip"), nil)
	require.NoError(t, err)

	data := env.Bytes()
	parsed, err := EnvelopeFromBytes(data)
	require.NoError(t, err)

	require.True(t, bytes.Equal(env.EphemeralPubKey, parsed.EphemeralPubKey))
	require.Equal(t, env.Nonce, parsed.Nonce)
	require.True(t, bytes.Equal(env.Ciphertext, parsed.Ciphertext))
	require.Equal(t, env.KeyCommitment, parsed.KeyCommitment)
}

func TestManagerGenerateAndGet(t *testing.T) {
	m := NewManager([]byte("master-secret-for-tests"))
	key, err := m.GenerateForContext("dispute-1", time.Hour)
	require.NoError(t, err)

	got, err := m.Get("dispute-1")
	require.NoError(t, err)
	require.Equal(t, key.Private, got.Private)

	_, err = m.GenerateForContext("dispute-1", time.Hour)
	require.ErrorIs(t, err, ErrContextExists)
}

func TestManagerDerivationIsDeterministic(t *testing.T) {
	secret := []byte("master-secret-for-tests")
	m1 := NewManager(secret)
	m2 := NewManager(secret)

	k1, err := m1.GenerateForContext("ctx", 0)
	require.NoError(t, err)
	k2, err := m2.GenerateForContext("ctx", 0)
	require.NoError(t, err)

	require.Equal(t, k1.Private, k2.Private)
}

func TestGenerateForPurposeIsDomainSeparated(t *testing.T) {
	secret := []byte("master-secret-for-tests")
	m := NewManager(secret)

	k1, err := m.GenerateForPurpose("ctx-a", PurposeDisputeEvidence, 0, 0)
	require.NoError(t, err)

	m2 := NewManager(secret)
	k2, err := m2.GenerateForPurpose("ctx-a", PurposeAuditTrail, 0, 0)
	require.NoError(t, err)

	require.NotEqual(t, k1.Private, k2.Private)

	m3 := NewManager(secret)
	k3, err := m3.GenerateForPurpose("ctx-a", PurposeDisputeEvidence, 1, 0)
	require.NoError(t, err)
	require.NotEqual(t, k1.Private, k3.Private)
}

func TestEscrowExportImport(t *testing.T) {
	m := NewManager([]byte("master-secret"))
	original, err := m.GenerateForContext("ctx-escrow", 0)
	require.NoError(t, err)

	raw, err := m.ExportForEscrow("ctx-escrow")
	require.NoError(t, err)

	m2 := NewManager([]byte("different-secret"))
	restored, err := m2.ImportFromEscrow("ctx-escrow", raw)
	require.NoError(t, err)
	require.Equal(t, original.Private, restored.Private)
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	key := Key{ContextID: "ctx-wrap", Private: [32]byte{1, 2, 3, 4}}
	passphrase := []byte("correct horse battery staple")

	wrapped, err := Wrap(key, passphrase)
	require.NoError(t, err)

	restored, err := Unwrap(wrapped, "ctx-wrap", passphrase)
	require.NoError(t, err)
	require.Equal(t, key.Private, restored)
}

func TestUnwrapFailsWithWrongPassphrase(t *testing.T) {
	key := Key{ContextID: "ctx-wrap", Private: [32]byte{1, 2, 3, 4}}
	wrapped, err := Wrap(key, []byte("correct"))
	require.NoError(t, err)

	_, err = Unwrap(wrapped, "ctx-wrap", []byte("wrong"))
	require.ErrorIs(t, err, ErrInvalidPassword)
}
