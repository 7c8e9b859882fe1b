// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package viewingkey implements ECIES-based viewing keys: ephemeral
// ECDH key agreement on secp256k1, HKDF-SHA256 key derivation,
// AES-256-GCM authenticated encryption, hierarchical key derivation
// from a master secret, and PBKDF2-protected at-rest export.
package viewingkey

import (
	"encoding/binary"
	"encoding/json"
	"errors"
)

// ErrMalformedEnvelope is returned when decoding a wire envelope that
// is too short or internally inconsistent.
var ErrMalformedEnvelope = errors.New("viewingkey: malformed envelope")

// nonceSize is the AES-GCM nonce length: 8 random bytes followed by a
// 4-byte big-endian monotonic counter, giving a per-key nonce that
// cannot repeat before 2^32 encryptions under the same key.
const nonceSize = 12

// Envelope is the self-describing wire format for an ECIES-encrypted
// message: the ephemeral public key used for ECDH, the AES-GCM nonce,
// the ciphertext (with its authentication tag appended, as
// cipher.AEAD.Seal produces), and a key-commitment binding the
// envelope to the intended recipient.
type Envelope struct {
	EphemeralPubKey []byte `json:"ephemeral_pubkey"`
	Nonce           [nonceSize]byte `json:"nonce"`
	Ciphertext      []byte `json:"ciphertext"`
	KeyCommitment   [32]byte `json:"key_commitment"`
}

// Bytes serializes the envelope as
// len(pubkey)(2) || pubkey || nonce(12) || key_commitment(32) || ciphertext.
func (e Envelope) Bytes() []byte {
	out := make([]byte, 0, 2+len(e.EphemeralPubKey)+nonceSize+32+len(e.Ciphertext))
	var pkLen [2]byte
	binary.BigEndian.PutUint16(pkLen[:], uint16(len(e.EphemeralPubKey)))
	out = append(out, pkLen[:]...)
	out = append(out, e.EphemeralPubKey...)
	out = append(out, e.Nonce[:]...)
	out = append(out, e.KeyCommitment[:]...)
	out = append(out, e.Ciphertext...)
	return out
}

// EnvelopeFromBytes parses the format written by Envelope.Bytes.
func EnvelopeFromBytes(data []byte) (Envelope, error) {
	if len(data) < 2 {
		return Envelope{}, ErrMalformedEnvelope
	}
	pkLen := int(binary.BigEndian.Uint16(data[:2]))
	rest := data[2:]
	if len(rest) < pkLen+nonceSize+32 {
		return Envelope{}, ErrMalformedEnvelope
	}

	var e Envelope
	e.EphemeralPubKey = append([]byte(nil), rest[:pkLen]...)
	rest = rest[pkLen:]
	copy(e.Nonce[:], rest[:nonceSize])
	rest = rest[nonceSize:]
	copy(e.KeyCommitment[:], rest[:32])
	rest = rest[32:]
	e.Ciphertext = append([]byte(nil), rest...)
	return e, nil
}

// MarshalJSON mirrors the original's EncryptedData.to_dict, emitting
// fixed-size fields as hex so the envelope round-trips through JSON
// configs/logs unambiguously.
func (e Envelope) MarshalJSON() ([]byte, error) {
	aux := struct {
		EphemeralPubKey string `json:"ephemeral_pubkey"`
		Nonce           string `json:"nonce"`
		Ciphertext      string `json:"ciphertext"`
		KeyCommitment   string `json:"key_commitment"`
	}{
		EphemeralPubKey: hexString(e.EphemeralPubKey),
		Nonce:           hexString(e.Nonce[:]),
		Ciphertext:      hexString(e.Ciphertext),
		KeyCommitment:   hexString(e.KeyCommitment[:]),
	}
	return json.Marshal(aux)
}

func hexString(b []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hextable[c>>4]
		out[i*2+1] = hextable[c&0x0f]
	}
	return string(out)
}
