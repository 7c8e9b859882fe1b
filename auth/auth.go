// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package auth implements challenge-response DID authentication:
// issuing single-use challenges, verifying them per DID method,
// minting bearer-token sessions, and gating higher-trust operations
// behind an optional sybil-resistance identity score.
package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/luxfi/rra-core/did"

	logpkg "github.com/luxfi/log"
)

// ScoreProvider is the external sybil-resistance collaborator this
// package consults when a caller asks for identity-score gating. It
// is never implemented in this module: scores come from proofs of
// humanity, stake, account age, activity, and reputation gathered
// elsewhere.
type ScoreProvider interface {
	GetIdentityScore(did string) (score float64, err error)
}

// AuthResult is the outcome of a successful challenge verification.
type AuthResult struct {
	Success       bool
	DID           string
	Session       *AuthSession
	IdentityScore *float64
}

// Authenticator issues and verifies DID challenges and manages the
// resulting session lifecycle.
type Authenticator struct {
	resolver *did.Registry
	store    *store

	challengeTTL time.Duration
	sessionTTL   time.Duration

	scoreProvider ScoreProvider
	minScore      *float64

	log logpkg.Logger
}

// NewAuthenticator creates an Authenticator dispatching DID
// resolution through resolver, with the default challenge and
// session TTLs.
func NewAuthenticator(resolver *did.Registry, log logpkg.Logger) *Authenticator {
	return &Authenticator{
		resolver:     resolver,
		store:        newStore(),
		challengeTTL: DefaultChallengeTTL,
		sessionTTL:   DefaultSessionTTL,
		log:          log,
	}
}

// WithScoreGate attaches a sybil-resistance ScoreProvider and a
// minimum identity score required to complete verification.
func (a *Authenticator) WithScoreGate(provider ScoreProvider, minScore float64) *Authenticator {
	a.scoreProvider = provider
	a.minScore = &minScore
	return a
}

// CreateChallenge resolves did and, on success, issues a fresh
// AuthChallenge with a random 32-byte nonce.
func (a *Authenticator) CreateChallenge(didStr, message string) (*AuthChallenge, error) {
	if _, err := a.resolver.Resolve(didStr); err != nil {
		if a.log != nil {
			a.log.Debug("did resolution failed", "did", didStr, "error", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrDIDResolution, err)
	}

	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	now := time.Now()
	c := &AuthChallenge{
		ID:        randomID(),
		DID:       didStr,
		Nonce:     nonce,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(a.challengeTTL),
	}
	a.store.putChallenge(c)
	return c, nil
}

// VerifyChallenge takes a challenge, removing it in every terminal
// case (success or expiration, per single-use semantics), checks the
// signature against the challenge's DID, and on success creates a
// verified session scoped to scopes.
func (a *Authenticator) VerifyChallenge(challengeID string, signature []byte, scopes []string) (*AuthResult, error) {
	challenge, err := a.store.takeChallenge(challengeID)
	if err != nil {
		return nil, err
	}

	doc, err := a.resolver.Resolve(challenge.DID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDIDResolution, err)
	}

	if err := verifySignature(challenge.DID, doc, challenge.SignBytes(), signature); err != nil {
		if a.log != nil {
			a.log.Debug("signature verification failed", "did", challenge.DID, "error", err)
		}
		return nil, err
	}

	var score *float64
	if a.scoreProvider != nil {
		s, err := a.scoreProvider.GetIdentityScore(challenge.DID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDIDResolution, err)
		}
		score = &s
		if a.minScore != nil && s < *a.minScore {
			return nil, ErrInsufficientScore
		}
	}

	now := time.Now()
	scopeSet := make(map[string]struct{}, len(scopes))
	for _, s := range scopes {
		scopeSet[s] = struct{}{}
	}

	sess := &AuthSession{
		ID:            randomID(),
		DID:           challenge.DID,
		ChallengeID:   challenge.ID,
		CreatedAt:     now,
		ExpiresAt:     now.Add(a.sessionTTL),
		IdentityScore: score,
		Scopes:        scopeSet,
		Status:        StatusVerified,
	}
	a.store.putSession(sess)

	return &AuthResult{Success: true, DID: challenge.DID, Session: sess, IdentityScore: score}, nil
}

// IssueBearerToken mints the bearer token for a verified session.
func (a *Authenticator) IssueBearerToken(sess *AuthSession) (string, error) {
	return a.store.issueToken(sess)
}

// Authenticate parses and validates a bearer token and returns the
// session it names, failing closed on any malformed token, expired
// token, or a session that is no longer in a verified, unexpired
// state.
func (a *Authenticator) Authenticate(token string) (*AuthSession, error) {
	sessionID, err := a.store.parseToken(token)
	if err != nil {
		return nil, err
	}
	sess, err := a.store.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.IsValid(time.Now()) {
		return nil, ErrSessionInvalid
	}
	return sess, nil
}

// RequireScope fails with ErrInsufficientScope unless sess grants
// scope.
func RequireScope(sess *AuthSession, scope string) error {
	if !sess.HasScope(scope) {
		return ErrInsufficientScope
	}
	return nil
}

// Cleanup evicts expired challenges and sessions, returning the
// count of each removed.
func (a *Authenticator) Cleanup(now time.Time) (expiredChallenges, expiredSessions int) {
	return a.store.cleanup(now)
}

// verifySignature dispatches signature verification by the DID
// method's key type: did:ethr verifies via EIP-191 ECDSA recovery
// against the address encoded in the DID, while did:web/did:key
// verify directly against the public key asserted in the resolved
// document.
func verifySignature(didStr string, doc *did.Document, signBytes, signature []byte) error {
	method, _, err := did.Parse(didStr)
	if err != nil {
		return err
	}

	switch method {
	case "ethr":
		return verifyEthrRecovery(doc, signBytes, signature)
	default:
		return verifyAgainstDocument(doc, signBytes, signature)
	}
}

// eip191Hash computes keccak256("\x19Ethereum Signed Message:\n" +
// len(message) + message), the digest an EIP-191 personal_sign
// signature is taken over.
func eip191Hash(message []byte) [32]byte {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(message))
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(prefix))
	h.Write(message)
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// verifyEthrRecovery recovers the signer's address from a 65-byte
// compact recoverable signature over the EIP-191 digest of signBytes
// and compares it, case-insensitively, to the address in doc.
func verifyEthrRecovery(doc *did.Document, signBytes, signature []byte) error {
	if len(signature) != 65 {
		return ErrInvalidSignature
	}
	if len(doc.VerificationMethods) == 0 {
		return ErrInvalidSignature
	}
	expectedAddr := doc.VerificationMethods[0].PublicKey

	digest := eip191Hash(signBytes)

	// dcrd's compact format is [recovery_id || r || s]; Ethereum's
	// conventional [r || s || v] layout puts the recovery id last, so
	// rotate it to the front before recovering.
	compact := make([]byte, 65)
	compact[0] = normalizeRecoveryID(signature[64])
	copy(compact[1:], signature[:64])

	pub, _, err := dcrecdsa.RecoverCompact(compact, digest[:])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	addr := ethAddress(pub)
	if !strings.EqualFold(hexEncode(addr), hexEncode(expectedAddr)) {
		return ErrInvalidSignature
	}
	return nil
}

// normalizeRecoveryID maps Ethereum's {0,1} or {27,28} recovery id
// convention onto dcrd's expected {0,1} (offset by its own internal
// compact-signature header).
func normalizeRecoveryID(v byte) byte {
	if v >= 27 {
		v -= 27
	}
	return v + 27
}

// ethAddress derives the 20-byte Ethereum-style address from an
// uncompressed secp256k1 public key: the low 20 bytes of
// keccak256(x||y).
func ethAddress(pub *secp256k1.PublicKey) []byte {
	uncompressed := pub.SerializeUncompressed()
	h := sha3.NewLegacyKeccak256()
	h.Write(uncompressed[1:]) // strip the 0x04 prefix
	digest := h.Sum(nil)
	return digest[len(digest)-20:]
}

func hexEncode(b []byte) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0xf]
	}
	return string(out)
}

// verifyAgainstDocument verifies signature over signBytes directly
// against the public key material asserted in doc, dispatching on
// the verification method's key type (Ed25519 or secp256k1).
func verifyAgainstDocument(doc *did.Document, signBytes, signature []byte) error {
	if len(doc.VerificationMethods) == 0 {
		return ErrInvalidSignature
	}
	vm := doc.VerificationMethods[0]

	switch vm.Type {
	case "Ed25519VerificationKey2020":
		if len(vm.PublicKey) != ed25519.PublicKeySize {
			return ErrInvalidSignature
		}
		if !ed25519.Verify(ed25519.PublicKey(vm.PublicKey), signBytes, signature) {
			return ErrInvalidSignature
		}
		return nil
	case "EcdsaSecp256k1VerificationKey2019":
		pub, err := secp256k1.ParsePubKey(vm.PublicKey)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		sig, err := dcrecdsa.ParseDERSignature(signature)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		digest := eip191Hash(signBytes)
		if !sig.Verify(digest[:], pub) {
			return ErrInvalidSignature
		}
		return nil
	default:
		return fmt.Errorf("%w: unsupported verification method type %q", ErrInvalidSignature, vm.Type)
	}
}

// randomID returns a fresh 16-byte hex-encoded identifier, used for
// both challenge and session ids.
func randomID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("auth: failed to generate random id: " + err.Error())
	}
	return hexEncode(b[:])
}
