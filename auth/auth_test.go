// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/luxfi/rra-core/did"
)

// ethrSignerDID builds a did:ethr identifier and matching private key
// whose address is exactly the key material an EthrResolver returns.
func ethrSignerDID(t *testing.T) (string, *secp256k1.PrivateKey) {
	t.Helper()
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		t.Fatal(err)
	}
	addr := ethAddress(priv.PubKey())
	return "did:ethr:0x" + hexEncode(addr), priv
}

// ethSign produces an Ethereum-conventional r||s||v signature over
// signBytes via the EIP-191 digest.
func ethSign(priv *secp256k1.PrivateKey, signBytes []byte) []byte {
	digest := eip191Hash(signBytes)
	compact := dcrecdsa.SignCompact(priv, digest[:], false)
	out := make([]byte, 65)
	copy(out[:64], compact[1:])
	out[64] = compact[0]
	return out
}

func newTestAuthenticator() *Authenticator {
	reg := did.NewRegistry()
	reg.Register("ethr", did.EthrResolver{})
	return NewAuthenticator(reg, nil)
}

func TestChallengeResponseEthrSucceeds(t *testing.T) {
	a := newTestAuthenticator()
	didStr, priv := ethrSignerDID(t)

	challenge, err := a.CreateChallenge(didStr, "login")
	if err != nil {
		t.Fatal(err)
	}

	sig := ethSign(priv, challenge.SignBytes())
	result, err := a.VerifyChallenge(challenge.ID, sig, []string{"dispute:read"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Success || result.DID != didStr {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Session.Status != StatusVerified {
		t.Fatalf("expected verified session, got %s", result.Session.Status)
	}
}

func TestChallengeIsSingleUse(t *testing.T) {
	a := newTestAuthenticator()
	didStr, priv := ethrSignerDID(t)

	challenge, err := a.CreateChallenge(didStr, "login")
	if err != nil {
		t.Fatal(err)
	}
	sig := ethSign(priv, challenge.SignBytes())

	if _, err := a.VerifyChallenge(challenge.ID, sig, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := a.VerifyChallenge(challenge.ID, sig, nil); err != ErrChallengeNotFound {
		t.Fatalf("expected ErrChallengeNotFound on replay, got %v", err)
	}
}

func TestVerifyRejectsWrongSigner(t *testing.T) {
	a := newTestAuthenticator()
	didStr, _ := ethrSignerDID(t)
	_, otherPriv := ethrSignerDID(t)

	challenge, err := a.CreateChallenge(didStr, "login")
	if err != nil {
		t.Fatal(err)
	}
	sig := ethSign(otherPriv, challenge.SignBytes())

	if _, err := a.VerifyChallenge(challenge.ID, sig, nil); err != ErrInvalidSignature {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyExpiredChallenge(t *testing.T) {
	a := newTestAuthenticator()
	a.challengeTTL = 1 * time.Millisecond
	didStr, priv := ethrSignerDID(t)

	challenge, err := a.CreateChallenge(didStr, "login")
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	sig := ethSign(priv, challenge.SignBytes())

	if _, err := a.VerifyChallenge(challenge.ID, sig, nil); err != ErrChallengeExpired {
		t.Fatalf("expected ErrChallengeExpired, got %v", err)
	}
}

func TestBearerTokenRoundTrip(t *testing.T) {
	a := newTestAuthenticator()
	didStr, priv := ethrSignerDID(t)

	challenge, err := a.CreateChallenge(didStr, "login")
	if err != nil {
		t.Fatal(err)
	}
	sig := ethSign(priv, challenge.SignBytes())
	result, err := a.VerifyChallenge(challenge.ID, sig, []string{"*"})
	if err != nil {
		t.Fatal(err)
	}

	token, err := a.IssueBearerToken(result.Session)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected dot-separated 3-part token, got %s", token)
	}

	sess, err := a.Authenticate(token)
	if err != nil {
		t.Fatal(err)
	}
	if sess.ID != result.Session.ID {
		t.Fatalf("authenticated session mismatch: got %s want %s", sess.ID, result.Session.ID)
	}
	if err := RequireScope(sess, "anything"); err != nil {
		t.Fatalf("wildcard scope should authorize anything: %v", err)
	}
}

func TestParseBearerHeader(t *testing.T) {
	token, err := ParseBearerHeader("Bearer abc.def.012")
	if err != nil {
		t.Fatal(err)
	}
	if token != "abc.def.012" {
		t.Fatalf("unexpected token: %s", token)
	}

	if _, err := ParseBearerHeader("Basic abc"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for non-bearer scheme, got %v", err)
	}
}

func TestCleanupEvictsExpired(t *testing.T) {
	a := newTestAuthenticator()
	didStr, _ := ethrSignerDID(t)

	if _, err := a.CreateChallenge(didStr, "login"); err != nil {
		t.Fatal(err)
	}

	expiredChallenges, expiredSessions := a.Cleanup(time.Now().Add(2 * a.challengeTTL))
	if expiredChallenges != 1 {
		t.Fatalf("expected 1 expired challenge, got %d", expiredChallenges)
	}
	if expiredSessions != 0 {
		t.Fatalf("expected 0 expired sessions, got %d", expiredSessions)
	}
}

func TestIdentityScoreGating(t *testing.T) {
	reg := did.NewRegistry()
	reg.Register("ethr", did.EthrResolver{})
	a := NewAuthenticator(reg, nil).WithScoreGate(constScoreProvider{score: 10}, 50)

	didStr, priv := ethrSignerDID(t)
	challenge, err := a.CreateChallenge(didStr, "login")
	if err != nil {
		t.Fatal(err)
	}
	sig := ethSign(priv, challenge.SignBytes())

	if _, err := a.VerifyChallenge(challenge.ID, sig, nil); err != ErrInsufficientScore {
		t.Fatalf("expected ErrInsufficientScore, got %v", err)
	}
}

type constScoreProvider struct{ score float64 }

func (p constScoreProvider) GetIdentityScore(string) (float64, error) { return p.score, nil }
