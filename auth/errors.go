// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auth

import "errors"

// Authentication flow errors.
var (
	ErrChallengeNotFound = errors.New("auth: challenge not found")
	ErrChallengeExpired  = errors.New("auth: challenge expired")
	ErrInvalidSignature  = errors.New("auth: signature does not recover to did")
	ErrSessionNotFound   = errors.New("auth: session not found")
	ErrSessionInvalid    = errors.New("auth: session is not in a verified, unexpired state")
	ErrInvalidToken      = errors.New("auth: malformed bearer token")
	ErrTokenExpired      = errors.New("auth: bearer token expired")
	ErrInsufficientScope = errors.New("auth: session lacks required scope")
	ErrInsufficientScore = errors.New("auth: identity score below required threshold")
)

// Resolution errors.
var (
	ErrDIDResolution     = errors.New("auth: did resolution failed")
	ErrUnsupportedMethod = errors.New("auth: unsupported did method")
	ErrDIDMalformed      = errors.New("auth: did does not match the expected grammar")
)
