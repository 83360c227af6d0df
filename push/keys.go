// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package push delivers signed task notifications to subscriber URLs and
// verifies them on the receiving side.
package push

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// ClaimBodySHA256 is the JWT claim carrying the hex SHA-256 of the request body.
const ClaimBodySHA256 = "request_body_sha256"

// KeyManager holds the signing key of one agent process.
//
// A fresh ECDSA P-256 key with a random key id is generated at construction;
// keys are never rotated during the life of the process.
type KeyManager struct {
	kid  string
	priv *ecdsa.PrivateKey
	jwks jwk.Set
}

// NewKeyManager generates a signing key and its public key set.
func NewKeyManager() (*KeyManager, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	kid := uuid.NewString()

	pub, err := jwk.Import(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("import public key: %w", err)
	}
	if err := pub.Set(jwk.KeyIDKey, kid); err != nil {
		return nil, fmt.Errorf("set kid: %w", err)
	}
	if err := pub.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return nil, fmt.Errorf("set alg: %w", err)
	}
	if err := pub.Set(jwk.KeyUsageKey, jwk.ForSignature); err != nil {
		return nil, fmt.Errorf("set use: %w", err)
	}

	set := jwk.NewSet()
	if err := set.AddKey(pub); err != nil {
		return nil, fmt.Errorf("build key set: %w", err)
	}

	return &KeyManager{
		kid:  kid,
		priv: priv,
		jwks: set,
	}, nil
}

// KeyID returns the id of the signing key.
func (m *KeyManager) KeyID() string {
	return m.kid
}

// JWKS returns the public key set.
func (m *KeyManager) JWKS() jwk.Set {
	return m.jwks
}

// JWKSHandler serves the public key set as JSON.
func (m *KeyManager) JWKSHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.MarshalWrite(w, m.jwks)
	})
}

// Sign returns a compact ES256 JWT binding body to the signing key at time now.
func (m *KeyManager) Sign(body []byte, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iat":           now.Unix(),
		ClaimBodySHA256: BodyDigest(body),
	})
	token.Header["kid"] = m.kid

	return token.SignedString(m.priv)
}

// BodyDigest returns the hex-encoded SHA-256 of body.
func BodyDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
