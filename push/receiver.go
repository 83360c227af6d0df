// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package push

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"

	a2a "github.com/go-a2a/a2a-purchasing"
)

// Verification failures.
var (
	ErrMissingToken  = errors.New("push: missing bearer token")
	ErrUnknownKey    = errors.New("push: unknown signing key")
	ErrStaleToken    = errors.New("push: token is too old")
	ErrBodyTampered  = errors.New("push: body does not match signed digest")
	ErrInvalidClaims = errors.New("push: invalid claims")
)

// DefaultMaxAge is how old an accepted notification token may be.
const DefaultMaxAge = 5 * time.Minute

// HandlerFunc receives a verified task notification.
type HandlerFunc func(ctx context.Context, task *a2a.Task)

// ReceiverOption configures a [Receiver].
type ReceiverOption func(*Receiver)

// WithReceiverLogger sets the logger of the receiver.
func WithReceiverLogger(logger *slog.Logger) ReceiverOption {
	return func(r *Receiver) {
		r.logger = logger
	}
}

// WithMaxAge overrides [DefaultMaxAge].
func WithMaxAge(d time.Duration) ReceiverOption {
	return func(r *Receiver) {
		r.maxAge = d
	}
}

// WithReceiverClock overrides the time source used for freshness checks.
func WithReceiverClock(now func() time.Time) ReceiverOption {
	return func(r *Receiver) {
		r.now = now
	}
}

// Receiver is the subscriber side of push notifications.
//
// It answers validation challenges and accepts only POSTs signed by a key
// published at the sender's JWKS URL.
type Receiver struct {
	jwksURL string
	handle  HandlerFunc
	logger  *slog.Logger
	maxAge  time.Duration
	now     func() time.Time

	mu   sync.Mutex
	keys jwk.Set
}

// NewReceiver returns a [Receiver] trusting keys served at jwksURL.
func NewReceiver(jwksURL string, handle HandlerFunc, opts ...ReceiverOption) *Receiver {
	r := &Receiver{
		jwksURL: jwksURL,
		handle:  handle,
		logger:  slog.Default(),
		maxAge:  DefaultMaxAge,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ServeHTTP implements [http.Handler].
func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		token := r.URL.Query().Get(validationTokenParam)
		if token == "" {
			http.Error(w, "missing validation token", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, token)

	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, 4<<20))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		if err := rc.Verify(r.Context(), r.Header.Get("Authorization"), body); err != nil {
			rc.logger.WarnContext(r.Context(), "push notification rejected", "error", err)
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		var task a2a.Task
		if err := json.Unmarshal(body, &task); err != nil {
			http.Error(w, "decode task", http.StatusBadRequest)
			return
		}
		if rc.handle != nil {
			rc.handle(r.Context(), &task)
		}
		w.WriteHeader(http.StatusOK)

	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// Verify checks the Authorization header of a notification against body.
func (rc *Receiver) Verify(ctx context.Context, authorization string, body []byte) error {
	raw, ok := strings.CutPrefix(authorization, "Bearer ")
	if !ok || raw == "" {
		return ErrMissingToken
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKey
		}
		return rc.publicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(rc.now),
	)
	if err != nil {
		return fmt.Errorf("verify token: %w", err)
	}

	iat, err := claims.GetIssuedAt()
	if err != nil || iat == nil {
		return ErrInvalidClaims
	}
	if rc.now().Sub(iat.Time) > rc.maxAge {
		return ErrStaleToken
	}

	digest, _ := claims[ClaimBodySHA256].(string)
	if digest == "" {
		return ErrInvalidClaims
	}
	if digest != BodyDigest(body) {
		return ErrBodyTampered
	}
	return nil
}

// publicKey returns the key with id kid, refetching the key set once on a miss.
func (rc *Receiver) publicKey(ctx context.Context, kid string) (*ecdsa.PublicKey, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if rc.keys != nil {
		if key, ok := rc.keys.LookupKeyID(kid); ok {
			return exportECDSA(key)
		}
	}

	set, err := jwk.Fetch(ctx, rc.jwksURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rc.jwksURL, err)
	}
	rc.keys = set

	key, ok := set.LookupKeyID(kid)
	if !ok {
		return nil, ErrUnknownKey
	}
	return exportECDSA(key)
}

func exportECDSA(key jwk.Key) (*ecdsa.PublicKey, error) {
	var pub ecdsa.PublicKey
	if err := jwk.Export(key, &pub); err != nil {
		return nil, fmt.Errorf("export key: %w", err)
	}
	return &pub, nil
}
