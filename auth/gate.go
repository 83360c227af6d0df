// Copyright 2025 The Go A2A Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-json-experiment/json"

	a2a "github.com/go-a2a/a2a-purchasing"
)

// Gate admits requests carrying the single scheme and secret an agent declares.
type Gate struct {
	creds  Credentials
	logger *slog.Logger
}

// GateOption configures a [Gate].
type GateOption func(*Gate)

// WithGateLogger sets the logger used for rejected requests.
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// NewGate returns a gate for the schemes declared on an agent card.
//
// Exactly one scheme must be declared and creds must hold the secret it needs.
func NewGate(schemes []string, creds Credentials, opts ...GateOption) (*Gate, error) {
	switch len(schemes) {
	case 0:
		return nil, &ConfigError{Reason: "no authentication scheme declared"}
	case 1:
	default:
		return nil, &ConfigError{Reason: "only one authentication scheme is supported"}
	}

	scheme, err := ParseScheme(schemes[0])
	if err != nil {
		return nil, err
	}
	if creds.Scheme != "" && creds.Scheme != scheme {
		return nil, &ConfigError{Reason: "credentials scheme " + string(creds.Scheme) + " does not match declared scheme " + string(scheme)}
	}
	creds.Scheme = scheme
	if err := creds.validate(); err != nil {
		return nil, err
	}

	g := &Gate{
		creds:  creds,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Scheme returns the scheme the gate enforces.
func (g *Gate) Scheme() Scheme {
	return g.creds.Scheme
}

// Authenticate checks the Authorization header of r.
//
// Failures are [*a2a.AuthError] values naming the first check that failed.
func (g *Gate) Authenticate(r *http.Request) (User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, &a2a.AuthError{Reason: "missing authorization header"}
	}

	prefix, value, ok := strings.Cut(header, " ")
	if !ok || value == "" {
		return nil, &a2a.AuthError{Reason: "malformed authorization header"}
	}
	if Scheme(strings.ToLower(prefix)) != g.creds.Scheme {
		return nil, &a2a.AuthError{Reason: "unsupported authentication scheme"}
	}

	switch g.creds.Scheme {
	case SchemeBearer:
		if !equal(value, g.creds.Token) {
			return nil, &a2a.AuthError{Reason: "invalid bearer token"}
		}
		return AuthenticatedUser{Scheme: SchemeBearer}, nil
	default:
		raw, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, &a2a.AuthError{Reason: "malformed basic credentials"}
		}
		user, pass, ok := strings.Cut(string(raw), ":")
		if !ok {
			return nil, &a2a.AuthError{Reason: "malformed basic credentials"}
		}
		userOK := equal(user, g.creds.Username)
		passOK := equal(pass, g.creds.Password)
		if !userOK || !passOK {
			return nil, &a2a.AuthError{Reason: "invalid username or password"}
		}
		return AuthenticatedUser{Scheme: SchemeBasic, Name: user}, nil
	}
}

// Middleware rejects unauthenticated requests with 401 and a JSON body
// {"error": "<reason>"}. Accepted requests carry their [User] in the context.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := g.Authenticate(r)
		if err != nil {
			var authErr *a2a.AuthError
			reason := "unauthorized"
			if errors.As(err, &authErr) {
				reason = authErr.Reason
			}
			g.logger.WarnContext(r.Context(), "request rejected", "remote_addr", r.RemoteAddr, "reason", reason)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.MarshalWrite(w, map[string]string{"error": reason})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func equal(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
