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
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/google/go-cmp/cmp"

	a2a "github.com/go-a2a/a2a-purchasing"
)

func TestNewGateConfig(t *testing.T) {
	tests := map[string]struct {
		schemes []string
		creds   Credentials
		wantErr bool
	}{
		"bearer":              {schemes: []string{"Bearer"}, creds: Credentials{Token: "t"}},
		"basic":               {schemes: []string{"basic"}, creds: Credentials{Username: "u", Password: "p"}},
		"no scheme":           {schemes: nil, creds: Credentials{Token: "t"}, wantErr: true},
		"two schemes":         {schemes: []string{"bearer", "basic"}, creds: Credentials{Token: "t"}, wantErr: true},
		"unsupported scheme":  {schemes: []string{"digest"}, creds: Credentials{Token: "t"}, wantErr: true},
		"bearer without token": {schemes: []string{"bearer"}, wantErr: true},
		"basic without password": {
			schemes: []string{"basic"},
			creds:   Credentials{Username: "u"},
			wantErr: true,
		},
		"mismatched credentials": {
			schemes: []string{"bearer"},
			creds:   Credentials{Scheme: SchemeBasic, Username: "u", Password: "p"},
			wantErr: true,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewGate(tt.schemes, tt.creds)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("NewGate failed: %v", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("NewGate error = %v, want *ConfigError", err)
			}
		})
	}
}

func TestGateMiddleware(t *testing.T) {
	bearer, err := NewGate([]string{"bearer"}, Credentials{Token: "pizza123"})
	if err != nil {
		t.Fatal(err)
	}
	basic, err := NewGate([]string{"Basic"}, Credentials{Username: "burgeruser123", Password: "burgerpass123"})
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]struct {
		gate       *Gate
		header     string
		wantStatus int
		wantReason string
		wantUser   string
	}{
		"bearer ok":             {gate: bearer, header: "Bearer pizza123", wantStatus: http.StatusOK},
		"bearer lower prefix":   {gate: bearer, header: "bearer pizza123", wantStatus: http.StatusOK},
		"missing header":        {gate: bearer, wantStatus: http.StatusUnauthorized, wantReason: "missing authorization header"},
		"malformed header":      {gate: bearer, header: "pizza123", wantStatus: http.StatusUnauthorized, wantReason: "malformed authorization header"},
		"scheme mismatch":       {gate: bearer, header: "Basic cGl6emE6MTIz", wantStatus: http.StatusUnauthorized, wantReason: "unsupported authentication scheme"},
		"wrong token":           {gate: bearer, header: "Bearer pizza124", wantStatus: http.StatusUnauthorized, wantReason: "invalid bearer token"},
		"token prefix only":     {gate: bearer, header: "Bearer pizza", wantStatus: http.StatusUnauthorized, wantReason: "invalid bearer token"},
		"basic ok":              {gate: basic, header: "Basic YnVyZ2VydXNlcjEyMzpidXJnZXJwYXNzMTIz", wantStatus: http.StatusOK, wantUser: "burgeruser123"},
		"basic wrong password":  {gate: basic, header: "Basic YnVyZ2VydXNlcjEyMzp3cm9uZw==", wantStatus: http.StatusUnauthorized, wantReason: "invalid username or password"},
		"basic not base64":      {gate: basic, header: "Basic !!!", wantStatus: http.StatusUnauthorized, wantReason: "malformed basic credentials"},
		"basic without a colon": {gate: basic, header: "Basic YnVyZ2Vy", wantStatus: http.StatusUnauthorized, wantReason: "malformed basic credentials"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var gotUser User
			h := tt.gate.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = UserFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{}"))
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				var body map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if diff := cmp.Diff(map[string]string{"error": tt.wantReason}, body); diff != "" {
					t.Errorf("body mismatch (-want +got):\n%s", diff)
				}
				return
			}
			if !gotUser.IsAuthenticated() {
				t.Error("handler saw an unauthenticated user")
			}
			if gotUser.UserName() != tt.wantUser {
				t.Errorf("UserName() = %q, want %q", gotUser.UserName(), tt.wantUser)
			}
		})
	}
}

func TestAuthenticateErrorIsAuth(t *testing.T) {
	g, err := NewGate([]string{"bearer"}, Credentials{Token: "x"})
	if err != nil {
		t.Fatal(err)
	}
	_, err = g.Authenticate(httptest.NewRequest(http.MethodPost, "/", nil))
	if !errors.Is(err, a2a.ErrAuth) {
		t.Errorf("Authenticate error = %v, want a2a.ErrAuth", err)
	}
}

func TestParseCredentials(t *testing.T) {
	tests := map[string]struct {
		scheme  string
		secret  string
		want    Credentials
		wantErr bool
	}{
		"bearer":         {scheme: "bearer", secret: "pizza123", want: Credentials{Scheme: SchemeBearer, Token: "pizza123"}},
		"basic":          {scheme: "BASIC", secret: "u:p:q", want: Credentials{Scheme: SchemeBasic, Username: "u", Password: "p:q"}},
		"basic no colon": {scheme: "basic", secret: "u", wantErr: true},
		"empty token":    {scheme: "bearer", wantErr: true},
		"unknown":        {scheme: "oauth2", secret: "x", wantErr: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ParseCredentials(tt.scheme, tt.secret)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCredentials error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseCredentials mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCredentialsApplyPassesGate(t *testing.T) {
	for _, creds := range []Credentials{
		{Scheme: SchemeBearer, Token: "pizza123"},
		{Scheme: SchemeBasic, Username: "burgeruser123", Password: "burgerpass123"},
	} {
		t.Run(string(creds.Scheme), func(t *testing.T) {
			g, err := NewGate([]string{string(creds.Scheme)}, creds)
			if err != nil {
				t.Fatal(err)
			}
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			creds.Apply(req)
			if _, err := g.Authenticate(req); err != nil {
				t.Errorf("Authenticate failed: %v", err)
			}
		})
	}
}
