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
	"fmt"
	"net/http"
	"strings"
)

// Scheme is an HTTP authentication scheme an agent may declare on its card.
type Scheme string

const (
	SchemeBearer Scheme = "bearer"
	SchemeBasic  Scheme = "basic"
)

// ParseScheme returns the [Scheme] named by s, ignoring case.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeBearer:
		return SchemeBearer, nil
	case SchemeBasic:
		return SchemeBasic, nil
	default:
		return "", &ConfigError{Reason: fmt.Sprintf("unsupported authentication scheme %q", s)}
	}
}

// ConfigError reports an authentication setup that can never accept a request.
type ConfigError struct {
	Reason string
}

// Error returns the error message.
func (e *ConfigError) Error() string {
	return "auth config: " + e.Reason
}

// Credentials are the secrets for one scheme.
type Credentials struct {
	Scheme   Scheme
	Token    string
	Username string
	Password string
}

// ParseCredentials builds [Credentials] for scheme from a secret string:
// the token itself for bearer, "user:pass" for basic.
func ParseCredentials(scheme, secret string) (Credentials, error) {
	s, err := ParseScheme(scheme)
	if err != nil {
		return Credentials{}, err
	}

	switch s {
	case SchemeBearer:
		if secret == "" {
			return Credentials{}, &ConfigError{Reason: "bearer token is empty"}
		}
		return Credentials{Scheme: s, Token: secret}, nil
	default:
		user, pass, ok := strings.Cut(secret, ":")
		if !ok || user == "" || pass == "" {
			return Credentials{}, &ConfigError{Reason: `basic credentials must be "user:pass"`}
		}
		return Credentials{Scheme: s, Username: user, Password: pass}, nil
	}
}

// IsZero reports whether c carries no secret.
func (c Credentials) IsZero() bool {
	return c.Token == "" && c.Username == "" && c.Password == ""
}

func (c Credentials) validate() error {
	switch c.Scheme {
	case SchemeBearer:
		if c.Token == "" {
			return &ConfigError{Reason: "bearer scheme requires a token"}
		}
	case SchemeBasic:
		if c.Username == "" || c.Password == "" {
			return &ConfigError{Reason: "basic scheme requires a username and a password"}
		}
	default:
		return &ConfigError{Reason: fmt.Sprintf("unsupported authentication scheme %q", c.Scheme)}
	}
	return nil
}

// Apply sets the Authorization header of req. Zero credentials leave req untouched.
func (c Credentials) Apply(req *http.Request) {
	switch c.Scheme {
	case SchemeBearer:
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
	case SchemeBasic:
		if c.Username != "" {
			req.SetBasicAuth(c.Username, c.Password)
		}
	}
}
