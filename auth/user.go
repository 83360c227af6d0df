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

// Package auth guards an agent endpoint with a single HTTP authentication
// scheme and attaches matching credentials to outgoing calls.
package auth

import "context"

// User is the caller identity attached to a request context by [Gate].
type User interface {
	// IsAuthenticated returns true if the user is authenticated, false otherwise.
	IsAuthenticated() bool

	// UserName returns the username of the user. For unauthenticated users,
	// and for bearer tokens which carry no name, this returns an empty string.
	UserName() string
}

// UnauthenticatedUser is the identity of a request that passed no gate.
//
// UnauthenticatedUser is safe to use as a zero value and is immutable.
type UnauthenticatedUser struct{}

// IsAuthenticated always returns false for unauthenticated users.
func (u UnauthenticatedUser) IsAuthenticated() bool {
	return false
}

// UserName always returns an empty string for unauthenticated users.
func (u UnauthenticatedUser) UserName() string {
	return ""
}

// AuthenticatedUser is the identity of a request accepted by [Gate].
type AuthenticatedUser struct {
	// Scheme is the scheme the request was accepted under.
	Scheme Scheme
	// Name is the basic auth username, empty for bearer.
	Name string
}

// IsAuthenticated always returns true.
func (u AuthenticatedUser) IsAuthenticated() bool {
	return true
}

// UserName returns the basic auth username.
func (u AuthenticatedUser) UserName() string {
	return u.Name
}

type userKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user stored in ctx, or [UnauthenticatedUser].
func UserFromContext(ctx context.Context) User {
	if u, ok := ctx.Value(userKey{}).(User); ok {
		return u
	}
	return UnauthenticatedUser{}
}
