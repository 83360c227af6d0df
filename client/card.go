// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"slices"
	"strconv"
	"strings"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/auth"
)

// CardError lists the problems that make an agent card unusable.
type CardError struct {
	Problems []string
}

// Error returns the error message.
func (e *CardError) Error() string {
	return "invalid agent card: " + strings.Join(e.Problems, "; ")
}

// ValidateAgentCard checks that a card fetched from a remote can be routed to.
// All problems are reported at once in a [*CardError].
func ValidateAgentCard(card *a2a.AgentCard) error {
	if card == nil {
		return &CardError{Problems: []string{"card is nil"}}
	}

	var problems []string
	if card.Name == "" {
		problems = append(problems, "name is required")
	}
	if card.URL == "" {
		problems = append(problems, "url is required")
	}
	switch schemes := card.Schemes(); len(schemes) {
	case 1:
		if _, err := auth.ParseScheme(schemes[0]); err != nil {
			problems = append(problems, "authentication scheme "+strconv.Quote(schemes[0])+" is not supported")
		}
	default:
		problems = append(problems, "exactly one authentication scheme is required")
	}
	for i, skill := range card.Skills {
		if skill.ID == "" || skill.Name == "" {
			problems = append(problems, "skill #"+strconv.Itoa(i+1)+" needs an id and a name")
		}
	}

	if len(problems) > 0 {
		return &CardError{Problems: problems}
	}
	return nil
}

// SupportsOutputModes reports whether the card can answer in one of modes.
// A card without default output modes accepts anything.
func SupportsOutputModes(card *a2a.AgentCard, modes []string) bool {
	if len(card.DefaultOutputModes) == 0 {
		return true
	}
	return slices.ContainsFunc(modes, func(m string) bool {
		return slices.Contains(card.DefaultOutputModes, m)
	})
}

// FindSkill finds a skill by ID in an agent card.
func FindSkill(card *a2a.AgentCard, skillID string) (*a2a.AgentSkill, bool) {
	i := slices.IndexFunc(card.Skills, func(s a2a.AgentSkill) bool { return s.ID == skillID })
	if i < 0 {
		return nil, false
	}
	return &card.Skills[i], true
}
