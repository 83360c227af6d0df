// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package seller implements the demo pizza and burger seller agents.
package seller

import (
	"fmt"

	a2a "github.com/go-a2a/a2a-purchasing"
	"github.com/go-a2a/a2a-purchasing/server/agent_execution"
)

// Profile describes one seller agent.
type Profile struct {
	Name        string
	Store       string
	Description string
	Skill       a2a.AgentSkill
	Menu        Menu
}

// Pizza is the pizza_seller_agent profile.
var Pizza = Profile{
	Name:        "pizza_seller_agent",
	Store:       "pizza",
	Description: "Helps with creating pizza orders",
	Skill: a2a.AgentSkill{
		ID:          "create_pizza_order",
		Name:        "Pizza Order Creation Tool",
		Description: "Helps with creating pizza orders",
		Tags:        []string{"pizza order creation"},
		Examples:    []string{"I want to order 2 pepperoni pizzas"},
	},
	Menu: PizzaMenu,
}

// Burger is the burger_seller_agent profile.
var Burger = Profile{
	Name:        "burger_seller_agent",
	Store:       "burger",
	Description: "Helps with creating burger orders",
	Skill: a2a.AgentSkill{
		ID:          "create_burger_order",
		Name:        "Burger Order Creation Tool",
		Description: "Helps with creating burger orders",
		Tags:        []string{"burger order creation"},
		Examples:    []string{"I want to order 2 classic cheeseburgers"},
	},
	Menu: BurgerMenu,
}

// Lookup returns the profile for store "pizza" or "burger".
func Lookup(store string) (Profile, error) {
	switch store {
	case Pizza.Store:
		return Pizza, nil
	case Burger.Store:
		return Burger, nil
	default:
		return Profile{}, fmt.Errorf("unknown seller %q", store)
	}
}

// Card returns the agent card served at url, declaring scheme as its single
// authentication scheme.
func (p Profile) Card(url, scheme string) *a2a.AgentCard {
	return &a2a.AgentCard{
		Name:               p.Name,
		Description:        p.Description,
		URL:                url,
		Version:            "1.0.0",
		DefaultInputModes:  agent_execution.SupportedContentTypes,
		DefaultOutputModes: agent_execution.SupportedContentTypes,
		Authentication:     &a2a.AgentAuthentication{Schemes: []string{scheme}},
		Skills:             []a2a.AgentSkill{p.Skill},
	}
}

// NewDesk returns the order desk of the profile.
func (p Profile) NewDesk(opts ...DeskOption) *Desk {
	return NewDesk(p.Store, p.Menu, opts...)
}
