// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package seller

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-a2a/a2a-purchasing/server/agent_execution"
)

func TestMenuParse(t *testing.T) {
	tests := map[string]struct {
		menu Menu
		text string
		want []OrderItem
	}{
		"digits": {
			menu: PizzaMenu,
			text: "2 margherita please",
			want: []OrderItem{{Name: "Margherita Pizza", Quantity: 2, Price: 100}},
		},
		"words and default quantity": {
			menu: PizzaMenu,
			text: "three Pepperoni, and a veggie; bbq too",
			want: []OrderItem{
				{Name: "Pepperoni Pizza", Quantity: 3, Price: 140},
				{Name: "Veggie Pizza", Quantity: 1, Price: 100},
				{Name: "BBQ Chicken Pizza", Quantity: 1, Price: 130},
			},
		},
		"repeated items are summed": {
			menu: BurgerMenu,
			text: "1 classic and 2 classic",
			want: []OrderItem{{Name: "Classic Cheeseburger", Quantity: 3, Price: 85}},
		},
		"other store's items ignored": {
			menu: BurgerMenu,
			text: "2 margherita",
		},
		"nothing": {
			menu: PizzaMenu,
			text: "what do you have?",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.menu.Parse(tt.text)); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestDeskConfirmThenCreate(t *testing.T) {
	ctx := context.Background()
	d := Pizza.NewDesk(WithOrderIDs(func() string { return "order-1" }))

	res, err := d.Invoke(ctx, "2 margherita and 1 pepperoni", "s1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.RequireUserInput || res.IsComplete {
		t.Fatalf("proposal result = %+v, want input required", res)
	}
	if !strings.Contains(res.Content, "Total: IDR 340K") {
		t.Errorf("proposal = %q, want total IDR 340K", res.Content)
	}

	// Another session has no pending order.
	res, err = d.Invoke(ctx, "yes", "s2")
	if err != nil {
		t.Fatal(err)
	}
	if res.IsComplete {
		t.Errorf("confirmation without proposal completed: %+v", res)
	}

	res, err = d.Invoke(ctx, "Yes!", "s1")
	if err != nil {
		t.Fatal(err)
	}
	want := agent_execution.Result{
		IsComplete: true,
		Content: "Order order-1 has been created.\n" +
			"- 2 x Margherita Pizza @ IDR 100K = IDR 200K\n" +
			"- 1 x Pepperoni Pizza @ IDR 140K = IDR 140K\n" +
			"Total: IDR 340K",
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Errorf("confirmation mismatch (-want +got):\n%s", diff)
	}

	order, ok := d.Order("order-1")
	if !ok {
		t.Fatal("order-1 not recorded")
	}
	if order.Status != "created" || order.Total() != 340 {
		t.Errorf("order = %+v", order)
	}

	// The session starts over after an order is placed.
	res, err = d.Invoke(ctx, "yes", "s1")
	if err != nil {
		t.Fatal(err)
	}
	if res.IsComplete {
		t.Error("second confirmation placed another order")
	}
}

func TestDeskRejectAndRevise(t *testing.T) {
	ctx := context.Background()
	d := Burger.NewDesk()

	if _, err := d.Invoke(ctx, "1 double", "s"); err != nil {
		t.Fatal(err)
	}
	res, err := d.Invoke(ctx, "make it 2 cajun", "s")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Content, "2 x Spicy Cajun Burger") || strings.Contains(res.Content, "Double") {
		t.Errorf("revised proposal = %q", res.Content)
	}

	res, err = d.Invoke(ctx, "hmm", "s")
	if err != nil {
		t.Fatal(err)
	}
	if !res.RequireUserInput || !strings.Contains(res.Content, "answer yes") {
		t.Errorf("unclear answer result = %+v", res)
	}

	res, err = d.Invoke(ctx, "no", "s")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.Content, "Order discarded.") {
		t.Errorf("rejection = %q", res.Content)
	}
	res, err = d.Invoke(ctx, "yes", "s")
	if err != nil {
		t.Fatal(err)
	}
	if res.IsComplete {
		t.Error("confirmation after rejection placed an order")
	}
}

func TestDeskCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Pizza.NewDesk().Invoke(ctx, "1 veggie", "s"); err == nil {
		t.Error("Invoke succeeded with a canceled context")
	}
}

func TestProfileCard(t *testing.T) {
	p, err := Lookup("burger")
	if err != nil {
		t.Fatal(err)
	}
	card := p.Card("http://localhost:10001/", "basic")
	if card.Name != "burger_seller_agent" || card.Skills[0].ID != "create_burger_order" {
		t.Errorf("card = %+v", card)
	}
	if diff := cmp.Diff([]string{"basic"}, card.Schemes()); diff != "" {
		t.Errorf("schemes mismatch (-want +got):\n%s", diff)
	}
	if _, err := Lookup("sushi"); err == nil {
		t.Error("Lookup accepted an unknown store")
	}
}
