// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package seller

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/go-a2a/a2a-purchasing/server/agent_execution"
)

// OrderItem is one line of an order.
type OrderItem struct {
	Name     string
	Quantity int
	Price    int
}

// Subtotal returns Quantity * Price in thousands of IDR.
func (it OrderItem) Subtotal() int {
	return it.Quantity * it.Price
}

// Order is a placed order.
type Order struct {
	ID     string
	Status string
	Items  []OrderItem
}

// Total returns the sum of all subtotals in thousands of IDR.
func (o Order) Total() int {
	total := 0
	for _, it := range o.Items {
		total += it.Subtotal()
	}
	return total
}

// DeskOption configures a [Desk].
type DeskOption func(*Desk)

// WithLogger sets the logger of the desk.
func WithLogger(logger *slog.Logger) DeskOption {
	return func(d *Desk) {
		d.logger = logger
	}
}

// WithOrderIDs overrides the order id generator.
func WithOrderIDs(next func() string) DeskOption {
	return func(d *Desk) {
		d.newID = next
	}
}

// Desk takes orders for one store.
//
// Every session first proposes items, then confirms them. Only a confirmed
// proposal becomes an [Order]; the desk asks for input until then.
type Desk struct {
	store  string
	menu   Menu
	logger *slog.Logger
	newID  func() string
	placed metric.Int64Counter

	mu      sync.Mutex
	pending map[string][]OrderItem
	orders  map[string]Order
}

var _ agent_execution.Executor = (*Desk)(nil)

// NewDesk returns a desk selling menu under the store name.
func NewDesk(store string, menu Menu, opts ...DeskOption) *Desk {
	d := &Desk{
		store:   store,
		menu:    menu,
		logger:  slog.Default(),
		newID:   uuid.NewString,
		pending: make(map[string][]OrderItem),
		orders:  make(map[string]Order),
	}
	for _, opt := range opts {
		opt(d)
	}

	placed, err := otel.Meter("github.com/go-a2a/a2a-purchasing/internal/seller").Int64Counter("seller.orders",
		metric.WithDescription("Count of placed orders"),
	)
	if err != nil {
		otel.Handle(err)
	}
	d.placed = placed
	return d
}

// Invoke implements [agent_execution.Executor].
func (d *Desk) Invoke(ctx context.Context, query, sessionID string) (agent_execution.Result, error) {
	if err := ctx.Err(); err != nil {
		return agent_execution.Result{}, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	pending := d.pending[sessionID]
	items := d.menu.Parse(query)

	switch {
	case len(pending) > 0 && len(items) == 0 && isConfirmation(query):
		delete(d.pending, sessionID)
		order := Order{ID: d.newID(), Status: "created", Items: pending}
		d.orders[order.ID] = order
		if d.placed != nil {
			d.placed.Add(ctx, 1, metric.WithAttributes(attribute.String("store", d.store)))
		}
		d.logger.InfoContext(ctx, "order created", "order_id", order.ID, "session_id", sessionID, "total", order.Total())
		return agent_execution.Result{IsComplete: true, Content: receipt(order)}, nil

	case len(pending) > 0 && len(items) == 0 && isRejection(query):
		delete(d.pending, sessionID)
		return agent_execution.Result{
			RequireUserInput: true,
			Content:          "Order discarded. What would you like from the " + d.store + " menu?\n" + d.menu.String(),
		}, nil

	case len(items) > 0:
		d.pending[sessionID] = items
		return agent_execution.Result{
			RequireUserInput: true,
			Content:          proposal(items) + "Shall I place the order?",
		}, nil

	case len(pending) > 0:
		return agent_execution.Result{
			RequireUserInput: true,
			Content:          proposal(pending) + "Please answer yes to place the order or no to discard it.",
		}, nil

	default:
		return agent_execution.Result{
			RequireUserInput: true,
			Content:          "I can only help with the " + d.store + " menu and orders. Our menu:\n" + d.menu.String() + "What would you like to order?",
		}, nil
	}
}

// Order returns a placed order by id.
func (d *Desk) Order(id string) (Order, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	o, ok := d.orders[id]
	return o, ok
}

func isConfirmation(s string) bool {
	switch normalize(s) {
	case "yes", "y", "ok", "okay", "sure", "confirm", "confirmed", "yes please", "go ahead":
		return true
	}
	return false
}

func isRejection(s string) bool {
	switch normalize(s) {
	case "no", "n", "cancel", "nope", "no thanks":
		return true
	}
	return false
}

func normalize(s string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(s)), ".!")
}

func proposal(items []OrderItem) string {
	var b strings.Builder
	b.WriteString("Your order:\n")
	total := 0
	for _, it := range items {
		fmt.Fprintf(&b, "- %d x %s @ %s = %s\n", it.Quantity, it.Name, formatPrice(it.Price), formatPrice(it.Subtotal()))
		total += it.Subtotal()
	}
	fmt.Fprintf(&b, "Total: %s\n", formatPrice(total))
	return b.String()
}

func receipt(o Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order %s has been created.\n", o.ID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "- %d x %s @ %s = %s\n", it.Quantity, it.Name, formatPrice(it.Price), formatPrice(it.Subtotal()))
	}
	fmt.Fprintf(&b, "Total: %s", formatPrice(o.Total()))
	return b.String()
}
