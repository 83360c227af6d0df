// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package seller

import (
	"fmt"
	"strings"
)

// MenuItem is one orderable product. Prices are in thousands of IDR.
type MenuItem struct {
	Name    string
	Keyword string
	Price   int
}

// Menu is the fixed list of products a seller offers.
type Menu []MenuItem

// PizzaMenu is served by the pizza seller.
var PizzaMenu = Menu{
	{Name: "Margherita Pizza", Keyword: "margherita", Price: 100},
	{Name: "Pepperoni Pizza", Keyword: "pepperoni", Price: 140},
	{Name: "Hawaiian Pizza", Keyword: "hawaiian", Price: 110},
	{Name: "Veggie Pizza", Keyword: "veggie", Price: 100},
	{Name: "BBQ Chicken Pizza", Keyword: "bbq", Price: 130},
}

// BurgerMenu is served by the burger seller.
var BurgerMenu = Menu{
	{Name: "Classic Cheeseburger", Keyword: "classic", Price: 85},
	{Name: "Double Cheeseburger", Keyword: "double", Price: 110},
	{Name: "Spicy Chicken Burger", Keyword: "chicken", Price: 80},
	{Name: "Spicy Cajun Burger", Keyword: "cajun", Price: 85},
}

// String renders the menu one item per line.
func (m Menu) String() string {
	var b strings.Builder
	for _, it := range m {
		fmt.Fprintf(&b, "- %s: %s\n", it.Name, formatPrice(it.Price))
	}
	return b.String()
}

func (m Menu) lookup(word string) (MenuItem, bool) {
	for _, it := range m {
		if it.Keyword == word {
			return it, true
		}
	}
	return MenuItem{}, false
}

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// Parse extracts the ordered items from free text such as
// "2 margherita and one pepperoni". A quantity applies to the next item
// named after it and defaults to 1. Repeated items are summed.
func (m Menu) Parse(text string) []OrderItem {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})

	var (
		items []OrderItem
		qty   int
	)
	for _, w := range words {
		if n, ok := parseQuantity(w); ok {
			qty = n
			continue
		}
		it, ok := m.lookup(w)
		if !ok {
			continue
		}
		if qty == 0 {
			qty = 1
		}
		items = addItem(items, OrderItem{Name: it.Name, Quantity: qty, Price: it.Price})
		qty = 0
	}
	return items
}

func parseQuantity(w string) (int, bool) {
	if n, ok := numberWords[w]; ok {
		return n, true
	}
	n := 0
	for _, r := range w {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
		if n > 100 {
			return 0, false
		}
	}
	return n, n > 0
}

func addItem(items []OrderItem, it OrderItem) []OrderItem {
	for i := range items {
		if items[i].Name == it.Name {
			items[i].Quantity += it.Quantity
			return items
		}
	}
	return append(items, it)
}

func formatPrice(k int) string {
	return fmt.Sprintf("IDR %dK", k)
}
