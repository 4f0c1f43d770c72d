// Package cart はブラウザ側カートの明細を注文用に集計する。
// 明細の追加・削除はクライアントで行い、ここでは受け取った明細の検証と小計だけを扱う。
package cart

import (
	"errors"
	"strings"
)

const MaxQuantity = 100

var (
	ErrInvalidQuantity  = errors.New("quantity must be between 1 and 100")
	ErrInvalidPrice     = errors.New("unit price must be >= 0")
	ErrCurrencyMismatch = errors.New("cart items must share one currency")
)

type Item struct {
	ProductID      string
	Name           string
	Slug           string
	ImageURL       string
	UnitPriceCents int64
	CurrencyCode   string
	Quantity       int64
	Fragrance      string
}

func (it Item) TotalCents() int64 {
	return it.UnitPriceCents * it.Quantity
}

type Cart struct {
	items    []Item
	currency string
}

// FromItems は明細をまとめずにそのまま並べる（注文明細と1:1）。
func FromItems(items []Item) (*Cart, error) {
	c := &Cart{}
	for _, it := range items {
		if err := c.check(it); err != nil {
			return nil, err
		}
		c.items = append(c.items, it)
	}
	return c, nil
}

func (c *Cart) SubtotalCents() int64 {
	var sum int64
	for _, it := range c.items {
		sum += it.TotalCents()
	}
	return sum
}

func (c *Cart) check(it Item) error {
	if it.Quantity < 1 || it.Quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	if it.UnitPriceCents < 0 {
		return ErrInvalidPrice
	}
	cur := strings.ToUpper(strings.TrimSpace(it.CurrencyCode))
	if cur == "" {
		return nil
	}
	if c.currency == "" {
		c.currency = cur
		return nil
	}
	if c.currency != cur {
		return ErrCurrencyMismatch
	}
	return nil
}
