// Package email は注文メールの本文を組み立てる（送信はしない）。
package email

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"danicandles/internal/domain/model"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindConfirmation  Kind = "confirmation"
	KindOwnerNewOrder Kind = "owner_new_order"
	KindShipped       Kind = "shipped"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templatesFS, "templates/*.txt.tmpl"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templatesFS, "templates/*.html.tmpl"))
)

var subjects = map[Kind]string{
	KindConfirmation:  "Your Dani Candles order #%s is confirmed",
	KindOwnerNewOrder: "New order #%s (%s)",
	KindShipped:       "Your Dani Candles order #%s has shipped",
}

type LineView struct {
	Name      string
	Fragrance string
	Quantity  int64
	UnitPrice string
	Total     string
}

type OrderView struct {
	OrderID       string
	ShortID       string
	CustomerEmail string
	Items         []LineView
	Subtotal      string
	Shipping      string
	Tax           string
	Total         string
	Address       model.ShippingAddress
	OrderURL      string
}

type Rendered struct {
	Subject string
	Text    string
	HTML    string
}

// FormatMoney は最小単位を小数2桁の文字列にする。USDは "$24.00"、それ以外は "24.00 EUR"。
func FormatMoney(cents int64, currency string) string {
	amount := decimal.New(cents, -2).StringFixed(2)
	cur := strings.ToUpper(currency)
	if cur == "USD" {
		return "$" + amount
	}
	return amount + " " + cur
}

func NewOrderView(o model.Order, items []model.OrderItem, siteURL string) OrderView {
	lines := make([]LineView, 0, len(items))
	for _, it := range items {
		lv := LineView{
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: FormatMoney(it.UnitPriceCents, o.CurrencyCode),
			Total:     FormatMoney(it.TotalCents, o.CurrencyCode),
		}
		if it.Fragrance != nil {
			lv.Fragrance = *it.Fragrance
		}
		lines = append(lines, lv)
	}

	short := o.ID
	if len(short) > 8 {
		short = short[:8]
	}

	return OrderView{
		OrderID:       o.ID,
		ShortID:       strings.ToUpper(short),
		CustomerEmail: o.CustomerEmail,
		Items:         lines,
		Subtotal:      FormatMoney(o.SubtotalCents, o.CurrencyCode),
		Shipping:      FormatMoney(o.ShippingCents, o.CurrencyCode),
		Tax:           FormatMoney(o.TaxCents, o.CurrencyCode),
		Total:         FormatMoney(o.TotalCents, o.CurrencyCode),
		Address:       o.ShippingAddress,
		OrderURL:      strings.TrimRight(siteURL, "/") + "/order/confirmation?orderId=" + o.ID,
	}
}

func Render(kind Kind, v OrderView) (Rendered, error) {
	subject, ok := subjects[kind]
	if !ok {
		return Rendered{}, fmt.Errorf("unknown email kind %q", kind)
	}

	var text bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, string(kind)+".txt.tmpl", v); err != nil {
		return Rendered{}, fmt.Errorf("render %s text: %w", kind, err)
	}
	var html bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, string(kind)+".html.tmpl", v); err != nil {
		return Rendered{}, fmt.Errorf("render %s html: %w", kind, err)
	}

	if kind == KindOwnerNewOrder {
		subject = fmt.Sprintf(subject, v.ShortID, v.Total)
	} else {
		subject = fmt.Sprintf(subject, v.ShortID)
	}

	return Rendered{Subject: subject, Text: text.String(), HTML: html.String()}, nil
}
