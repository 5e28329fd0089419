// Package pricing plans token purchases from the shop packs.
package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Search bounds of the planners, in tokens and minor currency units.
const (
	MaxTokens        = 2_000_000
	MaxBudgetCents   = 2_000_000
	maxFirstTimePack = 16
)

var (
	ErrInvalidShop = errors.New("invalid shop")
	ErrOutOfRange  = errors.New("request out of range")
)

// Pack models a purchasable SKU.
type Pack struct {
	ID          string `mapstructure:"id" json:"id"`
	Name        string `mapstructure:"name" json:"name"`
	Tokens      int    `mapstructure:"tokens" json:"tokens"`
	BonusTokens int    `mapstructure:"bonus_tokens" json:"bonus_tokens"`   // granted on every purchase
	FirstTimeX2 bool   `mapstructure:"first_time_x2" json:"first_time_x2"` // first purchase doubles Tokens, not BonusTokens
	PriceCents  int    `mapstructure:"price_cents" json:"price_cents"`
}

// Shop is the regional pack list. With pre-tax prices TaxRate is applied on
// the subtotal; tax-inclusive prices use TaxRate 0.
type Shop struct {
	Currency string  `mapstructure:"currency" json:"currency"`
	TaxRate  float64 `mapstructure:"tax_rate" json:"tax_rate"`
	Packs    []Pack  `mapstructure:"packs" json:"packs"`
}

// Validate reports every problem of the shop at once.
func (s Shop) Validate() error {
	var errs []string
	if s.TaxRate < 0 || s.TaxRate > 1 {
		errs = append(errs, "tax_rate must be in [0,1]")
	}
	seen := make(map[string]struct{}, len(s.Packs))
	firstTime := 0
	for i, p := range s.Packs {
		if p.ID == "" {
			errs = append(errs, "pack["+strconv.Itoa(i)+"]: id is required")
		} else if _, dup := seen[p.ID]; dup {
			errs = append(errs, "pack "+p.ID+": duplicate id")
		}
		seen[p.ID] = struct{}{}
		if p.Tokens < 0 || p.BonusTokens < 0 || p.Tokens+p.BonusTokens == 0 {
			errs = append(errs, "pack "+p.ID+": must grant tokens")
		}
		if p.PriceCents < 1 {
			errs = append(errs, "pack "+p.ID+": price_cents must be >= 1")
		}
		if p.FirstTimeX2 {
			firstTime++
		}
	}
	if firstTime > maxFirstTimePack {
		errs = append(errs, "at most "+strconv.Itoa(maxFirstTimePack)+" first-time packs are supported")
	}
	if len(errs) > 0 {
		return errors.Wrap(ErrInvalidShop, strings.Join(errs, "; "))
	}
	return nil
}

// Purchase is one line item of a plan.
type Purchase struct {
	PackID     string `json:"pack_id"` // "#x2" suffix marks the first-time variant
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	UnitPrice  int    `json:"unit_price"`
	UnitTokens int    `json:"unit_tokens"`
	Subtotal   int    `json:"subtotal"`
}

// Plan summarizes a purchase plan.
type Plan struct {
	Purchases   []Purchase `json:"purchases"`
	SubCents    int        `json:"sub_cents"`
	TaxCents    int        `json:"tax_cents"`
	TotalCents  int        `json:"total_cents"`
	TotalTokens int        `json:"total_tokens"`
	Currency    string     `json:"currency"`
}

// variant is a pack as it can be bought in a plan.
type variant struct {
	id, name string
	tokens   int
	price    int
}

func (s Shop) variants(firstTime bool) (normal, doubled []variant) {
	for _, p := range s.Packs {
		if p.FirstTimeX2 && firstTime {
			doubled = append(doubled, variant{p.ID + "#x2", p.Name + " (x2)", p.Tokens*2 + p.BonusTokens, p.PriceCents})
		}
		normal = append(normal, variant{p.ID, p.Name, p.Tokens + p.BonusTokens, p.PriceCents})
	}
	if len(doubled) > maxFirstTimePack {
		doubled = doubled[:maxFirstTimePack]
	}
	return normal, doubled
}

// subset sums the doubled variants selected by mask.
func subset(doubled []variant, mask int) (tokens, price int) {
	for i, v := range doubled {
		if mask&(1<<i) != 0 {
			tokens += v.tokens
			price += v.price
		}
	}
	return tokens, price
}

func (s Shop) newPlan() Plan {
	return Plan{Purchases: []Purchase{}, Currency: s.Currency}
}

// add appends qty units of v.
func (p *Plan) add(v variant, qty int) {
	if qty == 0 {
		return
	}
	sub := v.price * qty
	p.Purchases = append(p.Purchases, Purchase{
		PackID:     v.id,
		Name:       v.name,
		Qty:        qty,
		UnitPrice:  v.price,
		UnitTokens: v.tokens,
		Subtotal:   sub,
	})
	p.SubCents += sub
	p.TotalTokens += v.tokens * qty
}

func (p *Plan) finish(taxRate float64) {
	p.TaxCents, p.TotalCents = applyTax(p.SubCents, taxRate)
}

// applyTax computes tax and total given a subtotal and a tax rate.
func applyTax(sub int, taxRate float64) (tax int, total int) {
	if taxRate <= 0 {
		return 0, sub
	}
	t := int(math.Round(float64(sub) * taxRate))
	return t, sub + t
}
