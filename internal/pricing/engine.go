package pricing

import (
	"strconv"
	"strings"
)

// Line is one priced cart line. UnitPrice is the price captured on the cart
// item, not the live product price.
type Line struct {
	UnitPrice int64
	Quantity  int
}

// ClampReason names the rule that reduced a requested bonus redemption.
type ClampReason string

const (
	ReasonNone      ClampReason = ""
	ReasonNegative  ClampReason = "negative_request"
	ReasonAnonymous ClampReason = "anonymous"
	ReasonBalance   ClampReason = "exceeds_balance"
	ReasonSubtotal  ClampReason = "exceeds_subtotal"
)

// Redemption is the outcome of clamping a requested bonus amount. A zero
// Reason means the request was applied as-is.
type Redemption struct {
	Requested int64       `json:"requested"`
	Applied   int64       `json:"applied"`
	Reason    ClampReason `json:"reason,omitempty"`
}

// Applied builds a redemption that went through unchanged.
func Applied(amount int64) Redemption {
	return Redemption{Requested: amount, Applied: amount}
}

// ClampedFrom builds a redemption reduced from requested to applied.
func ClampedFrom(requested, applied int64, reason ClampReason) Redemption {
	return Redemption{Requested: requested, Applied: applied, Reason: reason}
}

// Clamped reports whether any clamp rule fired.
func (r Redemption) Clamped() bool {
	return r.Reason != ReasonNone
}

// Input carries everything needed to price a cart.
type Input struct {
	Lines           []Line
	DiscountPercent int
	RequestedBonus  int64
	// AvailableBonus is the owner's loyalty balance; ignored when Anonymous.
	AvailableBonus int64
	Anonymous      bool
}

// Quote is the priced breakdown of a cart.
type Quote struct {
	Subtotal        int64      `json:"subtotal"`
	DiscountPercent int        `json:"discount_percent"`
	DiscountAmount  int64      `json:"discount_amount"`
	Bonus           Redemption `json:"bonus"`
	Total           int64      `json:"total"`
}

// Compute prices a cart: subtotal, then the percentage discount, then the
// bonus redemption clamped to the balance and to what is left to pay.
func Compute(in Input) Quote {
	subtotal := Subtotal(in.Lines)
	pct := clampPercent(in.DiscountPercent)
	discount := DiscountAmount(subtotal, pct)

	balance := in.AvailableBonus
	if in.Anonymous || balance < 0 {
		balance = 0
	}
	bonus := ClampBonus(in.RequestedBonus, balance, subtotal-discount, in.Anonymous)

	total := subtotal - discount - bonus.Applied
	if total < 0 {
		total = 0
	}
	return Quote{
		Subtotal:        subtotal,
		DiscountPercent: pct,
		DiscountAmount:  discount,
		Bonus:           bonus,
		Total:           total,
	}
}

// Subtotal sums unit price times quantity, ignoring empty lines.
func Subtotal(lines []Line) int64 {
	var sum int64
	for _, line := range lines {
		if line.Quantity <= 0 || line.UnitPrice <= 0 {
			continue
		}
		sum += line.UnitPrice * int64(line.Quantity)
	}
	return sum
}

// DiscountAmount returns floor(subtotal * pct / 100).
func DiscountAmount(subtotal int64, pct int) int64 {
	if subtotal <= 0 {
		return 0
	}
	return subtotal * int64(clampPercent(pct)) / 100
}

// ClampBonus applies the two redemption limits in order: first [0, balance],
// then [0, remaining]. Anonymous owners never redeem.
func ClampBonus(requested, balance, remaining int64, anonymous bool) Redemption {
	if requested < 0 {
		return ClampedFrom(requested, 0, ReasonNegative)
	}
	if requested == 0 {
		return Applied(0)
	}
	if anonymous {
		return ClampedFrom(requested, 0, ReasonAnonymous)
	}

	result := Applied(requested)
	if balance < 0 {
		balance = 0
	}
	if result.Applied > balance {
		result = ClampedFrom(requested, balance, ReasonBalance)
	}
	if remaining < 0 {
		remaining = 0
	}
	if result.Applied > remaining {
		result = ClampedFrom(requested, remaining, ReasonSubtotal)
	}
	return result
}

// ParseBonusInput coerces raw form input into a redemption request.
// Anything that is not a non-negative integer becomes 0.
func ParseBonusInput(raw string) int64 {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

func clampPercent(pct int) int {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}
