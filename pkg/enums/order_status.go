package enums

import "fmt"

// OrderStatus tracks the lifecycle of a storefront order.
type OrderStatus string

const (
	OrderStatusNew            OrderStatus = "new"
	OrderStatusWaitingPayment OrderStatus = "waiting_payment"
	OrderStatusPurchased      OrderStatus = "purchased"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusSent           OrderStatus = "sent"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusNew,
	OrderStatusWaitingPayment,
	OrderStatusPurchased,
	OrderStatusCancelled,
	OrderStatusSent,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsCancelled reports whether the status is the terminal cancelled state.
func (s OrderStatus) IsCancelled() bool {
	return s == OrderStatusCancelled
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// OrderStatusValues lists every accepted status as strings.
func OrderStatusValues() []string {
	out := make([]string, 0, len(validOrderStatuses))
	for _, s := range validOrderStatuses {
		out = append(out, string(s))
	}
	return out
}
