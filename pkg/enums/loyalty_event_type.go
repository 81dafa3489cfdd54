package enums

import "fmt"

// LoyaltyEventType classifies entries in the loyalty points ledger.
type LoyaltyEventType string

const (
	LoyaltyEventTypeRedeemed LoyaltyEventType = "bonus_redeemed"
	LoyaltyEventTypeRefunded LoyaltyEventType = "bonus_refunded"
)

var validLoyaltyEventTypes = []LoyaltyEventType{
	LoyaltyEventTypeRedeemed,
	LoyaltyEventTypeRefunded,
}

// IsValid reports whether the value matches a known loyalty event type.
func (t LoyaltyEventType) IsValid() bool {
	for _, candidate := range validLoyaltyEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseLoyaltyEventType converts raw input into LoyaltyEventType.
func ParseLoyaltyEventType(value string) (LoyaltyEventType, error) {
	for _, candidate := range validLoyaltyEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loyalty event type %q", value)
}
