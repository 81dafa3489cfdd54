package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"new", "waiting_payment", "purchased", "cancelled", "sent"} {
		status, err := ParseOrderStatus(raw)
		if err != nil {
			t.Fatalf("expected %q to parse: %v", raw, err)
		}
		if !status.IsValid() {
			t.Fatalf("expected %q to be valid", raw)
		}
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
	if !OrderStatusCancelled.IsCancelled() || OrderStatusSent.IsCancelled() {
		t.Fatal("IsCancelled mismatch")
	}
}

func TestParseProductOptions(t *testing.T) {
	if _, err := ParseStoneOption("with_stones"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStoneOption("gems"); err == nil {
		t.Fatal("expected invalid stone option error")
	}
	if _, err := ParseMaterialType("jewelry"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if MaterialType("wood").IsValid() {
		t.Fatal("wood should not be a valid material type")
	}
}

func TestParseLoyaltyEventTypeAndRole(t *testing.T) {
	if _, err := ParseLoyaltyEventType("bonus_refunded"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseLoyaltyEventType("bonus_expired"); err == nil {
		t.Fatal("expected invalid loyalty event type")
	}
	if role, err := ParseUserRole("admin"); err != nil || role != UserRoleAdmin {
		t.Fatalf("expected admin role, got %q err=%v", role, err)
	}
}
