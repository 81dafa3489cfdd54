package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/marais-jewelry/marais-backend/pkg/db/models"
)

const whatsAppBaseURL = "https://wa.me/"

// SummaryMessage renders the order text the customer sends to the shop.
func SummaryMessage(order *models.Order) string {
	var b strings.Builder
	b.WriteString("Здравствуйте! Хочу оформить заказ:\n")
	for _, item := range order.Items {
		b.WriteString("- ")
		b.WriteString(item.Title)
		if item.Size != nil && *item.Size != "" {
			fmt.Fprintf(&b, " (Размер: %s)", *item.Size)
		}
		fmt.Fprintf(&b, " x%d — %d %s\n", item.Quantity, item.Cost(), models.DefaultCurrency)
	}
	if order.DiscountAmount > 0 {
		fmt.Fprintf(&b, "Скидка (%d%%): -%d %s\n", order.DiscountPercent, order.DiscountAmount, models.DefaultCurrency)
	}
	if order.BonusesUsed > 0 {
		fmt.Fprintf(&b, "Списано бонусов: -%d B\n", order.BonusesUsed)
	}
	fmt.Fprintf(&b, "\nИтого к оплате: %d %s\n", order.FinalPrice, models.DefaultCurrency)
	b.WriteString("\nПожалуйста, подтвердите заказ.")
	return b.String()
}

// WhatsAppURL builds the click-to-chat link carrying message.
func WhatsAppURL(number, message string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	return whatsAppBaseURL + digits + "?text=" + url.QueryEscape(message)
}
