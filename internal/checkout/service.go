package checkout

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/cart"
	"github.com/marais-jewelry/marais-backend/internal/inventory"
	"github.com/marais-jewelry/marais-backend/internal/ledger"
	"github.com/marais-jewelry/marais-backend/internal/orders"
	"github.com/marais-jewelry/marais-backend/internal/pricing"
	"github.com/marais-jewelry/marais-backend/internal/users"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

// ErrEmptyCart is returned when there is nothing to settle. No order is created.
var ErrEmptyCart = pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockLedger interface {
	ApplySettlement(ctx context.Context, tx *gorm.DB, lines []inventory.Line) ([]inventory.Result, error)
}

type settlementRecorder interface {
	ObserveSettlement(anonymous bool, finalPrice, bonusUsed int64, oversold int)
}

// Service converts a cart into an order.
type Service interface {
	Settle(ctx context.Context, owner cart.Owner) (*Result, error)
}

// Result is a settled order plus the hand-off message.
type Result struct {
	Order       orders.OrderDTO `json:"order"`
	Message     string          `json:"message"`
	WhatsAppURL string          `json:"whatsapp_url"`
}

// Deps bundles the collaborators of the checkout service.
type Deps struct {
	Tx             txRunner
	Carts          cart.CartRepository
	Orders         orders.Repository
	Accounts       users.AccountRepository
	Ledger         ledger.Service
	Stock          stockLedger
	Previews       pricing.PreviewStore
	Metrics        settlementRecorder
	Logger         *logger.Logger
	WhatsAppNumber string
}

type service struct {
	Deps
}

// NewService validates deps and returns the checkout service.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case deps.Carts == nil:
		return nil, fmt.Errorf("cart repository required")
	case deps.Orders == nil:
		return nil, fmt.Errorf("orders repository required")
	case deps.Accounts == nil:
		return nil, fmt.Errorf("account repository required")
	case deps.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case deps.Stock == nil:
		return nil, fmt.Errorf("stock ledger required")
	case deps.Previews == nil:
		return nil, fmt.Errorf("preview store required")
	case deps.Metrics == nil:
		return nil, fmt.Errorf("metrics recorder required")
	case deps.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case deps.WhatsAppNumber == "":
		return nil, fmt.Errorf("whatsapp number required")
	}
	return &service{Deps: deps}, nil
}

// Settle prices the owner's cart authoritatively and converts it into an
// order inside one transaction. The cart row stays locked until commit and
// its lines are cleared before commit, so a second settle of the same cart
// finds it empty.
func (s *service) Settle(ctx context.Context, owner cart.Owner) (*Result, error) {
	if !owner.Valid() {
		return nil, ErrEmptyCart
	}
	current, err := s.Carts.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEmptyCart
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(current.Items) == 0 {
		return nil, ErrEmptyCart
	}

	pending := int64(0)
	if !owner.Anonymous() {
		pending, err = pricing.PendingBonus(ctx, s.Previews, current.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing preview")
		}
	}

	var (
		order    *models.Order
		quote    pricing.Quote
		oversold int
	)
	err = s.Tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.Carts.WithTx(tx)
		locked, err := carts.LockByOwner(ctx, owner)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEmptyCart
			}
			return err
		}
		items, err := carts.ListItems(ctx, locked.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		terms := cart.Terms{}
		if !owner.Anonymous() {
			user, err := s.Accounts.WithTx(tx).LockByID(ctx, *owner.UserID)
			if err != nil {
				return err
			}
			terms = cart.Terms{DiscountPercent: user.DiscountPercent, Balance: user.LoyaltyPoints}
		}
		quote = pricing.Compute(pricing.Input{
			Lines:           cart.PricingLines(items),
			DiscountPercent: terms.DiscountPercent,
			RequestedBonus:  pending,
			AvailableBonus:  terms.Balance,
			Anonymous:       owner.Anonymous(),
		})

		order = buildOrder(owner, items, quote)
		if _, err := s.Orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}

		results, err := s.Stock.ApplySettlement(ctx, tx, stockLines(order.Items))
		if err != nil {
			return err
		}
		oversold = inventory.Shortfall(results)

		if order.BonusesUsed > 0 {
			if err := s.Accounts.WithTx(tx).DebitPoints(ctx, *owner.UserID, order.BonusesUsed); err != nil {
				return err
			}
			if _, err := s.Ledger.WithTx(tx).RecordEvent(ctx, ledger.RecordLoyaltyEventInput{
				UserID:  *owner.UserID,
				OrderID: order.ID,
				Type:    enums.LoyaltyEventTypeRedeemed,
				Points:  order.BonusesUsed,
			}); err != nil {
				return err
			}
		}

		return carts.ClearItems(ctx, locked.ID)
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			return nil, ErrEmptyCart
		case errors.Is(err, users.ErrInsufficientPoints):
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "loyalty balance changed during checkout")
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle cart")
	}

	logCtx := s.Logger.WithOrderID(s.Logger.WithCartID(ctx, current.ID.String()), order.ID.String())
	if err := s.Previews.Clear(ctx, current.ID); err != nil {
		s.Logger.Warn(logCtx, "failed to clear pricing preview after settlement")
	}
	s.Metrics.ObserveSettlement(owner.Anonymous(), order.FinalPrice, order.BonusesUsed, oversold)
	logCtx = s.Logger.WithFields(logCtx, map[string]any{
		"order_number": order.OrderNumber,
		"final_price":  order.FinalPrice,
		"bonuses_used": order.BonusesUsed,
		"oversold":     oversold,
	})
	if quote.Bonus.Clamped() && pending > 0 {
		logCtx = s.Logger.WithField(logCtx, "bonus_clamp_reason", string(quote.Bonus.Reason))
	}
	s.Logger.Info(logCtx, "cart settled")

	message := SummaryMessage(order)
	return &Result{
		Order:       orders.FromModel(order),
		Message:     message,
		WhatsAppURL: WhatsAppURL(s.WhatsAppNumber, message),
	}, nil
}

func buildOrder(owner cart.Owner, items []models.CartItem, quote pricing.Quote) *models.Order {
	order := &models.Order{
		Status:          enums.OrderStatusSent,
		ItemsTotal:      quote.Subtotal,
		DiscountPercent: quote.DiscountPercent,
		DiscountAmount:  quote.DiscountAmount,
		BonusesUsed:     quote.Bonus.Applied,
		FinalPrice:      quote.Total,
		Items:           make([]models.OrderItem, 0, len(items)),
	}
	if owner.Anonymous() {
		key := owner.SessionKey
		order.SessionKey = &key
	} else {
		id := *owner.UserID
		order.UserID = &id
	}
	for _, item := range items {
		line := models.OrderItem{
			Quantity: item.Quantity,
			Price:    item.Price,
		}
		if item.Product != nil {
			productID := item.ProductID
			line.ProductID = &productID
			line.Title = item.Product.Title
		}
		if item.Size != "" {
			size := item.Size
			line.Size = &size
		}
		order.Items = append(order.Items, line)
	}
	return order
}

func stockLines(items []models.OrderItem) []inventory.Line {
	lines := make([]inventory.Line, 0, len(items))
	for _, item := range items {
		line := inventory.Line{ProductID: item.ProductID, Quantity: item.Quantity}
		if item.Size != nil {
			line.Size = *item.Size
		}
		lines = append(lines, line)
	}
	return lines
}
