package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/pricing"
	"github.com/marais-jewelry/marais-backend/pkg/db"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type accountLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type sessionOrderAttacher interface {
	AttachSessionOrders(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error)
}

// Service exposes cart operations for both signed-in and anonymous owners.
type Service interface {
	View(ctx context.Context, owner Owner) (*View, error)
	AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.CartItem, error)
	Increment(ctx context.Context, owner Owner, itemID uuid.UUID) error
	Decrement(ctx context.Context, owner Owner, itemID uuid.UUID) error
	Remove(ctx context.Context, owner Owner, itemID uuid.UUID) error
	ApplyBonus(ctx context.Context, owner Owner, raw string) (*pricing.Preview, error)
	TotalQuantity(ctx context.Context, owner Owner) (int, error)
	Merge(ctx context.Context, sessionKey string, userID uuid.UUID) error
}

// AddItemInput is the add-to-cart request.
type AddItemInput struct {
	ProductID uuid.UUID
	Size      string
}

// View is a cart with its priced preview.
type View struct {
	Cart         *models.Cart
	Quote        pricing.Quote
	Balance      int64
	PendingBonus int64
}

// Terms are the owner-specific pricing inputs.
type Terms struct {
	DiscountPercent int
	Balance         int64
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
	accounts accountLoader
	previews pricing.PreviewStore
	orders   sessionOrderAttacher
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader, accounts accountLoader, previews pricing.PreviewStore, orders sessionOrderAttacher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account loader required")
	}
	if previews == nil {
		return nil, fmt.Errorf("preview store required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order attacher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		products: products,
		accounts: accounts,
		previews: previews,
		orders:   orders,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// PricingLines converts cart lines into pricing engine input.
func PricingLines(items []models.CartItem) []pricing.Line {
	lines := make([]pricing.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, pricing.Line{UnitPrice: item.Price, Quantity: item.Quantity})
	}
	return lines
}

// LoadTerms reads the discount rate and loyalty balance for owner. Anonymous
// owners get neither.
func LoadTerms(ctx context.Context, accounts accountLoader, owner Owner) (Terms, error) {
	if owner.Anonymous() {
		return Terms{}, nil
	}
	user, err := accounts.FindByID(ctx, *owner.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Terms{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return Terms{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return Terms{DiscountPercent: user.DiscountPercent, Balance: user.LoyaltyPoints}, nil
}

func (s *service) View(ctx context.Context, owner Owner) (*View, error) {
	cart, err := s.resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	terms, err := LoadTerms(ctx, s.accounts, owner)
	if err != nil {
		return nil, err
	}
	pending, err := pricing.PendingBonus(ctx, s.previews, cart.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pricing preview")
	}
	quote := pricing.Compute(pricing.Input{
		Lines:           PricingLines(cart.Items),
		DiscountPercent: terms.DiscountPercent,
		RequestedBonus:  pending,
		AvailableBonus:  terms.Balance,
		Anonymous:       owner.Anonymous(),
	})
	// The clamped amount replaces the stored request so a later, larger cart
	// does not resurrect it.
	if quote.Bonus.Applied != pending {
		if err := s.previews.Save(ctx, pricing.Preview{
			CartID:       cart.ID,
			PendingBonus: quote.Bonus.Applied,
			Quote:        quote,
			UpdatedAt:    s.now().UTC(),
		}); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save pricing preview")
		}
	}
	return &View{Cart: cart, Quote: quote, Balance: terms.Balance, PendingBonus: quote.Bonus.Applied}, nil
}

func (s *service) AddItem(ctx context.Context, owner Owner, input AddItemInput) (*models.CartItem, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if product.HasSizeStock() {
		if input.Size == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "size is required for this product")
		}
		if _, ok := product.SizeStock[input.Size]; !ok {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "size is not offered for this product").
				WithDetails(map[string]any{"size": input.Size})
		}
	}

	cart, err := s.resolve(ctx, owner)
	if err != nil {
		return nil, err
	}

	price := product.FinalPrice()
	var item *models.CartItem
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		existing, findErr := txRepo.FindItem(ctx, cart.ID, product.ID, input.Size)
		switch {
		case findErr == nil:
			if err := txRepo.IncrementItem(ctx, existing.ID, 1, &price); err != nil {
				return err
			}
			existing.Quantity++
			existing.Price = price
			item = existing
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			item = &models.CartItem{
				CartID:    cart.ID,
				ProductID: product.ID,
				Size:      input.Size,
				Quantity:  1,
				Price:     price,
			}
			if err := txRepo.CreateItem(ctx, item); err != nil {
				return err
			}
		default:
			return findErr
		}
		return txRepo.Touch(ctx, cart.ID)
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "cart line was added concurrently")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}
	item.Product = product
	return item, nil
}

func (s *service) Increment(ctx context.Context, owner Owner, itemID uuid.UUID) error {
	cart, item, err := s.findOwnedItem(ctx, owner, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.IncrementItem(ctx, item.ID, 1, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment cart item")
	}
	return s.touch(ctx, cart.ID)
}

// Decrement lowers the quantity by one and deletes the line at quantity 1.
func (s *service) Decrement(ctx context.Context, owner Owner, itemID uuid.UUID) error {
	cart, item, err := s.findOwnedItem(ctx, owner, itemID)
	if err != nil {
		return err
	}
	if item.Quantity <= 1 {
		err = s.repo.DeleteItem(ctx, cart.ID, item.ID)
	} else {
		err = s.repo.IncrementItem(ctx, item.ID, -1, nil)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement cart item")
	}
	return s.touch(ctx, cart.ID)
}

func (s *service) Remove(ctx context.Context, owner Owner, itemID uuid.UUID) error {
	cart, err := s.existing(ctx, owner)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	return s.touch(ctx, cart.ID)
}

// ApplyBonus clamps the requested redemption and stores it as the pending
// bonus of the cart preview.
func (s *service) ApplyBonus(ctx context.Context, owner Owner, raw string) (*pricing.Preview, error) {
	cart, err := s.resolve(ctx, owner)
	if err != nil {
		return nil, err
	}
	terms, err := LoadTerms(ctx, s.accounts, owner)
	if err != nil {
		return nil, err
	}
	quote := pricing.Compute(pricing.Input{
		Lines:           PricingLines(cart.Items),
		DiscountPercent: terms.DiscountPercent,
		RequestedBonus:  pricing.ParseBonusInput(raw),
		AvailableBonus:  terms.Balance,
		Anonymous:       owner.Anonymous(),
	})
	preview := pricing.Preview{
		CartID:       cart.ID,
		PendingBonus: quote.Bonus.Applied,
		Quote:        quote,
		UpdatedAt:    s.now().UTC(),
	}
	if err := s.previews.Save(ctx, preview); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save pricing preview")
	}
	if quote.Bonus.Clamped() {
		logCtx := s.logg.WithCartID(ctx, cart.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"requested": quote.Bonus.Requested,
			"applied":   quote.Bonus.Applied,
			"reason":    string(quote.Bonus.Reason),
		})
		s.logg.Info(logCtx, "bonus redemption clamped")
	}
	return &preview, nil
}

func (s *service) TotalQuantity(ctx context.Context, owner Owner) (int, error) {
	if !owner.Valid() {
		return 0, nil
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	total, err := s.repo.TotalQuantity(ctx, cart.ID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count cart items")
	}
	return total, nil
}

// Merge folds the anonymous session cart into the user's cart after sign-in.
// Lines with the same product and size are summed; the session cart is then
// deleted and the session's past orders are attached to the user.
func (s *service) Merge(ctx context.Context, sessionKey string, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	anonymous := SessionOwner(sessionKey)
	if anonymous.SessionKey == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session key is required")
	}

	var mergedFrom uuid.UUID
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		source, err := txRepo.LockByOwner(ctx, anonymous)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		target, err := s.resolveWith(ctx, txRepo, UserOwner(userID))
		if err != nil {
			return err
		}
		items, err := txRepo.ListItems(ctx, source.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			existing, findErr := txRepo.FindItem(ctx, target.ID, item.ProductID, item.Size)
			switch {
			case findErr == nil:
				if err := txRepo.IncrementItem(ctx, existing.ID, item.Quantity, nil); err != nil {
					return err
				}
			case errors.Is(findErr, gorm.ErrRecordNotFound):
				if err := txRepo.MoveItem(ctx, item.ID, target.ID); err != nil {
					return err
				}
			default:
				return findErr
			}
		}
		if err := txRepo.Delete(ctx, source.ID); err != nil {
			return err
		}
		mergedFrom = source.ID
		return txRepo.Touch(ctx, target.ID)
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge carts")
	}

	if mergedFrom != uuid.Nil {
		if err := s.previews.Clear(ctx, mergedFrom); err != nil {
			s.logg.Warn(s.logg.WithCartID(ctx, mergedFrom.String()), "failed to clear merged cart preview")
		}
	}
	if _, err := s.orders.AttachSessionOrders(ctx, anonymous.SessionKey, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach session orders")
	}
	return nil
}

func (s *service) resolve(ctx context.Context, owner Owner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session key is required")
	}
	cart, err := s.resolveWith(ctx, s.repo, owner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve cart")
	}
	return cart, nil
}

// resolveWith returns the owner's cart, creating it on first use. A
// concurrent create that wins the unique index is reloaded.
func (s *service) resolveWith(ctx context.Context, repo CartRepository, owner Owner) (*models.Cart, error) {
	cart, err := repo.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	record := &models.Cart{}
	if owner.Anonymous() {
		key := owner.SessionKey
		record.SessionKey = &key
	} else {
		id := *owner.UserID
		record.UserID = &id
	}
	created, err := repo.Create(ctx, record)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return repo.FindByOwner(ctx, owner)
		}
		return nil, err
	}
	created.Items = []models.CartItem{}
	return created, nil
}

func (s *service) existing(ctx context.Context, owner Owner) (*models.Cart, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	cart, err := s.repo.FindByOwner(ctx, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return cart, nil
}

func (s *service) findOwnedItem(ctx context.Context, owner Owner, itemID uuid.UUID) (*models.Cart, *models.CartItem, error) {
	cart, err := s.existing(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	item, err := s.repo.FindItemByID(ctx, cart.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}
	return cart, item, nil
}

func (s *service) touch(ctx context.Context, cartID uuid.UUID) error {
	if err := s.repo.Touch(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "touch cart")
	}
	return nil
}
