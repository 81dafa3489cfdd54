package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marais-jewelry/marais-backend/internal/cart"
	"github.com/marais-jewelry/marais-backend/internal/ledger"
	"github.com/marais-jewelry/marais-backend/internal/users"
	"github.com/marais-jewelry/marais-backend/pkg/db/models"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
	"github.com/marais-jewelry/marais-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type refundRecorder interface {
	AddRefund(points int64)
}

// Service defines order reads and the admin status transition.
type Service interface {
	ListForOwner(ctx context.Context, owner cart.Owner, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, owner cart.Owner, orderID uuid.UUID) (*OrderDTO, error)
	List(ctx context.Context, filter AdminFilter, params pagination.Params) (*OrderList, error)
	TransitionStatus(ctx context.Context, input TransitionInput) (*TransitionResult, error)
	AttachSessionOrders(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error)
}

// TransitionInput is an admin status change.
type TransitionInput struct {
	OrderID     uuid.UUID
	Status      enums.OrderStatus
	ActorUserID uuid.UUID
}

// TransitionResult reports the new state and any points returned.
type TransitionResult struct {
	Order          *OrderDTO `json:"order"`
	PreviousStatus string    `json:"previous_status"`
	RefundedPoints int64     `json:"refunded_points"`
}

type service struct {
	repo     Repository
	tx       txRunner
	accounts users.AccountRepository
	ledger   ledger.Service
	metrics  refundRecorder
	logg     *logger.Logger
}

// NewService wires the orders service.
func NewService(repo Repository, tx txRunner, accounts users.AccountRepository, ledgerSvc ledger.Service, metrics refundRecorder, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if accounts == nil {
		return nil, fmt.Errorf("account repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if metrics == nil {
		return nil, fmt.Errorf("metrics recorder required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		tx:       tx,
		accounts: accounts,
		ledger:   ledgerSvc,
		metrics:  metrics,
		logg:     logg,
	}, nil
}

func (s *service) ListForOwner(ctx context.Context, owner cart.Owner, params pagination.Params) (*OrderList, error) {
	if !owner.Valid() {
		return &OrderList{Orders: []OrderDTO{}}, nil
	}
	params = pagination.Normalize(params, pagination.DefaultPerPage)
	rows, total, err := s.repo.ListForOwner(ctx, owner, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderList(rows, params, total), nil
}

func (s *service) Get(ctx context.Context, owner cart.Owner, orderID uuid.UUID) (*OrderDTO, error) {
	if !owner.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order, err := s.repo.FindForOwner(ctx, orderID, owner)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	dto := FromModel(order)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter AdminFilter, params pagination.Params) (*OrderList, error) {
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}
	params = pagination.Normalize(params, pagination.DefaultPerPage)
	rows, total, err := s.repo.List(ctx, filter, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return newOrderList(rows, params, total), nil
}

// TransitionStatus moves an order to a new status. Entering cancelled from
// any other status returns the redeemed bonus to the customer; the
// conditional update and the ledger entry keep that refund to one per order.
func (s *service) TransitionStatus(ctx context.Context, input TransitionInput) (*TransitionResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails(map[string]any{"allowed": enums.OrderStatusValues()})
	}

	var (
		previous enums.OrderStatus
		refunded int64
		updated  *models.Order
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		previous = order.Status

		if input.Status.IsCancelled() {
			changed, err := repo.MarkCancelled(ctx, order.ID)
			if err != nil {
				return err
			}
			if changed {
				refunded, err = s.refund(ctx, tx, order)
				if err != nil {
					return err
				}
			}
		} else if order.Status != input.Status {
			if err := repo.UpdateStatus(ctx, order.ID, input.Status); err != nil {
				return err
			}
		}

		updated, err = repo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "transition order status")
	}

	logCtx := s.logg.WithOrderID(ctx, updated.ID.String())
	logCtx = s.logg.WithFields(logCtx, map[string]any{
		"from":            string(previous),
		"to":              string(updated.Status),
		"refunded_points": refunded,
		"actor_user_id":   input.ActorUserID.String(),
	})
	s.logg.Info(logCtx, "order status changed")
	s.metrics.AddRefund(refunded)

	dto := FromModel(updated)
	return &TransitionResult{Order: &dto, PreviousStatus: string(previous), RefundedPoints: refunded}, nil
}

// refund credits bonuses_used back once. An existing refund event means a
// previous cancellation already returned the points.
func (s *service) refund(ctx context.Context, tx *gorm.DB, order *models.Order) (int64, error) {
	if order.UserID == nil || order.BonusesUsed <= 0 {
		return 0, nil
	}
	ledgerTx := s.ledger.WithTx(tx)
	done, err := ledgerTx.HasEvent(ctx, order.ID, enums.LoyaltyEventTypeRefunded)
	if err != nil {
		return 0, err
	}
	if done {
		return 0, nil
	}
	if err := s.accounts.WithTx(tx).CreditPoints(ctx, *order.UserID, order.BonusesUsed); err != nil {
		return 0, err
	}
	if _, err := ledgerTx.RecordEvent(ctx, ledger.RecordLoyaltyEventInput{
		UserID:  *order.UserID,
		OrderID: order.ID,
		Type:    enums.LoyaltyEventTypeRefunded,
		Points:  order.BonusesUsed,
	}); err != nil {
		return 0, err
	}
	return order.BonusesUsed, nil
}

func (s *service) AttachSessionOrders(ctx context.Context, sessionKey string, userID uuid.UUID) (int64, error) {
	n, err := s.repo.AttachSessionOrders(ctx, sessionKey, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach session orders")
	}
	return n, nil
}
