package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/marais-jewelry/marais-backend/api/responses"
	"github.com/marais-jewelry/marais-backend/api/validators"
	"github.com/marais-jewelry/marais-backend/internal/orders"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

// AdminListOrders lists every order, optionally filtered by status or customer.
func AdminListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		filter, err := adminOrderFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		list, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func adminOrderFilter(r *http.Request) (orders.AdminFilter, error) {
	var filter orders.AdminFilter
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
				WithDetails(map[string]any{"allowed": enums.OrderStatusValues()})
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(q.Get("user_id")); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id")
		}
		filter.UserID = &userID
	}
	return filter, nil
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// AdminTransitionOrderStatus moves an order to a new status. Cancelling an
// order that redeemed loyalty points returns them to the customer once.
func AdminTransitionOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		actorID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload orderStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(strings.TrimSpace(payload.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
				WithDetails(map[string]any{"allowed": enums.OrderStatusValues()}))
			return
		}

		result, err := svc.TransitionStatus(r.Context(), orders.TransitionInput{
			OrderID:     orderID,
			Status:      status,
			ActorUserID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
