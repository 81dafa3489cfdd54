package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/marais-jewelry/marais-backend/api/middleware"
	"github.com/marais-jewelry/marais-backend/api/responses"
	"github.com/marais-jewelry/marais-backend/api/validators"
	cartsvc "github.com/marais-jewelry/marais-backend/internal/cart"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

const maxBonusInputLen = 32

// CartView returns the caller's cart priced with the pending bonus.
func CartView(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCartView(w, r, svc, owner, http.StatusOK, logg)
	}
}

// CartCount returns the badge count.
func CartCount(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		total, err := svc.TotalQuantity(r.Context(), owner)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"count": total})
	}
}

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Size      string    `json:"size" validate:"max=32"`
}

// CartAddItem adds one unit of a product, in a size when the product is sized.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := svc.AddItem(r.Context(), owner, cartsvc.AddItemInput{
			ProductID: payload.ProductID,
			Size:      strings.TrimSpace(payload.Size),
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCartView(w, r, svc, owner, http.StatusCreated, logg)
	}
}

type cartLineAction func(svc cartsvc.Service, r *http.Request, owner cartsvc.Owner, itemID uuid.UUID) error

func cartLineHandler(svc cartsvc.Service, logg *logger.Logger, action cartLineAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := action(svc, r, owner, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCartView(w, r, svc, owner, http.StatusOK, logg)
	}
}

func CartIncrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartLineHandler(svc, logg, func(svc cartsvc.Service, r *http.Request, owner cartsvc.Owner, itemID uuid.UUID) error {
		return svc.Increment(r.Context(), owner, itemID)
	})
}

// CartDecrement removes the line once its quantity would drop below one.
func CartDecrement(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartLineHandler(svc, logg, func(svc cartsvc.Service, r *http.Request, owner cartsvc.Owner, itemID uuid.UUID) error {
		return svc.Decrement(r.Context(), owner, itemID)
	})
}

func CartRemove(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return cartLineHandler(svc, logg, func(svc cartsvc.Service, r *http.Request, owner cartsvc.Owner, itemID uuid.UUID) error {
		return svc.Remove(r.Context(), owner, itemID)
	})
}

type applyBonusRequest struct {
	Bonus json.RawMessage `json:"bonus"`
}

// raw accepts the bonus as a JSON number or string; anything else prices as zero.
func (p applyBonusRequest) raw() string {
	var text string
	if err := json.Unmarshal(p.Bonus, &text); err == nil {
		return validators.SanitizeString(text, maxBonusInputLen)
	}
	return validators.SanitizeString(string(p.Bonus), maxBonusInputLen)
}

// CartApplyBonus records the loyalty points the caller wants to redeem.
func CartApplyBonus(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload applyBonusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := svc.ApplyBonus(r.Context(), owner, payload.raw()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCartView(w, r, svc, owner, http.StatusOK, logg)
	}
}

// CartMerge folds the anonymous session cart into the signed-in user's cart.
func CartMerge(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionKey := middleware.SessionKeyFromContext(r.Context())
		if err := svc.Merge(r.Context(), sessionKey, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeCartView(w, r, svc, cartsvc.UserOwner(userID), http.StatusOK, logg)
	}
}

func writeCartView(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, owner cartsvc.Owner, status int, logg *logger.Logger) {
	view, err := svc.View(r.Context(), owner)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccessStatus(w, status, cartsvc.FromView(view))
}
