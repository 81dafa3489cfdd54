package controllers

import (
	"errors"
	"net/http"

	"github.com/marais-jewelry/marais-backend/api/responses"
	checkoutsvc "github.com/marais-jewelry/marais-backend/internal/checkout"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

const cartPath = "/api/v1/cart"

// Checkout settles the caller's cart into an order and returns the WhatsApp
// hand-off link. An empty cart sends the client back to the cart view.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		owner, err := ownerFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Settle(r.Context(), owner)
		if err != nil {
			if errors.Is(err, checkoutsvc.ErrEmptyCart) {
				http.Redirect(w, r, cartPath, http.StatusSeeOther)
				return
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
