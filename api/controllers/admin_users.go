package controllers

import (
	"net/http"

	"github.com/marais-jewelry/marais-backend/api/responses"
	"github.com/marais-jewelry/marais-backend/api/validators"
	"github.com/marais-jewelry/marais-backend/internal/users"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

type discountRequest struct {
	DiscountPercent *int `json:"discount_percent" validate:"required,min=0,max=100"`
}

// AdminSetUserDiscount sets a customer's personal discount percentage.
func AdminSetUserDiscount(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable"))
			return
		}
		userID, err := uuidParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		user, err := svc.SetDiscountPercent(r.Context(), userID, *payload.DiscountPercent)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, user)
	}
}
