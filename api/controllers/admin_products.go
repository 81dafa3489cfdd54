package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marais-jewelry/marais-backend/api/responses"
	"github.com/marais-jewelry/marais-backend/api/validators"
	"github.com/marais-jewelry/marais-backend/internal/catalog"
	"github.com/marais-jewelry/marais-backend/pkg/enums"
	pkgerrors "github.com/marais-jewelry/marais-backend/pkg/errors"
	"github.com/marais-jewelry/marais-backend/pkg/logger"
)

type productRequest struct {
	Title           string           `json:"title" validate:"required,max=255"`
	Article         string           `json:"article" validate:"max=100"`
	Description     string           `json:"description"`
	CategoryID      *uuid.UUID       `json:"category_id"`
	BrandID         *uuid.UUID       `json:"brand_id"`
	CollectionID    *uuid.UUID       `json:"collection_id"`
	Price           int64            `json:"price" validate:"min=0"`
	DiscountPercent *int             `json:"discount_percent" validate:"omitempty,min=0,max=100"`
	Metal           string           `json:"metal" validate:"max=100"`
	Material        string           `json:"material" validate:"max=100"`
	Coverage        string           `json:"coverage" validate:"max=100"`
	Stones          string           `json:"stones" validate:"max=255"`
	Color           string           `json:"color" validate:"max=100"`
	Gender          string           `json:"gender" validate:"omitempty,oneof=women men unisex kids"`
	Size            string           `json:"size" validate:"max=255"`
	Stock           int              `json:"stock" validate:"min=0"`
	SizeStock       string           `json:"size_stock"`
	StoneOption     *string          `json:"stone_option"`
	MaterialType    *string          `json:"material_type"`
	Weight          *decimal.Decimal `json:"weight"`
	MainImageURL    *string          `json:"main_image_url" validate:"omitempty,url"`
	IsActive        *bool            `json:"is_active"`
}

func (p productRequest) toInput() (catalog.ProductInput, error) {
	input := catalog.ProductInput{
		Title:           strings.TrimSpace(p.Title),
		Article:         strings.TrimSpace(p.Article),
		Description:     p.Description,
		CategoryID:      p.CategoryID,
		BrandID:         p.BrandID,
		CollectionID:    p.CollectionID,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		Metal:           strings.TrimSpace(p.Metal),
		Material:        strings.TrimSpace(p.Material),
		Coverage:        strings.TrimSpace(p.Coverage),
		Stones:          strings.TrimSpace(p.Stones),
		Color:           strings.TrimSpace(p.Color),
		Gender:          strings.TrimSpace(p.Gender),
		Size:            strings.TrimSpace(p.Size),
		Stock:           p.Stock,
		SizeStockText:   p.SizeStock,
		Weight:          p.Weight,
		MainImageURL:    p.MainImageURL,
		IsActive:        true,
	}
	if p.IsActive != nil {
		input.IsActive = *p.IsActive
	}
	if p.StoneOption != nil && *p.StoneOption != "" {
		opt, err := enums.ParseStoneOption(*p.StoneOption)
		if err != nil {
			return catalog.ProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid stone_option")
		}
		input.StoneOption = &opt
	}
	if p.MaterialType != nil && *p.MaterialType != "" {
		mt, err := enums.ParseMaterialType(*p.MaterialType)
		if err != nil {
			return catalog.ProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid material_type")
		}
		input.MaterialType = &mt
	}
	return input, nil
}

// AdminCreateProduct creates a catalog product.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// AdminUpdateProduct replaces a product's editable fields.
func AdminUpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		productID, err := uuidParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

// AdminExportProducts returns the whole catalog as an xlsx workbook.
func AdminExportProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		var buf bytes.Buffer
		if err := svc.Export(r.Context(), &buf); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filename := fmt.Sprintf("products_%s.xlsx", time.Now().UTC().Format("20060102_150405"))
		w.Header().Set("Content-Type", catalog.ExportContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil && logg != nil {
			logg.Error(r.Context(), "write catalog export", err)
		}
	}
}
