package controllers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dkwapong/storefront-backend/api/responses"
	"github.com/dkwapong/storefront-backend/api/validators"
	"github.com/dkwapong/storefront-backend/internal/catalog"
	pkgerrors "github.com/dkwapong/storefront-backend/pkg/errors"
	"github.com/dkwapong/storefront-backend/pkg/logger"
	"github.com/dkwapong/storefront-backend/pkg/pagination"
)

// Multipart memory ceiling for product creation. Larger images spill to disk.
const maxProductFormMemory = 10 << 20

// maxImageBytes caps the accepted image payload.
const maxImageBytes = 5 << 20

// ProductsCreate handles product creation with an optional image part.
func ProductsCreate(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		if err := r.ParseMultipartForm(maxProductFormMemory); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart form"))
			return
		}

		payload, err := productRequestFromForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ValidateStruct(&payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		imageBytes, err := readImagePart(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), payload, imageBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func productRequestFromForm(r *http.Request) (catalog.CreateProductRequest, error) {
	var payload catalog.CreateProductRequest

	payload.Name = strings.TrimSpace(r.FormValue("name"))
	payload.Description = strings.TrimSpace(r.FormValue("description"))
	payload.Summary = strings.TrimSpace(r.FormValue("summary"))

	rawPrice := strings.TrimSpace(r.FormValue("price"))
	if rawPrice == "" {
		return payload, pkgerrors.New(pkgerrors.CodeValidation, "price is required")
	}
	price, err := decimal.NewFromString(rawPrice)
	if err != nil {
		return payload, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid price")
	}
	payload.Price = price

	if raw := strings.TrimSpace(r.FormValue("is_available")); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			return payload, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid is_available")
		}
		payload.IsAvailable = available
	}

	if raw := strings.TrimSpace(r.FormValue("quantity")); raw != "" {
		quantity, err := strconv.Atoi(raw)
		if err != nil {
			return payload, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid quantity")
		}
		payload.Quantity = quantity
	}

	return payload, nil
}

func readImagePart(r *http.Request) ([]byte, error) {
	file, _, err := r.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid image part")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read image part")
	}
	if len(data) > maxImageBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "image exceeds the size limit")
	}
	return data, nil
}

// ProductsGet returns one listing by id.
func ProductsGet(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		product, err := svc.GetProduct(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ProductsList returns a page of the full catalog.
func ProductsList(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return listHandler(svc, logg, func(r *http.Request, params pagination.Params) (pagination.Page[catalog.ProductDTO], error) {
		return svc.ListProducts(r.Context(), params)
	})
}

// ProductsListAvailable returns a page of purchasable listings.
func ProductsListAvailable(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return listHandler(svc, logg, func(r *http.Request, params pagination.Params) (pagination.Page[catalog.ProductDTO], error) {
		return svc.ListAvailable(r.Context(), params)
	})
}

func listHandler(svc catalog.Service, logg *logger.Logger, fetch func(*http.Request, pagination.Params) (pagination.Page[catalog.ProductDTO], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := fetch(r, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// ProductsSearch filters and sorts the catalog.
func ProductsSearch(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		descending, err := validators.ParseQueryBool(r, "desc", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		search := catalog.SearchParams{
			Keyword:    strings.TrimSpace(r.URL.Query().Get("keyword")),
			SortBy:     strings.ToLower(strings.TrimSpace(r.URL.Query().Get("sort_by"))),
			Descending: descending,
		}

		page, err := svc.Search(r.Context(), search, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return pagination.Params{}, err
	}
	pageSize, err := validators.ParseQueryInt(r, "page_size", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{Page: page, PageSize: pageSize}, nil
}
