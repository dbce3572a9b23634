package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dkwapong/storefront-backend/pkg/db"
	"github.com/dkwapong/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dkwapong/storefront-backend/pkg/errors"
	"github.com/dkwapong/storefront-backend/pkg/pagination"
	"github.com/dkwapong/storefront-backend/pkg/storage/images"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const uniqueCategoryConstraint = "idx_categories_name_lower"

// Service exposes the catalog operations consumed by the HTTP layer.
type Service interface {
	CreateProduct(ctx context.Context, req CreateProductRequest, imageBytes []byte) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, params pagination.Params) (pagination.Page[ProductDTO], error)
	ListAvailable(ctx context.Context, params pagination.Params) (pagination.Page[ProductDTO], error)
	Search(ctx context.Context, search SearchParams, params pagination.Params) (pagination.Page[ProductDTO], error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error)
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
}

type service struct {
	products   ProductRepository
	categories CategoryRepository
	uploader   images.Uploader
}

// ServiceParams bundles the dependencies required to build a catalog service.
type ServiceParams struct {
	ProductRepo  ProductRepository
	CategoryRepo CategoryRepository
	Uploader     images.Uploader
}

// NewService constructs a catalog service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	if params.CategoryRepo == nil {
		return nil, fmt.Errorf("category repository is required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("image uploader is required")
	}
	return &service{
		products:   params.ProductRepo,
		categories: params.CategoryRepo,
		uploader:   params.Uploader,
	}, nil
}

// CreateProduct stores the optional image first, then persists the listing.
// An upload failure aborts before any DB write.
func (s *service) CreateProduct(ctx context.Context, req CreateProductRequest, imageBytes []byte) (*ProductDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if req.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if req.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}

	product := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Summary:     strings.TrimSpace(req.Summary),
		Price:       req.Price,
		IsAvailable: req.IsAvailable,
		Quantity:    req.Quantity,
	}

	if len(imageBytes) > 0 {
		imageID := uuid.New()
		if err := s.uploader.Upload(ctx, imageID, imageBytes, "image/png"); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "image upload failed")
		}
		url := s.uploader.PublicURL(imageID)
		product.ImageID = &imageID
		product.ImageURL = &url
	}

	created, err := s.products.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create product")
	}
	return ProductFromModel(created), nil
}

// GetProduct loads a single listing.
func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return ProductFromModel(product), nil
}

// ListProducts returns one page of the full catalog, newest first.
func (s *service) ListProducts(ctx context.Context, params pagination.Params) (pagination.Page[ProductDTO], error) {
	return s.listPage(ctx, params, false)
}

// ListAvailable returns one page of purchasable listings, newest first.
func (s *service) ListAvailable(ctx context.Context, params pagination.Params) (pagination.Page[ProductDTO], error) {
	return s.listPage(ctx, params, true)
}

func (s *service) listPage(ctx context.Context, params pagination.Params, onlyAvailable bool) (pagination.Page[ProductDTO], error) {
	params = pagination.Normalize(params)
	rows, total, err := s.products.List(ctx, params, onlyAvailable)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	return pagination.NewPage(ProductsFromModels(rows), params, total), nil
}

// Search filters, sorts, then paginates the catalog.
func (s *service) Search(ctx context.Context, search SearchParams, params pagination.Params) (pagination.Page[ProductDTO], error) {
	params = pagination.Normalize(params)
	rows, total, err := s.products.Search(ctx, search, params)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "search products")
	}
	return pagination.NewPage(ProductsFromModels(rows), params, total), nil
}

// CreateCategory persists a category with case-insensitive uniqueness.
func (s *service) CreateCategory(ctx context.Context, req CreateCategoryRequest) (*CategoryDTO, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	if _, err := s.categories.FindByNameFold(ctx, name); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category name")
	}

	created, err := s.categories.Create(ctx, &models.Category{Name: name})
	if err != nil {
		// The functional unique index is the arbiter under concurrent creates.
		if db.IsUniqueViolation(err, uniqueCategoryConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "category already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create category")
	}
	return CategoryFromModel(created), nil
}

// ListCategories returns every category.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.categories.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *CategoryFromModel(&rows[i]))
	}
	return out, nil
}
