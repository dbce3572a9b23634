package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dkwapong/storefront-backend/pkg/db/models"
)

// ProductDTO is the transport shape for catalog listings.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Summary     string          `json:"summary"`
	Price       decimal.Decimal `json:"price"`
	IsAvailable bool            `json:"is_available"`
	Quantity    int             `json:"quantity"`
	ImageURL    *string         `json:"image_url,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CreateProductRequest carries the fields accepted on product creation. Image
// bytes travel outside this struct (multipart part at the HTTP edge).
type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Summary     string          `json:"summary"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	IsAvailable bool            `json:"is_available"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
}

// CategoryDTO is the transport shape for product categories.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCategoryRequest names a new category.
type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

// Sort fields accepted by Search. Anything else falls back to newest-first.
const (
	SortByName  = "name"
	SortByPrice = "price"
	SortByDate  = "date"
)

// SearchParams captures the catalog search surface.
type SearchParams struct {
	Keyword    string
	SortBy     string
	Descending bool
}

func ProductFromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}

	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Summary:     p.Summary,
		Price:       p.Price,
		IsAvailable: p.IsAvailable,
		Quantity:    p.Quantity,
		ImageURL:    p.ImageURL,
		CreatedAt:   p.CreatedAt,
	}
}

func ProductsFromModels(rows []models.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *ProductFromModel(&rows[i]))
	}
	return out
}

func CategoryFromModel(c *models.Category) *CategoryDTO {
	if c == nil {
		return nil
	}
	return &CategoryDTO{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
	}
}
