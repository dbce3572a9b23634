package catalog

import (
	"context"
	"strings"

	"github.com/dkwapong/storefront-backend/pkg/db/models"
	"github.com/dkwapong/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the persistence surface required by the catalog service.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, params pagination.Params, onlyAvailable bool) ([]models.Product, int64, error)
	Search(ctx context.Context, search SearchParams, params pagination.Params) ([]models.Product, int64, error)
}

// ProductRepo exposes product persistence operations.
type ProductRepo struct {
	db *gorm.DB
}

// NewProductRepo constructs a product repo bound to the provided GORM DB.
func NewProductRepo(db *gorm.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Create inserts a new product and returns the persisted model.
func (r *ProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product by its UUID.
func (r *ProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns one page of products ordered newest first, optionally
// restricted to available listings.
func (r *ProductRepo) List(ctx context.Context, params pagination.Params, onlyAvailable bool) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if onlyAvailable {
		query = query.Where("is_available = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	if err := query.
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Search filters name/description by case-insensitive substring, sorts by the
// requested field and returns one page. An empty keyword matches everything.
func (r *ProductRepo) Search(ctx context.Context, search SearchParams, params pagination.Params) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if clause, args := searchFilter(search.Keyword); clause != "" {
		query = query.Where(clause, args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	if err := query.
		Order(searchOrder(search)).
		Offset(params.Offset()).
		Limit(params.PageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// searchFilter builds the WHERE clause for a keyword search. A blank keyword
// yields no clause, so the query matches the whole catalog.
func searchFilter(keyword string) (string, []any) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return "", nil
	}
	pattern := "%" + strings.ToLower(keyword) + "%"
	return "LOWER(name) LIKE ? OR LOWER(description) LIKE ?", []any{pattern, pattern}
}

func searchOrder(search SearchParams) string {
	direction := "ASC"
	if search.Descending {
		direction = "DESC"
	}
	switch search.SortBy {
	case SortByName:
		return "LOWER(name) " + direction
	case SortByPrice:
		return "price " + direction
	case SortByDate:
		return "created_at " + direction
	default:
		return "created_at DESC"
	}
}
