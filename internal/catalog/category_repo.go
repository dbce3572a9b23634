package catalog

import (
	"context"

	"github.com/dkwapong/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// CategoryRepository defines the persistence surface for product categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	FindByNameFold(ctx context.Context, name string) (*models.Category, error)
	ListAll(ctx context.Context) ([]models.Category, error)
}

// CategoryRepo exposes category persistence operations.
type CategoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepo constructs a category repo bound to the provided GORM DB.
func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// Create inserts a new category and returns the persisted model.
func (r *CategoryRepo) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// FindByNameFold retrieves a category by case-insensitive name match.
func (r *CategoryRepo) FindByNameFold(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

// ListAll returns every category ordered by name.
func (r *CategoryRepo) ListAll(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	if err := r.db.WithContext(ctx).
		Order("LOWER(name) ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
