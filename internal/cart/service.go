package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkwapong/storefront-backend/pkg/db"
	"github.com/dkwapong/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dkwapong/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	emptyCartMessage = "cart is empty"

	uniqueCartUserConstraint = "idx_carts_user_id"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the cart operations consumed by the HTTP layer.
type Service interface {
	AddToCart(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error)
	ViewCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) error
}

type service struct {
	carts    CartRepository
	tx       txRunner
	products productLoader
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	CartRepo    CartRepository
	Tx          txRunner
	ProductRepo productLoader
}

// NewService constructs a cart service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository is required")
	}
	return &service{
		carts:    params.CartRepo,
		tx:       params.Tx,
		products: params.ProductRepo,
	}, nil
}

// AddToCart appends a snapshot of the product to the user's cart, creating
// the cart on first add. Each call appends a new line item; duplicates are
// never merged.
func (s *service) AddToCart(ctx context.Context, userID, productID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsAvailable {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
	}

	var out *CartDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.carts.WithTx(tx)

		record, err := s.ensureCart(ctx, cartRepo, userID)
		if err != nil {
			return err
		}

		item := &models.CartItem{
			CartID:         record.ID,
			ProductID:      product.ID,
			Name:           product.Name,
			Price:          product.Price,
			Quantity:       product.Quantity,
			ImageID:        product.ImageID,
			ImageURL:       product.ImageURL,
			ProductAddedAt: product.CreatedAt,
		}
		if err := cartRepo.AppendItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "append cart item")
		}

		record.Items = append(record.Items, *item)
		out = FromModel(record)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ViewCart returns the user's cart with its computed total.
func (s *service) ViewCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	record, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, emptyCartMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return FromModel(record), nil
}

// RemoveItem deletes every line item for the product from the user's cart.
func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	record, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, emptyCartMessage)
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	deleted, err := s.carts.DeleteItems(ctx, record.ID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart items")
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	return nil
}

// ensureCart loads the user's cart, creating it on first use. The unique
// user_id index arbitrates concurrent first adds.
func (s *service) ensureCart(ctx context.Context, repo CartRepository, userID uuid.UUID) (*models.Cart, error) {
	record, err := repo.FindByUser(ctx, userID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}

	created, err := repo.Create(ctx, &models.Cart{UserID: userID})
	if err != nil {
		if db.IsUniqueViolation(err, uniqueCartUserConstraint) {
			record, err := repo.FindByUser(ctx, userID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload cart")
			}
			return record, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return created, nil
}
