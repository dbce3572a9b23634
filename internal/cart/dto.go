package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dkwapong/storefront-backend/pkg/db/models"
)

// CartItemDTO is the snapshot of a product captured at add time.
type CartItemDTO struct {
	ID             uuid.UUID       `json:"id"`
	ProductID      uuid.UUID       `json:"product_id"`
	Name           string          `json:"name"`
	Price          decimal.Decimal `json:"price"`
	Quantity       int             `json:"quantity"`
	ImageURL       *string         `json:"image_url,omitempty"`
	ProductAddedAt time.Time       `json:"product_added_at"`
}

// CartDTO is the transport shape for a user's cart. Total is the sum of the
// line items' unit prices.
type CartDTO struct {
	ID        uuid.UUID       `json:"id"`
	UserID    uuid.UUID       `json:"user_id"`
	Items     []CartItemDTO   `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
}

// AddItemRequest names the product to append to the caller's cart.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
}

func itemFromModel(item *models.CartItem) CartItemDTO {
	return CartItemDTO{
		ID:             item.ID,
		ProductID:      item.ProductID,
		Name:           item.Name,
		Price:          item.Price,
		Quantity:       item.Quantity,
		ImageURL:       item.ImageURL,
		ProductAddedAt: item.ProductAddedAt,
	}
}

// FromModel builds the cart DTO, totalling the unit prices of its items.
func FromModel(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}

	items := make([]CartItemDTO, 0, len(cart.Items))
	total := decimal.Zero
	for i := range cart.Items {
		items = append(items, itemFromModel(&cart.Items[i]))
		total = total.Add(cart.Items[i].Price)
	}

	return &CartDTO{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     items,
		Total:     total,
		CreatedAt: cart.CreatedAt,
	}
}
