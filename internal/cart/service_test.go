package cart

import (
	"context"
	"testing"
	"time"

	"github.com/dkwapong/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dkwapong/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func buildTestService(t *testing.T, carts *stubCartRepo, products *stubProductLoader) Service {
	t.Helper()

	if carts == nil {
		carts = newStubCartRepo()
	}
	if products == nil {
		products = &stubProductLoader{}
	}
	svc, err := NewService(ServiceParams{
		CartRepo:    carts,
		Tx:          stubTxRunner{},
		ProductRepo: products,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func availableProduct(name string, price float64) *models.Product {
	url := "https://cdn.example.com/product_images/x.png"
	return &models.Product{
		ID:          uuid.New(),
		Name:        name,
		Price:       decimal.NewFromFloat(price),
		IsAvailable: true,
		Quantity:    7,
		ImageURL:    &url,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestAddToCartCreatesCartAndSnapshotsProduct(t *testing.T) {
	carts := newStubCartRepo()
	product := availableProduct("Waakye Bowl", 12.50)
	svc := buildTestService(t, carts, &stubProductLoader{products: []*models.Product{product}})

	userID := uuid.New()
	dto, err := svc.AddToCart(context.Background(), userID, product.ID)
	if err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	if len(dto.Items) != 1 {
		t.Fatalf("expected one item, got %d", len(dto.Items))
	}
	item := dto.Items[0]
	if item.ProductID != product.ID || item.Name != "Waakye Bowl" {
		t.Fatalf("unexpected snapshot %+v", item)
	}
	if !item.Price.Equal(product.Price) {
		t.Fatalf("expected snapshot price %s, got %s", product.Price, item.Price)
	}
	if carts.created != 1 {
		t.Fatalf("expected cart to be created once, got %d", carts.created)
	}
}

func TestAddToCartAppendsDuplicateLines(t *testing.T) {
	carts := newStubCartRepo()
	product := availableProduct("Kelewele", 5)
	svc := buildTestService(t, carts, &stubProductLoader{products: []*models.Product{product}})

	userID := uuid.New()
	if _, err := svc.AddToCart(context.Background(), userID, product.ID); err != nil {
		t.Fatalf("first add: %v", err)
	}
	dto, err := svc.AddToCart(context.Background(), userID, product.ID)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(dto.Items) != 2 {
		t.Fatalf("expected two line items, got %d", len(dto.Items))
	}
	if carts.created != 1 {
		t.Fatalf("cart must be created only once, got %d", carts.created)
	}
}

func TestAddToCartUnknownProduct(t *testing.T) {
	svc := buildTestService(t, nil, &stubProductLoader{})

	_, err := svc.AddToCart(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddToCartUnavailableProductNoMutation(t *testing.T) {
	carts := newStubCartRepo()
	product := availableProduct("Sold Out", 9)
	product.IsAvailable = false
	svc := buildTestService(t, carts, &stubProductLoader{products: []*models.Product{product}})

	_, err := svc.AddToCart(context.Background(), uuid.New(), product.ID)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if carts.created != 0 || len(carts.items) != 0 {
		t.Fatal("unavailable product must not mutate the store")
	}
}

func TestViewCartTotalSumsUnitPrices(t *testing.T) {
	carts := newStubCartRepo()
	bowl := availableProduct("Waakye Bowl", 12.50)
	plantain := availableProduct("Kelewele", 5)
	bowl.Quantity = 40
	svc := buildTestService(t, carts, &stubProductLoader{products: []*models.Product{bowl, plantain}})

	userID := uuid.New()
	for _, id := range []uuid.UUID{bowl.ID, plantain.ID} {
		if _, err := svc.AddToCart(context.Background(), userID, id); err != nil {
			t.Fatalf("add to cart: %v", err)
		}
	}

	dto, err := svc.ViewCart(context.Background(), userID)
	if err != nil {
		t.Fatalf("view cart: %v", err)
	}

	// Total counts each line's unit price once, regardless of the stored
	// stock quantity snapshot.
	want := decimal.NewFromFloat(17.50)
	if !dto.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, dto.Total)
	}
}

func TestViewCartWithoutCart(t *testing.T) {
	svc := buildTestService(t, nil, nil)

	_, err := svc.ViewCart(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRemoveItemDeletesAllMatchingLines(t *testing.T) {
	carts := newStubCartRepo()
	product := availableProduct("Kelewele", 5)
	svc := buildTestService(t, carts, &stubProductLoader{products: []*models.Product{product}})

	userID := uuid.New()
	for i := 0; i < 3; i++ {
		if _, err := svc.AddToCart(context.Background(), userID, product.ID); err != nil {
			t.Fatalf("add to cart: %v", err)
		}
	}

	if err := svc.RemoveItem(context.Background(), userID, product.ID); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(carts.items) != 0 {
		t.Fatalf("expected all lines removed, %d remain", len(carts.items))
	}
}

func TestRemoveItemNotInCart(t *testing.T) {
	carts := newStubCartRepo()
	product := availableProduct("Waakye Bowl", 12.50)
	svc := buildTestService(t, carts, &stubProductLoader{products: []*models.Product{product}})

	userID := uuid.New()
	if _, err := svc.AddToCart(context.Background(), userID, product.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}

	err := svc.RemoveItem(context.Background(), userID, uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubProductLoader struct {
	products []*models.Product
}

func (s *stubProductLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type stubCartRepo struct {
	carts   map[uuid.UUID]*models.Cart
	items   []models.CartItem
	created int
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{carts: map[uuid.UUID]*models.Cart{}}
}

func (s *stubCartRepo) WithTx(tx *gorm.DB) CartRepository {
	return s
}

func (s *stubCartRepo) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	record, ok := s.carts[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *record
	copied.Items = nil
	for _, item := range s.items {
		if item.CartID == record.ID {
			copied.Items = append(copied.Items, item)
		}
	}
	return &copied, nil
}

func (s *stubCartRepo) Create(ctx context.Context, cart *models.Cart) (*models.Cart, error) {
	cart.ID = uuid.New()
	cart.CreatedAt = time.Now().UTC()
	s.carts[cart.UserID] = cart
	s.created++
	return cart, nil
}

func (s *stubCartRepo) AppendItem(ctx context.Context, item *models.CartItem) error {
	item.ID = uuid.New()
	item.CreatedAt = time.Now().UTC()
	s.items = append(s.items, *item)
	return nil
}

func (s *stubCartRepo) DeleteItems(ctx context.Context, cartID, productID uuid.UUID) (int64, error) {
	var kept []models.CartItem
	var deleted int64
	for _, item := range s.items {
		if item.CartID == cartID && item.ProductID == productID {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	return deleted, nil
}
