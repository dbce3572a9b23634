package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dkwapong/storefront-backend/pkg/db/models"
	pkgerrors "github.com/dkwapong/storefront-backend/pkg/errors"
	"github.com/dkwapong/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func buildTestService(t *testing.T, products *stubProductRepo, categories *stubCategoryRepo, uploader *stubUploader) Service {
	t.Helper()

	if products == nil {
		products = newStubProductRepo()
	}
	if categories == nil {
		categories = newStubCategoryRepo()
	}
	if uploader == nil {
		uploader = &stubUploader{}
	}
	svc, err := NewService(ServiceParams{
		ProductRepo:  products,
		CategoryRepo: categories,
		Uploader:     uploader,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestCreateProductWithImage(t *testing.T) {
	products := newStubProductRepo()
	uploader := &stubUploader{}
	svc := buildTestService(t, products, nil, uploader)

	dto, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name:        "Waakye Bowl",
		Description: "Rice and beans",
		Price:       decimal.NewFromFloat(12.50),
		IsAvailable: true,
		Quantity:    10,
	}, []byte("png-bytes"))
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if uploader.uploads != 1 {
		t.Fatalf("expected one upload, got %d", uploader.uploads)
	}
	if dto.ImageURL == nil {
		t.Fatal("expected image url to be set")
	}
	if !strings.HasSuffix(*dto.ImageURL, ".png") {
		t.Fatalf("unexpected image url %s", *dto.ImageURL)
	}
	stored := products.rows[0]
	if stored.ImageID == nil || *stored.ImageID == uuid.Nil {
		t.Fatal("expected image id to be persisted")
	}
}

func TestCreateProductUploadFailureAbortsInsert(t *testing.T) {
	products := newStubProductRepo()
	uploader := &stubUploader{err: errors.New("bucket down")}
	svc := buildTestService(t, products, nil, uploader)

	_, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name:        "Waakye Bowl",
		Description: "Rice and beans",
		Price:       decimal.NewFromFloat(12.50),
	}, []byte("png-bytes"))

	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(products.rows) != 0 {
		t.Fatal("failed upload must not persist a product")
	}
}

func TestCreateProductWithoutImage(t *testing.T) {
	products := newStubProductRepo()
	uploader := &stubUploader{}
	svc := buildTestService(t, products, nil, uploader)

	dto, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name:        "Kelewele",
		Description: "Spiced plantain",
		Price:       decimal.NewFromFloat(5),
	}, nil)
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if uploader.uploads != 0 {
		t.Fatal("no upload expected without image bytes")
	}
	if dto.ImageURL != nil {
		t.Fatal("image url must stay empty without an image")
	}
}

func TestCreateProductRejectsNegativePrice(t *testing.T) {
	svc := buildTestService(t, nil, nil, nil)

	_, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		Name:        "Broken",
		Description: "Bad price",
		Price:       decimal.NewFromFloat(-1),
	}, nil)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestGetProductNotFound(t *testing.T) {
	svc := buildTestService(t, nil, nil, nil)

	_, err := svc.GetProduct(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListProductsPaginationEnvelope(t *testing.T) {
	products := newStubProductRepo()
	for i := 0; i < 3; i++ {
		products.rows = append(products.rows, models.Product{
			ID:    uuid.New(),
			Name:  fmt.Sprintf("item-%d", i),
			Price: decimal.NewFromInt(int64(i)),
		})
	}
	products.total = 45
	svc := buildTestService(t, products, nil, nil)

	page, err := svc.ListProducts(context.Background(), pagination.Params{Page: 2, PageSize: 20})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if page.CurrentPage != 2 || page.PageSize != 20 {
		t.Fatalf("unexpected window %d/%d", page.CurrentPage, page.PageSize)
	}
	if page.TotalCount != 45 {
		t.Fatalf("unexpected total %d", page.TotalCount)
	}
	if page.TotalPages != 3 {
		t.Fatalf("unexpected total pages %d", page.TotalPages)
	}
	if len(page.Items) != 3 {
		t.Fatalf("unexpected item count %d", len(page.Items))
	}
}

func TestListAvailableFiltersFlag(t *testing.T) {
	products := newStubProductRepo()
	svc := buildTestService(t, products, nil, nil)

	if _, err := svc.ListAvailable(context.Background(), pagination.Params{}); err != nil {
		t.Fatalf("list available: %v", err)
	}
	if !products.lastOnlyAvailable {
		t.Fatal("expected availability filter to be applied")
	}

	if _, err := svc.ListProducts(context.Background(), pagination.Params{}); err != nil {
		t.Fatalf("list products: %v", err)
	}
	if products.lastOnlyAvailable {
		t.Fatal("full listing must not filter availability")
	}
}

func TestSearchOrderMapping(t *testing.T) {
	cases := []struct {
		search SearchParams
		want   string
	}{
		{SearchParams{SortBy: SortByName}, "LOWER(name) ASC"},
		{SearchParams{SortBy: SortByName, Descending: true}, "LOWER(name) DESC"},
		{SearchParams{SortBy: SortByPrice}, "price ASC"},
		{SearchParams{SortBy: SortByDate, Descending: true}, "created_at DESC"},
		{SearchParams{SortBy: "bogus"}, "created_at DESC"},
		{SearchParams{}, "created_at DESC"},
	}
	for _, tc := range cases {
		if got := searchOrder(tc.search); got != tc.want {
			t.Errorf("searchOrder(%+v) = %q, want %q", tc.search, got, tc.want)
		}
	}
}

func TestSearchFilterKeyword(t *testing.T) {
	clause, args := searchFilter(" Waakye ")
	if clause != "LOWER(name) LIKE ? OR LOWER(description) LIKE ?" {
		t.Fatalf("unexpected clause %q", clause)
	}
	if len(args) != 2 || args[0] != "%waakye%" || args[1] != "%waakye%" {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestSearchEmptyKeywordMatchesAll(t *testing.T) {
	for _, keyword := range []string{"", "   ", "\t"} {
		clause, args := searchFilter(keyword)
		if clause != "" || args != nil {
			t.Fatalf("keyword %q must not constrain the query, got %q %v", keyword, clause, args)
		}
	}

	products := newStubProductRepo()
	for i := 0; i < 3; i++ {
		products.rows = append(products.rows, models.Product{
			ID:    uuid.New(),
			Name:  fmt.Sprintf("item-%d", i),
			Price: decimal.NewFromInt(int64(i)),
		})
	}
	svc := buildTestService(t, products, nil, nil)

	page, err := svc.Search(context.Background(), SearchParams{}, pagination.Params{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if products.lastSearch.Keyword != "" {
		t.Fatalf("keyword must pass through unchanged, got %q", products.lastSearch.Keyword)
	}
	if len(page.Items) != 3 || page.TotalCount != 3 {
		t.Fatalf("expected the full catalog page, got %d items total %d", len(page.Items), page.TotalCount)
	}
}

func TestCreateCategoryDuplicateConflict(t *testing.T) {
	categories := newStubCategoryRepo()
	svc := buildTestService(t, nil, categories, nil)

	if _, err := svc.CreateCategory(context.Background(), CreateCategoryRequest{Name: "Drinks"}); err != nil {
		t.Fatalf("create category: %v", err)
	}

	_, err := svc.CreateCategory(context.Background(), CreateCategoryRequest{Name: "dRiNkS"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for case-insensitive duplicate, got %v", err)
	}
	if len(categories.rows) != 1 {
		t.Fatalf("expected exactly one category, got %d", len(categories.rows))
	}
}

type stubUploader struct {
	uploads int
	err     error
}

func (s *stubUploader) Upload(ctx context.Context, id uuid.UUID, data []byte, contentType string) error {
	if s.err != nil {
		return s.err
	}
	s.uploads++
	return nil
}

func (s *stubUploader) PublicURL(id uuid.UUID) string {
	return fmt.Sprintf("https://cdn.example.com/product_images/%s.png", id)
}

type stubProductRepo struct {
	rows              []models.Product
	total             int64
	lastOnlyAvailable bool
	lastSearch        SearchParams
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{}
}

func (s *stubProductRepo) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	product.ID = uuid.New()
	product.CreatedAt = time.Now().UTC()
	s.rows = append(s.rows, *product)
	return product, nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	for i := range s.rows {
		if s.rows[i].ID == id {
			return &s.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProductRepo) List(ctx context.Context, params pagination.Params, onlyAvailable bool) ([]models.Product, int64, error) {
	s.lastOnlyAvailable = onlyAvailable
	total := s.total
	if total == 0 {
		total = int64(len(s.rows))
	}
	return s.rows, total, nil
}

func (s *stubProductRepo) Search(ctx context.Context, search SearchParams, params pagination.Params) ([]models.Product, int64, error) {
	s.lastSearch = search
	total := s.total
	if total == 0 {
		total = int64(len(s.rows))
	}
	return s.rows, total, nil
}

type stubCategoryRepo struct {
	rows []models.Category
}

func newStubCategoryRepo() *stubCategoryRepo {
	return &stubCategoryRepo{}
}

func (s *stubCategoryRepo) Create(ctx context.Context, category *models.Category) (*models.Category, error) {
	category.ID = uuid.New()
	category.CreatedAt = time.Now().UTC()
	s.rows = append(s.rows, *category)
	return category, nil
}

func (s *stubCategoryRepo) FindByNameFold(ctx context.Context, name string) (*models.Category, error) {
	for i := range s.rows {
		if strings.EqualFold(s.rows[i].Name, name) {
			return &s.rows[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCategoryRepo) ListAll(ctx context.Context) ([]models.Category, error) {
	return s.rows, nil
}
