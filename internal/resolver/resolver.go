package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"finance-tracker/internal/models"
)

// ErrSubmissionInFlight is returned when a form is submitted again before
// its previous submission finished.
var ErrSubmissionInFlight = errors.New("a submission is already in progress")

// ValidationError reports input that was rejected before any request was made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// API is the part of the REST client the forms need. *client.Client implements it.
type API interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, p models.CategoryPayload) (*models.CreateCategoryResponse, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, p models.ProductPayload) (*models.CreateProductResponse, error)
	ListProductPrices(ctx context.Context, productID int64) ([]models.ProductPrice, error)
	CreateProductPrice(ctx context.Context, p models.ProductPricePayload) (*models.CreateProductPriceResponse, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, p models.TagPayload) (*models.Tag, error)
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, p models.TransactionPayload) (*models.CreateTransactionResponse, error)
}

// latch lets one submission through at a time.
type latch struct {
	busy atomic.Bool
}

func (l *latch) acquire() error {
	if !l.busy.CompareAndSwap(false, true) {
		return ErrSubmissionInFlight
	}
	return nil
}

func (l *latch) release() {
	l.busy.Store(false)
}

// InFlight reports whether a submission is running.
func (l *latch) InFlight() bool {
	return l.busy.Load()
}

// form is the state every form shares.
type form struct {
	latch
	api  API
	data *Collections
}

func (f *form) ensureCategory(ctx context.Context, name string) (int64, error) {
	if c, ok := FindByName(&f.data.Categories, name); ok {
		return c.ID, nil
	}
	resp, err := f.api.CreateCategory(ctx, models.CategoryPayload{Name: name})
	if err != nil {
		return 0, fmt.Errorf("creating category %q: %w", name, err)
	}
	f.data.Categories.Upsert(resp.Category)
	return resp.Category.ID, nil
}

func (f *form) ensureProduct(ctx context.Context, name string) (int64, error) {
	if p, ok := FindByName(&f.data.Products, name); ok {
		return p.ID, nil
	}
	resp, err := f.api.CreateProduct(ctx, models.ProductPayload{Name: name})
	if err != nil {
		return 0, fmt.Errorf("creating product %q: %w", name, err)
	}
	f.data.Products.Upsert(resp.Product)
	return resp.Product.ID, nil
}

func (f *form) ensureTag(ctx context.Context, name string) (int64, error) {
	if t, ok := FindByName(&f.data.Tags, name); ok {
		return t.ID, nil
	}
	tag, err := f.api.CreateTag(ctx, models.TagPayload{Name: name})
	if err != nil {
		return 0, fmt.Errorf("creating tag %q: %w", name, err)
	}
	f.data.Tags.Upsert(*tag)
	return tag.ID, nil
}

// mergeCategoryRef records a category seen only by reference in a response.
func (f *form) mergeCategoryRef(ref *models.CategoryRef) {
	if ref != nil {
		f.data.Categories.Add(models.Category{ID: ref.ID, Name: ref.Name})
	}
}
