package resolver

import (
	"context"
	"fmt"
	"sync"

	"finance-tracker/internal/models"
)

// List is an in-memory, append-only view of one entity type.
type List[T Identified] struct {
	mu    sync.RWMutex
	items []T
}

// All returns a copy of the items in insertion order.
func (l *List[T]) All() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Replace swaps the whole list, as after a refetch.
func (l *List[T]) Replace(items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]T(nil), items...)
}

// Upsert appends items, replacing any entry with the same id.
func (l *List[T]) Upsert(items ...T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range items {
		if i := l.index(item.EntityID()); i >= 0 {
			l.items[i] = item
			continue
		}
		l.items = append(l.items, item)
	}
}

// Add appends items whose id is not present yet. Known entries are kept as
// they are, since a partial record from a response must not replace a full one.
func (l *List[T]) Add(items ...T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, item := range items {
		if l.index(item.EntityID()) < 0 {
			l.items = append(l.items, item)
		}
	}
}

// ByID looks an entry up by id.
func (l *List[T]) ByID(id int64) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.index(id); i >= 0 {
		return l.items[i], true
	}
	var zero T
	return zero, false
}

// Find returns the first entry matching pred.
func (l *List[T]) Find(pred func(T) bool) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, item := range l.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

func (l *List[T]) index(id int64) int {
	for i, item := range l.items {
		if item.EntityID() == id {
			return i
		}
	}
	return -1
}

// FindByName returns the entry whose name equals name exactly.
func FindByName[T Entity](l *List[T], name string) (T, bool) {
	return l.Find(func(item T) bool { return item.EntityName() == name })
}

// Collections holds the records a client has seen, shared by its forms.
type Collections struct {
	Categories   List[models.Category]
	Products     List[models.Product]
	Prices       List[models.ProductPrice]
	Tags         List[models.Tag]
	Transactions List[models.Transaction]
}

// NewCollections returns empty collections.
func NewCollections() *Collections {
	return &Collections{}
}

// Load refetches every list through api.
func (c *Collections) Load(ctx context.Context, api API) error {
	categories, err := api.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("loading categories: %w", err)
	}
	products, err := api.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("loading products: %w", err)
	}
	prices, err := api.ListProductPrices(ctx, 0)
	if err != nil {
		return fmt.Errorf("loading prices: %w", err)
	}
	tags, err := api.ListTags(ctx)
	if err != nil {
		return fmt.Errorf("loading tags: %w", err)
	}
	transactions, err := api.ListTransactions(ctx)
	if err != nil {
		return fmt.Errorf("loading transactions: %w", err)
	}

	c.Categories.Replace(categories)
	c.Products.Replace(products)
	c.Prices.Replace(prices)
	c.Tags.Replace(tags)
	c.Transactions.Replace(transactions)
	return nil
}

// PricesOf returns the known prices of one product.
func (c *Collections) PricesOf(productID int64) []models.ProductPrice {
	var out []models.ProductPrice
	for _, p := range c.Prices.All() {
		if p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out
}

// CurrentPrice returns the most recent price of a product. Equal timestamps
// are broken by the higher id.
func (c *Collections) CurrentPrice(productID int64) (models.ProductPrice, bool) {
	var best models.ProductPrice
	found := false
	for _, p := range c.PricesOf(productID) {
		if !found || p.CreatedAt.After(best.CreatedAt.Time) ||
			(p.CreatedAt.Equal(best.CreatedAt.Time) && p.ID > best.ID) {
			best = p
			found = true
		}
	}
	return best, found
}
