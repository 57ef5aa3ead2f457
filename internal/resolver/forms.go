package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"finance-tracker/internal/models"
)

// CategoryForm creates a category with an optional parent.
type CategoryForm struct {
	form
	Name         string
	Parent       Selection[models.Category]
	ParentPolicy Policy
}

// NewCategoryForm returns a form that creates typed parents eagerly.
func NewCategoryForm(api API, data *Collections) *CategoryForm {
	return &CategoryForm{form: form{api: api, data: data}, ParentPolicy: Eager}
}

// Submit validates the form and creates the category.
func (f *CategoryForm) Submit(ctx context.Context) (*models.Category, error) {
	if err := f.acquire(); err != nil {
		return nil, err
	}
	defer f.release()

	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, invalid("name", "Category name is required")
	}

	p := models.CategoryPayload{Name: name}
	switch f.Parent.Kind() {
	case Existing:
		parent, _ := f.Parent.Item()
		p.ParentCategoryID = &parent.ID
	case Typed:
		text := f.Parent.Text()
		if f.ParentPolicy == Eager {
			id, err := f.ensureCategory(ctx, text)
			if err != nil {
				return nil, err
			}
			p.ParentCategoryID = &id
		} else {
			p.ParentCategoryName = &text
		}
	}

	resp, err := f.api.CreateCategory(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("creating category %q: %w", name, err)
	}
	f.mergeCategoryRef(resp.Parent)
	f.data.Categories.Upsert(resp.Category)
	return &resp.Category, nil
}

// ProductForm creates a product with an optional category.
type ProductForm struct {
	form
	Name           string
	Category       Selection[models.Category]
	CategoryPolicy Policy
}

// NewProductForm returns a form that creates typed categories eagerly.
func NewProductForm(api API, data *Collections) *ProductForm {
	return &ProductForm{form: form{api: api, data: data}, CategoryPolicy: Eager}
}

// Submit validates the form and creates the product.
func (f *ProductForm) Submit(ctx context.Context) (*models.Product, error) {
	if err := f.acquire(); err != nil {
		return nil, err
	}
	defer f.release()

	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, invalid("name", "Product name is required")
	}

	p := models.ProductPayload{Name: name}
	switch f.Category.Kind() {
	case Existing:
		cat, _ := f.Category.Item()
		p.CategoryID = &cat.ID
	case Typed:
		text := f.Category.Text()
		if f.CategoryPolicy == Eager {
			id, err := f.ensureCategory(ctx, text)
			if err != nil {
				return nil, err
			}
			p.CategoryID = &id
		} else {
			p.CategoryName = &text
		}
	}

	resp, err := f.api.CreateProduct(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("creating product %q: %w", name, err)
	}
	f.mergeCategoryRef(resp.Category)
	f.data.Products.Upsert(resp.Product)
	return &resp.Product, nil
}

// PriceForm records a price for a required product.
type PriceForm struct {
	form
	Product       Selection[models.Product]
	ProductPolicy Policy
	// Amount is user text such as "3.50".
	Amount string
	// CreatedAt defaults to the time of submission on the server.
	CreatedAt time.Time
}

// NewPriceForm returns a form that lets the server resolve typed products.
func NewPriceForm(api API, data *Collections) *PriceForm {
	return &PriceForm{form: form{api: api, data: data}, ProductPolicy: ServerSide}
}

// Submit validates the form and records the price.
func (f *PriceForm) Submit(ctx context.Context) (*models.ProductPrice, error) {
	if err := f.acquire(); err != nil {
		return nil, err
	}
	defer f.release()

	if f.Product.Kind() == None {
		return nil, invalid("product", "Please select or type a product")
	}
	amount, err := parseAmount(f.Amount)
	if err != nil {
		return nil, err
	}

	p := models.ProductPricePayload{Price: amount}
	if !f.CreatedAt.IsZero() {
		ts := models.NewTimestamp(f.CreatedAt)
		p.CreatedAt = &ts
	}
	switch f.Product.Kind() {
	case Existing:
		prod, _ := f.Product.Item()
		p.ProductID = &prod.ID
	case Typed:
		text := f.Product.Text()
		if f.ProductPolicy == Eager {
			id, err := f.ensureProduct(ctx, text)
			if err != nil {
				return nil, err
			}
			p.ProductID = &id
		} else {
			p.ProductName = &text
		}
	}

	resp, err := f.api.CreateProductPrice(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("recording price: %w", err)
	}
	f.data.Products.Add(resp.Product)
	f.data.Prices.Upsert(resp.ProductPrice)
	return &resp.ProductPrice, nil
}

// TagForm creates a tag.
type TagForm struct {
	form
	Name string
}

func NewTagForm(api API, data *Collections) *TagForm {
	return &TagForm{form: form{api: api, data: data}}
}

// Submit validates the form and creates the tag.
func (f *TagForm) Submit(ctx context.Context) (*models.Tag, error) {
	if err := f.acquire(); err != nil {
		return nil, err
	}
	defer f.release()

	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, invalid("name", "Tag name is required")
	}
	tag, err := f.api.CreateTag(ctx, models.TagPayload{Name: name})
	if err != nil {
		return nil, fmt.Errorf("creating tag %q: %w", name, err)
	}
	f.data.Tags.Upsert(*tag)
	return tag, nil
}

// TransactionForm records an income or expense. Product and price are
// required; a typed price is an amount for a new price record.
type TransactionForm struct {
	form
	Type        models.TransactionType
	Product     Selection[models.Product]
	Price       Selection[models.ProductPrice]
	Description string
	// Date defaults to now.
	Date time.Time
	Tags []Selection[models.Tag]

	ProductPolicy Policy
	PricePolicy   Policy
	TagPolicy     Policy
}

// NewTransactionForm returns an Expense form that leaves all name
// resolution to the server.
func NewTransactionForm(api API, data *Collections) *TransactionForm {
	return &TransactionForm{
		form:          form{api: api, data: data},
		Type:          models.Expense,
		ProductPolicy: ServerSide,
		PricePolicy:   ServerSide,
		TagPolicy:     ServerSide,
	}
}

// Submit validates the form, creates whatever the policies ask for and
// records the transaction.
func (f *TransactionForm) Submit(ctx context.Context) (*models.CreateTransactionResponse, error) {
	if err := f.acquire(); err != nil {
		return nil, err
	}
	defer f.release()

	if !f.Type.Valid() {
		return nil, invalid("type", "Transaction type must be Income or Expense")
	}
	if f.Product.Kind() == None {
		return nil, invalid("product", "Please select or type a product name")
	}
	var amount models.Cents
	switch f.Price.Kind() {
	case None:
		return nil, invalid("price", "Please select or type a price")
	case Typed:
		a, err := parseAmount(f.Price.Text())
		if err != nil {
			return nil, err
		}
		amount = a
	case Existing:
		price, _ := f.Price.Item()
		if prod, ok := f.Product.Item(); ok && price.ProductID != prod.ID {
			return nil, invalid("price", "The selected price belongs to another product")
		}
	}

	date := f.Date
	if date.IsZero() {
		date = time.Now()
	}
	p := models.TransactionPayload{
		TransactionType: f.Type,
		Date:            models.NewTimestamp(date),
	}
	if d := strings.TrimSpace(f.Description); d != "" {
		p.Description = &d
	}

	switch f.Product.Kind() {
	case Existing:
		prod, _ := f.Product.Item()
		p.ProductID = &prod.ID
	case Typed:
		text := f.Product.Text()
		if f.ProductPolicy == Eager {
			id, err := f.ensureProduct(ctx, text)
			if err != nil {
				return nil, err
			}
			p.ProductID = &id
		} else {
			p.ProductName = &text
		}
	}

	switch f.Price.Kind() {
	case Existing:
		price, _ := f.Price.Item()
		p.ProductPriceID = &price.ID
	case Typed:
		if f.PricePolicy == Eager {
			if err := f.createPrice(ctx, &p, amount); err != nil {
				return nil, err
			}
		} else {
			p.Price = &amount
		}
	}

	for _, sel := range f.Tags {
		switch sel.Kind() {
		case Existing:
			tag, _ := sel.Item()
			p.Tags = append(p.Tags, models.TagByID(tag.ID))
		case Typed:
			if f.TagPolicy == Eager {
				id, err := f.ensureTag(ctx, sel.Text())
				if err != nil {
					return nil, err
				}
				p.Tags = append(p.Tags, models.TagByID(id))
			} else {
				p.Tags = append(p.Tags, models.TagByName(sel.Text()))
			}
		}
	}

	resp, err := f.api.CreateTransaction(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}
	f.data.Products.Add(resp.Product)
	f.data.Prices.Upsert(resp.ProductPrice)
	f.data.Tags.Add(resp.Tags...)
	f.data.Transactions.Upsert(resp.Transaction)
	return resp, nil
}

// createPrice records the typed amount as a price dated at the transaction
// and points the payload at it. A product still given by name is resolved by
// the price call, so the transaction then refers to it by id.
func (f *TransactionForm) createPrice(ctx context.Context, p *models.TransactionPayload, amount models.Cents) error {
	date := p.Date
	req := models.ProductPricePayload{
		ProductID:   p.ProductID,
		ProductName: p.ProductName,
		Price:       amount,
		CreatedAt:   &date,
	}
	resp, err := f.api.CreateProductPrice(ctx, req)
	if err != nil {
		return fmt.Errorf("recording price: %w", err)
	}
	f.data.Products.Add(resp.Product)
	f.data.Prices.Upsert(resp.ProductPrice)

	p.ProductID = &resp.Product.ID
	p.ProductName = nil
	p.ProductPriceID = &resp.ProductPrice.ID
	return nil
}

func parseAmount(text string) (models.Cents, error) {
	amount, err := models.ParseCents(text)
	switch {
	case errors.Is(err, models.ErrNonPositiveAmount):
		return 0, invalid("price", "Price must be a positive number")
	case err != nil:
		return 0, invalid("price", "Price must be a number such as 3.50")
	}
	return amount, nil
}
