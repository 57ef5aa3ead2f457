package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Credentials is the body of /login and /users.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by /login.
type TokenResponse struct {
	Token string `json:"token"`
}

// CategoryPayload creates a category. The parent is given by id or by name.
type CategoryPayload struct {
	Name               string  `json:"name"`
	ParentCategoryID   *int64  `json:"parent_category_id,omitempty"`
	ParentCategoryName *string `json:"parent_category_name,omitempty"`
}

// CreateCategoryResponse carries the new category and its resolved parent.
type CreateCategoryResponse struct {
	Category Category     `json:"category"`
	Parent   *CategoryRef `json:"parent,omitempty"`
}

// ProductPayload creates a product. The category is given by id or by name.
type ProductPayload struct {
	Name         string  `json:"name"`
	CategoryID   *int64  `json:"category_id,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`
}

// CreateProductResponse carries the new product and its resolved category.
type CreateProductResponse struct {
	Product  Product      `json:"product"`
	Category *CategoryRef `json:"category,omitempty"`
}

// ProductPricePayload records a price. The product is given by id or by name.
type ProductPricePayload struct {
	ProductID   *int64     `json:"product_id,omitempty"`
	ProductName *string    `json:"product_name,omitempty"`
	Price       Cents      `json:"price"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
}

// CreateProductPriceResponse carries the new price and the resolved product.
type CreateProductPriceResponse struct {
	ProductPrice ProductPrice `json:"product_price"`
	Product      Product      `json:"product"`
}

// TagPayload creates a tag.
type TagPayload struct {
	Name string `json:"name"`
}

// TransactionPayload creates a transaction. The product is given by id or
// name, the price by id or as an inline amount, and tags by id or name.
type TransactionPayload struct {
	ProductID       *int64          `json:"product_id,omitempty"`
	ProductName     *string         `json:"product_name,omitempty"`
	ProductPriceID  *int64          `json:"product_price_id,omitempty"`
	Price           *Cents          `json:"price,omitempty"`
	TransactionType TransactionType `json:"transaction_type"`
	Description     *string         `json:"description,omitempty"`
	Date            Timestamp       `json:"date"`
	Tags            []TagRef        `json:"tags,omitempty"`
}

// CreateTransactionResponse carries the transaction and everything it resolved.
type CreateTransactionResponse struct {
	Transaction  Transaction  `json:"transaction"`
	Product      Product      `json:"product"`
	ProductPrice ProductPrice `json:"product_price"`
	Tags         []Tag        `json:"tags"`
}

// TagRef references a tag by id or by name. On the wire it is a JSON number
// or a JSON string.
type TagRef struct {
	ID   int64
	Name string
}

// TagByID references an existing tag.
func TagByID(id int64) TagRef { return TagRef{ID: id} }

// TagByName references a tag by name, creating it if needed.
func TagByName(name string) TagRef { return TagRef{Name: strings.TrimSpace(name)} }

// IsName reports whether the reference is by name.
func (r TagRef) IsName() bool { return r.ID == 0 }

// MarshalJSON implements json.Marshaler.
func (r TagRef) MarshalJSON() ([]byte, error) {
	if r.IsName() {
		return json.Marshal(r.Name)
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *TagRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return errors.New("tag name cannot be empty")
		}
		*r = TagRef{Name: name}
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return errors.New("tag reference must be an id or a name")
	}
	if id <= 0 {
		return errors.New("tag id must be positive")
	}
	*r = TagRef{ID: id}
	return nil
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SpendingPoint is the expense total of one day.
type SpendingPoint struct {
	Date          string `json:"date"`
	TotalSpending Cents  `json:"total_spending"`
}

// CategorySpending is the expense total of one category.
type CategorySpending struct {
	CategoryName  string  `json:"category_name"`
	TotalSpending Cents   `json:"total_spending"`
	Count         int     `json:"count"`
	Percentage    float64 `json:"percentage"`
}

// PricePoint is one entry of a product's price history.
type PricePoint struct {
	Date  string `json:"date"`
	Price Cents  `json:"price"`
}
