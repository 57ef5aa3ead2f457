package models

import (
	"fmt"
	"strings"
	"time"
)

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session represents a user session.
type Session struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Category groups products. A category has at most one parent.
type Category struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	ParentCategoryID *int64 `json:"parent_category_id"`
}

// Product is something that can be bought or sold.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CategoryID *int64 `json:"category_id"`
}

// ProductPrice records the price of a product at a point in time.
type ProductPrice struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	Price     Cents     `json:"price"`
	CreatedAt Timestamp `json:"created_at"`
}

// Tag labels transactions.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TransactionType tells income from expenses.
type TransactionType string

const (
	Income  TransactionType = "Income"
	Expense TransactionType = "Expense"
)

// ParseTransactionType accepts "Income" or "Expense" in any case.
func ParseTransactionType(s string) (TransactionType, error) {
	switch {
	case strings.EqualFold(s, string(Income)):
		return Income, nil
	case strings.EqualFold(s, string(Expense)):
		return Expense, nil
	}
	return "", fmt.Errorf("invalid transaction type %q", s)
}

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Transaction is a single income or expense entry.
type Transaction struct {
	ID              int64           `json:"id"`
	ProductID       int64           `json:"product_id"`
	ProductPriceID  int64           `json:"product_price_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Description     *string         `json:"description"`
	Date            Timestamp       `json:"date"`
	Tags            []int64         `json:"tags"`
}

// CategoryRef is the id and name of a category attached to a creation response.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EntityID and EntityName let the client keep entities in generic lists.

func (c Category) EntityID() int64    { return c.ID }
func (c Category) EntityName() string { return c.Name }

func (p Product) EntityID() int64    { return p.ID }
func (p Product) EntityName() string { return p.Name }

func (t Tag) EntityID() int64    { return t.ID }
func (t Tag) EntityName() string { return t.Name }

func (p ProductPrice) EntityID() int64    { return p.ID }
func (p ProductPrice) EntityName() string { return p.Price.String() }

func (t Transaction) EntityID() int64 { return t.ID }
