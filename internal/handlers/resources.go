package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/models"
)

// ListCategories returns the caller's categories.
func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	categories, err := h.db.ListCategories(user.ID)
	if err != nil {
		h.internalError(w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// CreateCategory creates a category, resolving its parent by id or name.
func (h *Handlers) CreateCategory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var p models.CategoryPayload
	if !h.decode(w, r, &p) {
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		writeError(w, http.StatusBadRequest, "Category name cannot be empty")
		return
	}

	resp, err := h.db.CreateCategory(user.ID, p)
	if err != nil {
		h.storeError(w, "create category", err, "Parent category not found", "Category already exists")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListProducts returns the caller's products.
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	products, err := h.db.ListProducts(user.ID)
	if err != nil {
		h.internalError(w, "list products", err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// CreateProduct creates a product, resolving its category by id or name.
func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var p models.ProductPayload
	if !h.decode(w, r, &p) {
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		writeError(w, http.StatusBadRequest, "Product name cannot be empty")
		return
	}

	resp, err := h.db.CreateProduct(user.ID, p)
	if err != nil {
		h.storeError(w, "create product", err, "Category not found", "Product already exists")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListProductPrices returns the caller's prices, optionally for one product.
func (h *Handlers) ListProductPrices(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var productID int64
	if s := r.URL.Query().Get("product_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid product_id")
			return
		}
		productID = id
	}

	prices, err := h.db.ListProductPrices(user.ID, productID)
	if err != nil {
		h.internalError(w, "list product prices", err)
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

// CurrentProductPrice returns the most recent price of one product.
func (h *Handlers) CurrentProductPrice(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	price, err := h.db.CurrentPrice(user.ID, productID)
	if err != nil {
		h.storeError(w, "current product price", err, "No price recorded for this product", "")
		return
	}
	writeJSON(w, http.StatusOK, price)
}

// CreateProductPrice records a price, resolving the product by id or name.
func (h *Handlers) CreateProductPrice(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var p models.ProductPricePayload
	if !h.decode(w, r, &p) {
		return
	}
	if p.ProductID == nil && (p.ProductName == nil || strings.TrimSpace(*p.ProductName) == "") {
		writeError(w, http.StatusBadRequest, "Either product_id or product_name is required")
		return
	}
	if p.Price <= 0 {
		writeError(w, http.StatusBadRequest, "Price must be a positive number of cents")
		return
	}

	resp, err := h.db.CreateProductPrice(user.ID, p)
	if err != nil {
		h.storeError(w, "create product price", err, "Product not found", "Duplicate product price entry")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListTags returns the caller's tags.
func (h *Handlers) ListTags(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	tags, err := h.db.ListTags(user.ID)
	if err != nil {
		h.internalError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

// CreateTag creates a tag.
func (h *Handlers) CreateTag(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var p models.TagPayload
	if !h.decode(w, r, &p) {
		return
	}
	if strings.TrimSpace(p.Name) == "" {
		writeError(w, http.StatusBadRequest, "Tag name cannot be empty")
		return
	}

	tag, err := h.db.CreateTag(user.ID, p.Name)
	if err != nil {
		h.storeError(w, "create tag", err, "Tag not found", "Tag already exists")
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}

// ListTransactions returns the caller's transactions, latest first.
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	transactions, err := h.db.ListTransactions(user.ID)
	if err != nil {
		h.internalError(w, "list transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, transactions)
}

// CreateTransaction records a transaction with its product, price and tags.
func (h *Handlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	var p models.TransactionPayload
	if !h.decode(w, r, &p) {
		return
	}
	if msg := validateTransaction(&p); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	resp, err := h.db.CreateTransaction(user.ID, p)
	if err != nil {
		h.storeError(w, "create transaction", err, "Referenced product, price or tag not found", "Duplicate transaction entry")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// validateTransaction checks the payload and fills defaults. It returns a
// message for the client, or "" if the payload is usable.
func validateTransaction(p *models.TransactionPayload) string {
	if p.ProductID == nil && (p.ProductName == nil || strings.TrimSpace(*p.ProductName) == "") {
		return "Either product_id or product_name is required"
	}
	if p.ProductPriceID == nil && p.Price == nil {
		return "Either product_price_id or price is required"
	}
	if p.ProductPriceID == nil && *p.Price <= 0 {
		return "Price must be a positive number of cents"
	}
	if !p.TransactionType.Valid() {
		return "transaction_type must be Income or Expense"
	}
	if p.Date.IsZero() {
		p.Date = models.NewTimestamp(time.Now())
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		if d == "" {
			p.Description = nil
		} else {
			p.Description = &d
		}
	}
	return ""
}
