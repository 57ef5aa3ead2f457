package storage

import (
	"strings"
	"time"

	"finance-tracker/internal/models"
)

func (r runner) insertPrice(productID int64, price models.Cents, createdAt time.Time) (int64, error) {
	return r.insert(
		"INSERT INTO product_prices (product_id, price, created_at) VALUES (?, ?, ?)",
		productID, int64(price), utc(createdAt),
	)
}

// price returns a price whose product belongs to the user.
func (r runner) price(userID, id int64) (*models.ProductPrice, error) {
	row := r.queryRow(`
		SELECT pp.id, pp.product_id, pp.price, pp.created_at
		FROM product_prices pp
		JOIN products p ON p.id = pp.product_id
		WHERE pp.id = ? AND p.user_id = ?
	`, id, userID)
	return scanPrice(row)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPrice(s scanner) (*models.ProductPrice, error) {
	var pp models.ProductPrice
	var price int64
	var createdAt time.Time
	if err := s.Scan(&pp.ID, &pp.ProductID, &price, &createdAt); err != nil {
		return nil, translate(err)
	}
	pp.Price = models.Cents(price)
	pp.CreatedAt = models.NewTimestamp(createdAt.Local())
	return &pp, nil
}

// CreateProductPrice records a price. The product is taken from ProductID when
// set, otherwise ProductName is looked up and created if missing. A zero
// CreatedAt means now.
func (db *DB) CreateProductPrice(userID int64, p models.ProductPricePayload) (*models.CreateProductPriceResponse, error) {
	createdAt := time.Now()
	if p.CreatedAt != nil && !p.CreatedAt.IsZero() {
		createdAt = p.CreatedAt.Time
	}

	var resp models.CreateProductPriceResponse
	err := db.inTx(func(r runner) error {
		var productID int64
		switch {
		case p.ProductID != nil:
			if err := r.owned(tableProducts, userID, *p.ProductID); err != nil {
				return err
			}
			productID = *p.ProductID
		case p.ProductName != nil && strings.TrimSpace(*p.ProductName) != "":
			id, _, err := r.findOrCreate(tableProducts, userID, *p.ProductName)
			if err != nil {
				return err
			}
			productID = id
		default:
			return ErrNotFound
		}

		id, err := r.insertPrice(productID, p.Price, createdAt)
		if err != nil {
			return err
		}
		price, err := r.price(userID, id)
		if err != nil {
			return err
		}
		prod, err := r.product(userID, productID)
		if err != nil {
			return err
		}
		resp.ProductPrice = *price
		resp.Product = *prod
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListProductPrices returns the user's prices ordered by creation time. A
// non-zero productID limits the list to one product.
func (db *DB) ListProductPrices(userID, productID int64) ([]models.ProductPrice, error) {
	query := `
		SELECT pp.id, pp.product_id, pp.price, pp.created_at
		FROM product_prices pp
		JOIN products p ON p.id = pp.product_id
		WHERE p.user_id = ?`
	args := []any{userID}
	if productID != 0 {
		query += " AND pp.product_id = ?"
		args = append(args, productID)
	}
	query += " ORDER BY pp.created_at, pp.id"

	rows, err := db.run().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := []models.ProductPrice{}
	for rows.Next() {
		pp, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, *pp)
	}
	return prices, rows.Err()
}

// CurrentPrice returns the most recent price of a product.
func (db *DB) CurrentPrice(userID, productID int64) (*models.ProductPrice, error) {
	row := db.run().queryRow(`
		SELECT pp.id, pp.product_id, pp.price, pp.created_at
		FROM product_prices pp
		JOIN products p ON p.id = pp.product_id
		WHERE p.user_id = ? AND pp.product_id = ?
		ORDER BY pp.created_at DESC, pp.id DESC
		LIMIT 1
	`, userID, productID)
	return scanPrice(row)
}
