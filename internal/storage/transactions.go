package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"finance-tracker/internal/models"
)

// CreateTransaction records a transaction together with whatever it references
// by name: the product, an inline price (dated at the transaction date) and
// tags. Everything happens in one database transaction.
func (db *DB) CreateTransaction(userID int64, p models.TransactionPayload) (*models.CreateTransactionResponse, error) {
	var resp models.CreateTransactionResponse
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

		var priceID int64
		switch {
		case p.ProductPriceID != nil:
			pp, err := r.price(userID, *p.ProductPriceID)
			if err != nil {
				return err
			}
			if pp.ProductID != productID {
				return fmt.Errorf("%w: price %d belongs to product %d, not %d", ErrMismatch, pp.ID, pp.ProductID, productID)
			}
			priceID = pp.ID
		case p.Price != nil:
			id, err := r.insertPrice(productID, *p.Price, p.Date.Time)
			if err != nil {
				return err
			}
			priceID = id
		default:
			return ErrNotFound
		}

		txID, err := r.insert(`
			INSERT INTO transactions (user_id, product_id, product_price_id, transaction_type, description, date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			userID, productID, priceID, string(p.TransactionType), p.Description, utc(p.Date.Time),
		)
		if err != nil {
			return err
		}

		tags, err := r.linkTags(userID, txID, p.Tags)
		if err != nil {
			return err
		}

		tx, err := r.transaction(userID, txID)
		if err != nil {
			return err
		}
		prod, err := r.product(userID, productID)
		if err != nil {
			return err
		}
		price, err := r.price(userID, priceID)
		if err != nil {
			return err
		}

		resp = models.CreateTransactionResponse{
			Transaction:  *tx,
			Product:      *prod,
			ProductPrice: *price,
			Tags:         tags,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// linkTags resolves each reference (creating named tags that do not exist yet)
// and attaches the tags to the transaction. Repeated tags are linked once.
func (r runner) linkTags(userID, txID int64, refs []models.TagRef) ([]models.Tag, error) {
	tags := []models.Tag{}
	seen := make(map[int64]bool, len(refs))
	for _, ref := range refs {
		var tag *models.Tag
		if ref.IsName() {
			id, _, err := r.findOrCreate(tableTags, userID, ref.Name)
			if err != nil {
				return nil, err
			}
			tag = &models.Tag{ID: id, Name: strings.TrimSpace(ref.Name)}
		} else {
			t, err := r.tag(userID, ref.ID)
			if err != nil {
				return nil, err
			}
			tag = t
		}
		if seen[tag.ID] {
			continue
		}
		seen[tag.ID] = true

		if _, err := r.exec(
			"INSERT INTO transaction_tags (transaction_id, tag_id) VALUES (?, ?)",
			txID, tag.ID,
		); err != nil {
			return nil, translate(err)
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

func scanTransaction(s scanner) (*models.Transaction, error) {
	var t models.Transaction
	var txType string
	var desc sql.NullString
	var date sql.NullTime
	if err := s.Scan(&t.ID, &t.ProductID, &t.ProductPriceID, &txType, &desc, &date); err != nil {
		return nil, translate(err)
	}
	t.TransactionType = models.TransactionType(txType)
	if desc.Valid {
		d := desc.String
		t.Description = &d
	}
	t.Date = models.NewTimestamp(date.Time.Local())
	t.Tags = []int64{}
	return &t, nil
}

func (r runner) transaction(userID, id int64) (*models.Transaction, error) {
	t, err := scanTransaction(r.queryRow(`
		SELECT id, product_id, product_price_id, transaction_type, description, date
		FROM transactions WHERE id = ? AND user_id = ?`,
		id, userID,
	))
	if err != nil {
		return nil, err
	}

	rows, err := r.query("SELECT tag_id FROM transaction_tags WHERE transaction_id = ? ORDER BY tag_id", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tagID int64
		if err := rows.Scan(&tagID); err != nil {
			return nil, err
		}
		t.Tags = append(t.Tags, tagID)
	}
	return t, rows.Err()
}

// ListTransactions retrieves the user's transactions, ordered by date descending.
func (db *DB) ListTransactions(userID int64) ([]models.Transaction, error) {
	r := db.run()
	rows, err := r.query(`
		SELECT id, product_id, product_price_id, transaction_type, description, date
		FROM transactions WHERE user_id = ?
		ORDER BY date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}

	var transactions []models.Transaction
	index := make(map[int64]int)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[t.ID] = len(transactions)
		transactions = append(transactions, *t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tagRows, err := r.query(`
		SELECT tt.transaction_id, tt.tag_id
		FROM transaction_tags tt
		JOIN transactions t ON t.id = tt.transaction_id
		WHERE t.user_id = ?
		ORDER BY tt.tag_id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var txID, tagID int64
		if err := tagRows.Scan(&txID, &tagID); err != nil {
			return nil, err
		}
		if i, ok := index[txID]; ok {
			transactions[i].Tags = append(transactions[i].Tags, tagID)
		}
	}
	if transactions == nil {
		transactions = []models.Transaction{}
	}
	return transactions, tagRows.Err()
}
