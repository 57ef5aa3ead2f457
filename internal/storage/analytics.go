package storage

import (
	"time"

	"finance-tracker/internal/models"
)

// CategoryTotal holds the aggregated expenses of a single category.
type CategoryTotal struct {
	Category string
	Total    models.Cents
	Count    int
}

// ExpenseEntry is one expense with its price, used for time series.
type ExpenseEntry struct {
	Date  time.Time
	Price models.Cents
}

// ListExpenseEntries returns every expense of the user with its price, ordered by date.
func (db *DB) ListExpenseEntries(userID int64) ([]ExpenseEntry, error) {
	rows, err := db.run().query(`
		SELECT t.date, pp.price
		FROM transactions t
		JOIN product_prices pp ON pp.id = t.product_price_id
		WHERE t.user_id = ? AND t.transaction_type = ?
		ORDER BY t.date`,
		userID, string(models.Expense),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []ExpenseEntry
	for rows.Next() {
		var e ExpenseEntry
		var price int64
		if err := rows.Scan(&e.Date, &price); err != nil {
			return nil, err
		}
		e.Date = e.Date.Local()
		e.Price = models.Cents(price)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetCategoryTotals returns expense totals per category, ordered by category
// name. A non-zero year and month limit the totals to that month.
func (db *DB) GetCategoryTotals(userID int64, year, month int) ([]CategoryTotal, error) {
	query := `
		SELECT c.name, CAST(SUM(pp.price) AS BIGINT), COUNT(*)
		FROM transactions t
		JOIN products p ON p.id = t.product_id
		JOIN categories c ON c.id = p.category_id
		JOIN product_prices pp ON pp.id = t.product_price_id
		WHERE t.user_id = ? AND t.transaction_type = ?`
	args := []any{userID, string(models.Expense)}
	if year != 0 && month != 0 {
		start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
		query += " AND t.date >= ? AND t.date < ?"
		args = append(args, utc(start), utc(start.AddDate(0, 1, 0)))
	}
	query += " GROUP BY c.name ORDER BY c.name"

	rows, err := db.run().query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var ct CategoryTotal
		var total int64
		if err := rows.Scan(&ct.Category, &total, &ct.Count); err != nil {
			return nil, err
		}
		ct.Total = models.Cents(total)
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

// PriceHistory returns the prices of one of the user's products, oldest first.
func (db *DB) PriceHistory(userID, productID int64) ([]models.ProductPrice, error) {
	if err := db.run().owned(tableProducts, userID, productID); err != nil {
		return nil, err
	}
	return db.ListProductPrices(userID, productID)
}
