package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"
)

// SpendingTimeSeries returns expense totals per day, oldest first.
func (h *Handlers) SpendingTimeSeries(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	entries, err := h.db.ListExpenseEntries(user.ID)
	if err != nil {
		h.internalError(w, "list expense entries", err)
		return
	}
	writeJSON(w, http.StatusOK, groupByDay(entries))
}

// groupByDay sums entries that fall on the same local date. Entries are
// expected in date order, so the result is too.
func groupByDay(entries []storage.ExpenseEntry) []models.SpendingPoint {
	points := []models.SpendingPoint{}
	index := make(map[string]int)
	for _, e := range entries {
		dateStr := e.Date.Format("2006-01-02")
		i, ok := index[dateStr]
		if !ok {
			i = len(points)
			index[dateStr] = i
			points = append(points, models.SpendingPoint{Date: dateStr})
		}
		points[i].TotalSpending += e.Price
	}
	return points
}

// CategorySpending returns expense totals per category. Optional year and
// month query parameters restrict the totals to one month.
func (h *Handlers) CategorySpending(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)

	var year, month int
	yearStr := r.URL.Query().Get("year")
	monthStr := r.URL.Query().Get("month")
	if yearStr != "" || monthStr != "" {
		y, errY := strconv.Atoi(yearStr)
		m, errM := strconv.Atoi(monthStr)
		if errY != nil || errM != nil || m < 1 || m > 12 {
			writeError(w, http.StatusBadRequest, "year and month must be given together, month 1-12")
			return
		}
		year, month = y, m
	}

	categoryTotals, err := h.db.GetCategoryTotals(user.ID, year, month)
	if err != nil {
		h.internalError(w, "category totals", err)
		return
	}

	var total models.Cents
	for _, ct := range categoryTotals {
		total += ct.Total
	}

	items := make([]models.CategorySpending, 0, len(categoryTotals))
	for _, ct := range categoryTotals {
		percentage := 0.0
		if total > 0 {
			percentage = float64(ct.Total) / float64(total) * 100
		}
		items = append(items, models.CategorySpending{
			CategoryName:  ct.Category,
			TotalSpending: ct.Total,
			Count:         ct.Count,
			Percentage:    percentage,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// ProductPriceData returns the price history of a product.
func (h *Handlers) ProductPriceData(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r)
	productID, err := strconv.ParseInt(r.URL.Query().Get("product_id"), 10, 64)
	if err != nil || productID <= 0 {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	prices, err := h.db.PriceHistory(user.ID, productID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		h.internalError(w, "price history", err)
		return
	}

	points := make([]models.PricePoint, 0, len(prices))
	for _, p := range prices {
		points = append(points, models.PricePoint{
			Date:  p.CreatedAt.Format("2006-01-02"),
			Price: p.Price,
		})
	}
	writeJSON(w, http.StatusOK, points)
}
