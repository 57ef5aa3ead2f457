package storage

import (
	"database/sql"
	"errors"
	"strings"

	"finance-tracker/internal/models"
)

// named tables share the (id, user_id, name) shape.
const (
	tableCategories = "categories"
	tableProducts   = "products"
	tableTags       = "tags"
)

// findOrCreate returns the id of the user's row with the given name in table,
// inserting one if none exists. created reports whether a row was inserted.
func (r runner) findOrCreate(table string, userID int64, name string) (id int64, created bool, err error) {
	name = strings.TrimSpace(name)
	err = r.queryRow("SELECT id FROM "+table+" WHERE user_id = ? AND name = ?", userID, name).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}
	id, err = r.insert("INSERT INTO "+table+" (user_id, name) VALUES (?, ?)", userID, name)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// owned checks that the row with id in table belongs to the user.
func (r runner) owned(table string, userID, id int64) error {
	var one int
	err := r.queryRow("SELECT 1 FROM "+table+" WHERE id = ? AND user_id = ?", id, userID).Scan(&one)
	return translate(err)
}

func (r runner) category(userID, id int64) (*models.Category, error) {
	var c models.Category
	var parent sql.NullInt64
	err := r.queryRow(
		"SELECT id, name, parent_category_id FROM categories WHERE id = ? AND user_id = ?",
		id, userID,
	).Scan(&c.ID, &c.Name, &parent)
	if err != nil {
		return nil, translate(err)
	}
	c.ParentCategoryID = nullableID(parent)
	return &c, nil
}

func (r runner) product(userID, id int64) (*models.Product, error) {
	var p models.Product
	var category sql.NullInt64
	err := r.queryRow(
		"SELECT id, name, category_id FROM products WHERE id = ? AND user_id = ?",
		id, userID,
	).Scan(&p.ID, &p.Name, &category)
	if err != nil {
		return nil, translate(err)
	}
	p.CategoryID = nullableID(category)
	return &p, nil
}

func (r runner) tag(userID, id int64) (*models.Tag, error) {
	var t models.Tag
	err := r.queryRow("SELECT id, name FROM tags WHERE id = ? AND user_id = ?", id, userID).Scan(&t.ID, &t.Name)
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// CreateCategory inserts a category. The parent is taken from ParentCategoryID
// when set, otherwise ParentCategoryName is looked up and created if missing.
func (db *DB) CreateCategory(userID int64, p models.CategoryPayload) (*models.CreateCategoryResponse, error) {
	var resp models.CreateCategoryResponse
	err := db.inTx(func(r runner) error {
		var parentID *int64
		switch {
		case p.ParentCategoryID != nil:
			if err := r.owned(tableCategories, userID, *p.ParentCategoryID); err != nil {
				return err
			}
			parentID = p.ParentCategoryID
		case p.ParentCategoryName != nil && strings.TrimSpace(*p.ParentCategoryName) != "":
			id, _, err := r.findOrCreate(tableCategories, userID, *p.ParentCategoryName)
			if err != nil {
				return err
			}
			parentID = &id
		}

		id, err := r.insert(
			"INSERT INTO categories (user_id, parent_category_id, name) VALUES (?, ?, ?)",
			userID, parentID, strings.TrimSpace(p.Name),
		)
		if err != nil {
			return err
		}
		cat, err := r.category(userID, id)
		if err != nil {
			return err
		}
		resp.Category = *cat

		if parentID != nil {
			parent, err := r.category(userID, *parentID)
			if err != nil {
				return err
			}
			resp.Parent = &models.CategoryRef{ID: parent.ID, Name: parent.Name}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListCategories returns the user's categories ordered by name.
func (db *DB) ListCategories(userID int64) ([]models.Category, error) {
	rows, err := db.run().query(
		"SELECT id, name, parent_category_id FROM categories WHERE user_id = ? ORDER BY name",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &parent); err != nil {
			return nil, err
		}
		c.ParentCategoryID = nullableID(parent)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateProduct inserts a product. The category is taken from CategoryID when
// set, otherwise CategoryName is looked up and created if missing.
func (db *DB) CreateProduct(userID int64, p models.ProductPayload) (*models.CreateProductResponse, error) {
	var resp models.CreateProductResponse
	err := db.inTx(func(r runner) error {
		var categoryID *int64
		switch {
		case p.CategoryID != nil:
			if err := r.owned(tableCategories, userID, *p.CategoryID); err != nil {
				return err
			}
			categoryID = p.CategoryID
		case p.CategoryName != nil && strings.TrimSpace(*p.CategoryName) != "":
			id, _, err := r.findOrCreate(tableCategories, userID, *p.CategoryName)
			if err != nil {
				return err
			}
			categoryID = &id
		}

		id, err := r.insert(
			"INSERT INTO products (user_id, category_id, name) VALUES (?, ?, ?)",
			userID, categoryID, strings.TrimSpace(p.Name),
		)
		if err != nil {
			return err
		}
		prod, err := r.product(userID, id)
		if err != nil {
			return err
		}
		resp.Product = *prod

		if categoryID != nil {
			cat, err := r.category(userID, *categoryID)
			if err != nil {
				return err
			}
			resp.Category = &models.CategoryRef{ID: cat.ID, Name: cat.Name}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListProducts returns the user's products ordered by name.
func (db *DB) ListProducts(userID int64) ([]models.Product, error) {
	rows, err := db.run().query(
		"SELECT id, name, category_id FROM products WHERE user_id = ? ORDER BY name",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		var category sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Name, &category); err != nil {
			return nil, err
		}
		p.CategoryID = nullableID(category)
		products = append(products, p)
	}
	return products, rows.Err()
}

// CreateTag inserts a tag.
func (db *DB) CreateTag(userID int64, name string) (*models.Tag, error) {
	r := db.run()
	id, err := r.insert("INSERT INTO tags (user_id, name) VALUES (?, ?)", userID, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	return r.tag(userID, id)
}

// ListTags returns the user's tags ordered by name.
func (db *DB) ListTags(userID int64) ([]models.Tag, error) {
	rows, err := db.run().query("SELECT id, name FROM tags WHERE user_id = ? ORDER BY name", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func nullableID(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	id := n.Int64
	return &id
}
