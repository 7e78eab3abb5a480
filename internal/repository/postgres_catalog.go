package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

// queryAll runs query and scans every row with scan.
func queryAll[T any](ctx context.Context, s *PostgresStore, op, query string, scan func(rowScanner) (*T, error), args ...interface{}) ([]*T, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	out := make([]*T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return out, nil
}

// queryOne runs query expecting one row; no row is reported as entity id
// not found.
func queryOne[T any](ctx context.Context, s *PostgresStore, entity string, id int64, query string, scan func(rowScanner) (*T, error)) (*T, error) {
	v, err := scan(s.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound(entity, id)
	}
	if err != nil {
		return nil, classify("get "+entity, err)
	}
	return v, nil
}

type pgCategories struct{ s *PostgresStore }

func (r pgCategories) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	return queryOne(ctx, r.s, "category", id, `SELECT id, name FROM categories WHERE id = $1`, scanCategory)
}

func (r pgCategories) List(ctx context.Context) ([]*models.Category, error) {
	return queryAll(ctx, r.s, "list categories", `SELECT id, name FROM categories ORDER BY id`, scanCategory)
}

func (r pgCategories) Create(ctx context.Context, c *models.Category) error {
	id, err := r.s.insert(ctx, "categories", c.ID, []string{"name"}, []interface{}{c.Name})
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (r pgCategories) Update(ctx context.Context, c *models.Category) error {
	return r.s.execAffecting(ctx, "update category", "category", c.ID,
		`UPDATE categories SET name = $2 WHERE id = $1`, c.ID, c.Name)
}

func (r pgCategories) Delete(ctx context.Context, id int64) error {
	return r.s.execAffecting(ctx, "delete category", "category", id, `DELETE FROM categories WHERE id = $1`, id)
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name); err != nil {
		return nil, err
	}
	return &c, nil
}

type pgBrands struct{ s *PostgresStore }

func (r pgBrands) GetByID(ctx context.Context, id int64) (*models.Brand, error) {
	return queryOne(ctx, r.s, "brand", id, `SELECT id, name, category_id FROM brands WHERE id = $1`, scanBrand)
}

func (r pgBrands) List(ctx context.Context) ([]*models.Brand, error) {
	return queryAll(ctx, r.s, "list brands", `SELECT id, name, category_id FROM brands ORDER BY id`, scanBrand)
}

func (r pgBrands) ListByCategory(ctx context.Context, categoryID int64) ([]*models.Brand, error) {
	return queryAll(ctx, r.s, "list brands by category",
		`SELECT id, name, category_id FROM brands WHERE category_id = $1 ORDER BY id`, scanBrand, categoryID)
}

func (r pgBrands) Create(ctx context.Context, b *models.Brand) error {
	id, err := r.s.insert(ctx, "brands", b.ID, []string{"name", "category_id"}, []interface{}{b.Name, b.CategoryID})
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (r pgBrands) Update(ctx context.Context, b *models.Brand) error {
	return r.s.execAffecting(ctx, "update brand", "brand", b.ID,
		`UPDATE brands SET name = $2, category_id = $3 WHERE id = $1`, b.ID, b.Name, b.CategoryID)
}

func (r pgBrands) Delete(ctx context.Context, id int64) error {
	return r.s.execAffecting(ctx, "delete brand", "brand", id, `DELETE FROM brands WHERE id = $1`, id)
}

func scanBrand(row rowScanner) (*models.Brand, error) {
	var b models.Brand
	if err := row.Scan(&b.ID, &b.Name, &b.CategoryID); err != nil {
		return nil, err
	}
	return &b, nil
}

const productColumns = `id, name, price, quantity, image_url, brand_id, category_id`

type pgProducts struct{ s *PostgresStore }

func (r pgProducts) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	return queryOne(ctx, r.s, "product", id, `SELECT `+productColumns+` FROM products WHERE id = $1`, scanProduct)
}

func (r pgProducts) List(ctx context.Context, f ProductFilter) ([]*models.Product, error) {
	var w whereBuilder
	if f.CategoryID != 0 {
		w.add("category_id = ?", f.CategoryID)
	}
	if f.BrandID != 0 {
		w.add("brand_id = ?", f.BrandID)
	}
	if len(f.IDs) > 0 {
		w.add("id = ANY(?)", pq.Array(f.IDs))
	}
	if f.MinPrice != nil {
		w.add("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("price < ?", *f.MaxPrice)
	}
	if f.NameLike != "" {
		w.add("name ILIKE '%' || ? || '%'", likeEscape(f.NameLike))
	}

	query := `SELECT ` + productColumns + ` FROM products` + w.String() + ` ORDER BY id`
	return queryAll(ctx, r.s, "list products", query, scanProduct, w.args...)
}

func (r pgProducts) Create(ctx context.Context, p *models.Product) error {
	id, err := r.s.insert(ctx, "products", p.ID,
		[]string{"name", "price", "quantity", "image_url", "brand_id", "category_id"},
		[]interface{}{p.Name, p.Price, p.Quantity, p.ImageURL, p.BrandID, p.CategoryID},
	)
	if err != nil {
		return err
	}
	p.ID = id
	return nil
}

func (r pgProducts) Update(ctx context.Context, p *models.Product) error {
	return r.s.execAffecting(ctx, "update product", "product", p.ID,
		`UPDATE products SET name = $2, price = $3, quantity = $4, image_url = $5, brand_id = $6, category_id = $7
		WHERE id = $1`,
		p.ID, p.Name, p.Price, p.Quantity, p.ImageURL, p.BrandID, p.CategoryID)
}

func (r pgProducts) Delete(ctx context.Context, id int64) error {
	return r.s.execAffecting(ctx, "delete product", "product", id, `DELETE FROM products WHERE id = $1`, id)
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var p models.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.ImageURL, &p.BrandID, &p.CategoryID); err != nil {
		return nil, err
	}
	return &p, nil
}

const reviewColumns = `id, product_id, user_id, rating, content, created_at`

type pgReviews struct{ s *PostgresStore }

func (r pgReviews) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	return queryOne(ctx, r.s, "review", id, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, scanReview)
}

func (r pgReviews) List(ctx context.Context) ([]*models.Review, error) {
	return queryAll(ctx, r.s, "list reviews", `SELECT `+reviewColumns+` FROM reviews ORDER BY id`, scanReview)
}

func (r pgReviews) ListByProduct(ctx context.Context, productID int64) ([]*models.Review, error) {
	return queryAll(ctx, r.s, "list reviews by product",
		`SELECT `+reviewColumns+` FROM reviews WHERE product_id = $1 ORDER BY id`, scanReview, productID)
}

func (r pgReviews) ListByUser(ctx context.Context, userID int64) ([]*models.Review, error) {
	return queryAll(ctx, r.s, "list reviews by user",
		`SELECT `+reviewColumns+` FROM reviews WHERE user_id = $1 ORDER BY id`, scanReview, userID)
}

func (r pgReviews) Create(ctx context.Context, rv *models.Review) error {
	id, err := r.s.insert(ctx, "reviews", rv.ID,
		[]string{"product_id", "user_id", "rating", "content", "created_at"},
		[]interface{}{rv.ProductID, rv.UserID, rv.Rating, rv.Content, rv.CreatedAt},
	)
	if err != nil {
		return err
	}
	rv.ID = id
	return nil
}

func (r pgReviews) Update(ctx context.Context, rv *models.Review) error {
	return r.s.execAffecting(ctx, "update review", "review", rv.ID,
		`UPDATE reviews SET product_id = $2, user_id = $3, rating = $4, content = $5 WHERE id = $1`,
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Content)
}

func (r pgReviews) Delete(ctx context.Context, id int64) error {
	return r.s.execAffecting(ctx, "delete review", "review", id, `DELETE FROM reviews WHERE id = $1`, id)
}

func scanReview(row rowScanner) (*models.Review, error) {
	var rv models.Review
	if err := row.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Content, &rv.CreatedAt); err != nil {
		return nil, err
	}
	return &rv, nil
}
