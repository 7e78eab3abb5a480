package service

import (
	"context"
	"strings"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/repository"
)

// CatalogService serves categories, brands and products.
type CatalogService struct {
	store  repository.Store
	logger *logging.Logger
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: logging.New("catalog-service"),
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, apperrors.Internal("list categories", err)
	}
	if len(categories) == 0 {
		return nil, apperrors.NotFound("categories", "all")
	}
	return categories, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.store.Categories().GetByID(ctx, id)
	return c, apperrors.Internal("get category", err)
}

func (s *CatalogService) CreateCategory(ctx context.Context, c *models.Category) (*models.Category, error) {
	if err := validateName("category_name", c.Name); err != nil {
		return nil, err
	}
	if err := s.store.Categories().Create(ctx, c); err != nil {
		return nil, apperrors.Internal("create category", err)
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, c *models.Category) error {
	if c.ID != id {
		return apperrors.NewValidationError("category_id", "path id does not match body id")
	}
	if err := validateName("category_name", c.Name); err != nil {
		return err
	}
	return apperrors.Internal("update category", s.store.Categories().Update(ctx, c))
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return apperrors.Internal("delete category", s.store.Categories().Delete(ctx, id))
}

func (s *CatalogService) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	brands, err := s.store.Brands().List(ctx)
	if err != nil {
		return nil, apperrors.Internal("list brands", err)
	}
	if len(brands) == 0 {
		return nil, apperrors.NotFound("brands", "all")
	}
	return brands, nil
}

func (s *CatalogService) GetBrand(ctx context.Context, id int64) (*models.Brand, error) {
	b, err := s.store.Brands().GetByID(ctx, id)
	return b, apperrors.Internal("get brand", err)
}

func (s *CatalogService) BrandsByCategory(ctx context.Context, categoryID int64) ([]*models.Brand, error) {
	brands, err := s.store.Brands().ListByCategory(ctx, categoryID)
	if err != nil {
		return nil, apperrors.Internal("list brands by category", err)
	}
	if len(brands) == 0 {
		return nil, apperrors.NotFound("brands for category", categoryID)
	}
	return brands, nil
}

// CreateBrand stores a brand. Its category must already exist.
func (s *CatalogService) CreateBrand(ctx context.Context, b *models.Brand) (*models.Brand, error) {
	if err := validateName("brand_name", b.Name); err != nil {
		return nil, err
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Categories().GetByID(ctx, b.CategoryID); err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewValidationError("category_id", "category does not exist")
			}
			return err
		}
		return tx.Brands().Create(ctx, b)
	})
	if err != nil {
		return nil, apperrors.Internal("create brand", err)
	}
	return b, nil
}

func (s *CatalogService) UpdateBrand(ctx context.Context, id int64, b *models.Brand) error {
	if b.ID != id {
		return apperrors.NewValidationError("brand_id", "path id does not match body id")
	}
	if err := validateName("brand_name", b.Name); err != nil {
		return err
	}
	return apperrors.Internal("update brand", s.store.Brands().Update(ctx, b))
}

func (s *CatalogService) DeleteBrand(ctx context.Context, id int64) error {
	return apperrors.Internal("delete brand", s.store.Brands().Delete(ctx, id))
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]*models.Product, error) {
	return s.listProducts(ctx, repository.ProductFilter{})
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.store.Products().GetByID(ctx, id)
	return p, apperrors.Internal("get product", err)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	if err := s.store.Products().Create(ctx, p); err != nil {
		return nil, apperrors.Internal("create product", err)
	}
	return p, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, p *models.Product) error {
	if p.ID != id {
		return apperrors.NewValidationError("product_id", "path id does not match body id")
	}
	if err := validateProduct(p); err != nil {
		return err
	}
	return apperrors.Internal("update product", s.store.Products().Update(ctx, p))
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return apperrors.Internal("delete product", s.store.Products().Delete(ctx, id))
}

func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID int64) ([]*models.Product, error) {
	return s.nonEmpty(s.listProducts(ctx, repository.ProductFilter{CategoryID: categoryID}))
}

func (s *CatalogService) ProductsByBrand(ctx context.Context, brandID int64) ([]*models.Product, error) {
	return s.nonEmpty(s.listProducts(ctx, repository.ProductFilter{BrandID: brandID}))
}

// ProductsByCategoryAndBrand may return an empty list.
func (s *CatalogService) ProductsByCategoryAndBrand(ctx context.Context, categoryID, brandID int64) ([]*models.Product, error) {
	return s.listProducts(ctx, repository.ProductFilter{CategoryID: categoryID, BrandID: brandID})
}

func (s *CatalogService) ProductsByIDs(ctx context.Context, ids []int64) ([]*models.Product, error) {
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("ids", "product ids cannot be empty")
	}
	return s.nonEmpty(s.listProducts(ctx, repository.ProductFilter{IDs: ids}))
}

// ProductsByPriceBand lists a category's products priced inside the named band.
func (s *CatalogService) ProductsByPriceBand(ctx context.Context, categoryID int64, band string) ([]*models.Product, error) {
	b, ok := models.LookupPriceBand(band)
	if !ok {
		return nil, &apperrors.UnprocessableError{
			Message: "invalid price category, valid options are: low, medium, high, premium",
		}
	}

	filter := repository.ProductFilter{CategoryID: categoryID, MinPrice: &b.Min}
	if !b.Unbounded() {
		filter.MaxPrice = &b.Max
	}
	return s.nonEmpty(s.listProducts(ctx, filter))
}

func (s *CatalogService) SearchProducts(ctx context.Context, text string) ([]*models.Product, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("text", "search text is required")
	}
	return s.nonEmpty(s.listProducts(ctx, repository.ProductFilter{NameLike: text}))
}

func (s *CatalogService) listProducts(ctx context.Context, filter repository.ProductFilter) ([]*models.Product, error) {
	products, err := s.store.Products().List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list products", logging.Fields{"error": err.Error()})
		return nil, apperrors.Internal("list products", err)
	}
	return products, nil
}

func (s *CatalogService) nonEmpty(products []*models.Product, err error) ([]*models.Product, error) {
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, apperrors.NotFound("products", "matching")
	}
	return products, nil
}

func validateProduct(p *models.Product) error {
	if err := validateName("product_name", p.Name); err != nil {
		return err
	}
	if p.Price.IsNegative() {
		return apperrors.NewValidationError("price", "price cannot be negative")
	}
	if p.Quantity < 0 {
		return apperrors.NewValidationError("quantity", "quantity cannot be negative")
	}
	return nil
}
