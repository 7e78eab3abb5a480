package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

// ListCategories handles GET /api/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// GetCategory handles GET /api/categories/:id
func (h *Handlers) GetCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	category, err := h.catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// CreateCategory handles POST /api/categories
func (h *Handlers) CreateCategory(c *gin.Context) {
	var category models.Category
	if !bindJSON(c, &category) {
		return
	}
	created, err := h.catalog.CreateCategory(c.Request.Context(), &category)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateCategory handles PUT /api/categories/:id
func (h *Handlers) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var category models.Category
	if !bindJSON(c, &category) {
		return
	}
	if err := h.catalog.UpdateCategory(c.Request.Context(), id, &category); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteCategory handles DELETE /api/categories/:id
func (h *Handlers) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBrands handles GET /api/brands
func (h *Handlers) ListBrands(c *gin.Context) {
	brands, err := h.catalog.ListBrands(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, brands)
}

// GetBrand handles GET /api/brands/:id
func (h *Handlers) GetBrand(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	brand, err := h.catalog.GetBrand(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, brand)
}

// BrandsByCategory handles GET /api/brands/ByCategory/:categoryId
func (h *Handlers) BrandsByCategory(c *gin.Context) {
	categoryID, ok := idParam(c, "categoryId")
	if !ok {
		return
	}
	brands, err := h.catalog.BrandsByCategory(c.Request.Context(), categoryID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, brands)
}

// CreateBrand handles POST /api/brands
func (h *Handlers) CreateBrand(c *gin.Context) {
	var brand models.Brand
	if !bindJSON(c, &brand) {
		return
	}
	created, err := h.catalog.CreateBrand(c.Request.Context(), &brand)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateBrand handles PUT /api/brands/:id
func (h *Handlers) UpdateBrand(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var brand models.Brand
	if !bindJSON(c, &brand) {
		return
	}
	if err := h.catalog.UpdateBrand(c.Request.Context(), id, &brand); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteBrand handles DELETE /api/brands/:id
func (h *Handlers) DeleteBrand(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteBrand(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListProducts handles GET /api/products
func (h *Handlers) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /api/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST /api/products
func (h *Handlers) CreateProduct(c *gin.Context) {
	var product models.Product
	if !bindJSON(c, &product) {
		return
	}
	created, err := h.catalog.CreateProduct(c.Request.Context(), &product)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateProduct handles PUT /api/products/:id
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var product models.Product
	if !bindJSON(c, &product) {
		return
	}
	if err := h.catalog.UpdateProduct(c.Request.Context(), id, &product); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteProduct handles DELETE /api/products/:id
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ProductsByCategory handles GET /api/products/ByCategory/:categoryId
func (h *Handlers) ProductsByCategory(c *gin.Context) {
	categoryID, ok := idParam(c, "categoryId")
	if !ok {
		return
	}
	h.respondProducts(c)(h.catalog.ProductsByCategory(c.Request.Context(), categoryID))
}

// ProductsByBrand handles GET /api/products/ByBrand/:brandId
func (h *Handlers) ProductsByBrand(c *gin.Context) {
	brandID, ok := idParam(c, "brandId")
	if !ok {
		return
	}
	h.respondProducts(c)(h.catalog.ProductsByBrand(c.Request.Context(), brandID))
}

// ProductsByCategoryAndBrand handles
// GET /api/products/categories/:categoryId/brands/:brandId
func (h *Handlers) ProductsByCategoryAndBrand(c *gin.Context) {
	categoryID, ok := idParam(c, "categoryId")
	if !ok {
		return
	}
	brandID, ok := idParam(c, "brandId")
	if !ok {
		return
	}
	h.respondProducts(c)(h.catalog.ProductsByCategoryAndBrand(c.Request.Context(), categoryID, brandID))
}

// ProductsByPriceBand handles
// GET /api/products/categories/:categoryId/ByPriceCategory/:band
func (h *Handlers) ProductsByPriceBand(c *gin.Context) {
	categoryID, ok := idParam(c, "categoryId")
	if !ok {
		return
	}
	h.respondProducts(c)(h.catalog.ProductsByPriceBand(c.Request.Context(), categoryID, c.Param("band")))
}

// ProductsByIDs handles GET /api/products/by-ids?ids=1,2,3
func (h *Handlers) ProductsByIDs(c *gin.Context) {
	var ids []int64
	for _, part := range strings.Split(c.Query("ids"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id format"})
			return
		}
		ids = append(ids, id)
	}
	h.respondProducts(c)(h.catalog.ProductsByIDs(c.Request.Context(), ids))
}

// SearchProducts handles GET /api/products/search/:text
func (h *Handlers) SearchProducts(c *gin.Context) {
	h.respondProducts(c)(h.catalog.SearchProducts(c.Request.Context(), c.Param("text")))
}

func (h *Handlers) respondProducts(c *gin.Context) func([]*models.Product, error) {
	return func(products []*models.Product, err error) {
		if err != nil {
			handleError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}
