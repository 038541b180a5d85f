package controllers

import (
	"errors"
	"net/http"

	"cartflow/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductController handles read-only product endpoints.
type ProductController struct {
	repo   repository.ProductRepository
	logger *zap.Logger
}

// NewProductController creates a new ProductController.
func NewProductController(repo repository.ProductRepository, logger *zap.Logger) *ProductController {
	return &ProductController{repo: repo, logger: logger}
}

// GetProducts handles GET /products.
func (pc *ProductController) GetProducts(c *gin.Context) {
	products, err := pc.repo.FindAll(c.Request.Context())
	if err != nil {
		pc.logger.Error("Failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load products"})
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /products/:id.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	product, err := pc.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		pc.logger.Error("Failed to load product", zap.String("product_id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load product"})
		return
	}
	c.JSON(http.StatusOK, product)
}
