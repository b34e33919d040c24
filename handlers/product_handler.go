package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"flower_shop/middleware"
	"flower_shop/services"

	"github.com/gin-gonic/gin"
)

type ProductHandler struct {
	productService *services.ProductService
	catalogService *services.CatalogService
}

func NewProductHandler(productService *services.ProductService, catalogService *services.CatalogService) *ProductHandler {
	return &ProductHandler{productService: productService, catalogService: catalogService}
}

// ListProducts accepts ?category=, ?activo= and ?q=.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	filter := services.ProductFilter{
		CategoryID: c.Query("category"),
		Query:      c.Query("q"),
	}
	if v := c.Query("activo"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid activo %q", v))
			return
		}
		filter.Active = &active
	}

	products, err := h.productService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, product)
}

func (h *ProductHandler) OnSale(c *gin.Context) {
	products, err := h.catalogService.OnSale(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, products)
}

// Discounts returns the product id to discount map the storefront renders
// its price tags from.
func (h *ProductHandler) Discounts(c *gin.Context) {
	index, err := h.catalogService.DiscountIndex(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, index)
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	var creatorID string
	if claims, ok := middleware.CurrentClaims(c); ok {
		creatorID = claims.UserID
	}
	product, err := h.productService.Create(c.Request.Context(), in, creatorID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var patch services.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	product, err := h.productService.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := h.productService.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"id": id, "activo": false})
}
