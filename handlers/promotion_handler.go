package handlers

import (
	"fmt"
	"net/http"
	"time"

	"flower_shop/services"

	"github.com/gin-gonic/gin"
)

type PromotionHandler struct {
	promotionService *services.PromotionService
}

func NewPromotionHandler(promotionService *services.PromotionService) *PromotionHandler {
	return &PromotionHandler{promotionService: promotionService}
}

type applyRequest struct {
	ProductIDs []string `json:"productIds" binding:"required,min=1,dive,required"`
}

func (h *PromotionHandler) ListPromotions(c *gin.Context) {
	promotions, err := h.promotionService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, promotions)
}

// ListActivePromotions accepts an optional RFC3339 ?at= instead of now.
func (h *PromotionHandler) ListActivePromotions(c *gin.Context) {
	var now time.Time
	if v := c.Query("at"); v != "" {
		at, err := time.Parse(time.RFC3339, v)
		if err != nil {
			badRequest(c, fmt.Errorf("invalid at %q, want RFC3339", v))
			return
		}
		now = at
	}

	promotions, err := h.promotionService.ListActive(c.Request.Context(), now)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, promotions)
}

func (h *PromotionHandler) GetPromotion(c *gin.Context) {
	promotion, err := h.promotionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, promotion)
}

func (h *PromotionHandler) CreatePromotion(c *gin.Context) {
	var in services.PromotionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	promotion, err := h.promotionService.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, promotion)
}

func (h *PromotionHandler) UpdatePromotion(c *gin.Context) {
	var patch services.PromotionPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	promotion, err := h.promotionService.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, promotion)
}

func (h *PromotionHandler) DeletePromotion(c *gin.Context) {
	id := c.Param("id")
	if err := h.promotionService.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"id": id, "activo": false})
}

func (h *PromotionHandler) ApplyPromotion(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	promotion, err := h.promotionService.ApplyToProducts(c.Request.Context(), c.Param("id"), req.ProductIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, promotion)
}
