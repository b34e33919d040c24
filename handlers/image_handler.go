package handlers

import (
	"net/http"

	"flower_shop/services"

	"github.com/gin-gonic/gin"
)

// maxUploadBody bounds the JSON body; base64 inflates the image by a third.
const maxUploadBody = 8 << 20

type ImageHandler struct {
	imageService *services.ImageService
}

func NewImageHandler(imageService *services.ImageService) *ImageHandler {
	return &ImageHandler{imageService: imageService}
}

func (h *ImageHandler) ListImages(c *gin.Context) {
	images, err := h.imageService.List(c.Request.Context(), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, images)
}

func (h *ImageHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBody)
	var in services.UploadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	image, err := h.imageService.Upload(c.Request.Context(), c.Param("productId"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, image)
}

func (h *ImageHandler) SetMainImage(c *gin.Context) {
	image, err := h.imageService.SetMain(c.Request.Context(), c.Param("productId"), c.Param("imageId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, image)
}

func (h *ImageHandler) DeleteImage(c *gin.Context) {
	id := c.Param("id")
	if err := h.imageService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"id": id})
}
