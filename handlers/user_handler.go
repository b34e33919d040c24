package handlers

import (
	"fmt"
	"net/http"

	"flower_shop/middleware"
	"flower_shop/services"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.userService.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	token, user, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  gin.H{"token": token, "user": user},
		"token": token,
		"user":  user,
	})
}

// VerifyToken returns the caller's current profile.
func (h *UserHandler) VerifyToken(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	user, err := h.userService.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, fmt.Errorf("token subject: %w", services.ErrUnauthorized))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user, "user": user})
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	claims, _ := middleware.CurrentClaims(c)
	id := c.Param("id")
	if claims == nil || (!claims.IsAdmin() && claims.UserID != id) {
		respondError(c, fmt.Errorf("cannot read another user: %w", services.ErrForbidden))
		return
	}
	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		respondError(c, services.ErrUnauthorized)
		return
	}
	var patch services.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.userService.Update(c.Request.Context(), c.Param("id"), patch, *claims)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if err := h.userService.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"id": id, "activo": false})
}
