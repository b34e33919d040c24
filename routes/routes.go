package routes

import (
	"net/http"
	"time"

	"flower_shop/handlers"
	"flower_shop/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Products   *handlers.ProductHandler
	Promotions *handlers.PromotionHandler
	Categories *handlers.CategoryHandler
	Images     *handlers.ImageHandler
	Users      *handlers.UserHandler
	Dashboard  *handlers.DashboardHandler
}

type Options struct {
	Tokens      middleware.Authenticator
	CORSOrigins []string
	// UploadDir is served under /uploads when set.
	UploadDir string
	// LoginLimiter guards POST /login when set.
	LoginLimiter gin.HandlerFunc
}

// Setup registers the middleware chain and every route on r.
func Setup(r *gin.Engine, h Handlers, opts Options) {
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(), corsMiddleware(opts.CORSOrigins))

	if opts.UploadDir != "" {
		r.Static("/uploads", opts.UploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "pong"})
	})

	// public
	r.POST("/register", h.Users.Register)
	login := []gin.HandlerFunc{h.Users.Login}
	if opts.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{opts.LoginLimiter}, login...)
	}
	r.POST("/login", login...)

	r.GET("/products", h.Products.ListProducts)
	r.GET("/products/on-sale", h.Products.OnSale)
	r.GET("/products/:id", h.Products.GetProduct)
	r.GET("/catalog/discounts", h.Products.Discounts)
	r.GET("/categories", h.Categories.ListCategories)
	r.GET("/categories/:id", h.Categories.GetCategory)
	r.GET("/promotions", h.Promotions.ListPromotions)
	r.GET("/promotions/active", h.Promotions.ListActivePromotions)
	r.GET("/promotions/:id", h.Promotions.GetPromotion)
	r.GET("/images/products/:productId/images", h.Images.ListImages)

	// any signed-in user
	authed := r.Group("/", middleware.Auth(opts.Tokens))
	authed.GET("/verifyToken", h.Users.VerifyToken)
	authed.GET("/users/:id", h.Users.GetUser)
	authed.PUT("/users/:id", h.Users.UpdateUser)

	// administrators
	admin := r.Group("/", middleware.Auth(opts.Tokens), middleware.RequireAdmin())
	admin.GET("/admin", h.Dashboard.Summary)
	admin.GET("/users", h.Users.ListUsers)
	admin.DELETE("/users/:id", h.Users.DeleteUser)

	admin.POST("/products/create", h.Products.CreateProduct)
	admin.PUT("/products/:id", h.Products.UpdateProduct)
	admin.DELETE("/products/:id", h.Products.DeleteProduct)

	admin.POST("/categories/create", h.Categories.CreateCategory)
	admin.PUT("/categories/:id", h.Categories.UpdateCategory)
	admin.DELETE("/categories/:id", h.Categories.DeleteCategory)

	admin.POST("/promotions/create", h.Promotions.CreatePromotion)
	admin.PUT("/promotions/:id", h.Promotions.UpdatePromotion)
	admin.DELETE("/promotions/:id", h.Promotions.DeletePromotion)
	admin.POST("/promotions/:id/apply", h.Promotions.ApplyPromotion)

	admin.POST("/images/products/:productId/images", h.Images.UploadImage)
	admin.PATCH("/images/products/:productId/images/:imageId/main", h.Images.SetMainImage)
	admin.DELETE("/images/:id", h.Images.DeleteImage)
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
