package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/controller"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/middleware"
)

type Router struct {
	authController   *controller.AuthController
	storeController  *controller.StoreController
	reviewController *controller.ReviewController
	uploadController *controller.UploadController
	authMiddleware   *middleware.AuthMiddleware
	config           *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	storeController *controller.StoreController,
	reviewController *controller.ReviewController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:   authController,
		storeController:  storeController,
		reviewController: reviewController,
		uploadController: uploadController,
		authMiddleware:   authMiddleware,
		config:           cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Storefront API is running",
		})
	})

	requireLogin := r.authMiddleware.Authenticate()
	optionalLogin := r.authMiddleware.OptionalAuthenticate()

	v1 := router.Group(controller.APIBasePath)
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", requireLogin, r.authController.Logout)
			auth.GET("/me", requireLogin, r.authController.GetMe)
		}

		account := v1.Group("/account")
		{
			account.POST("/forgot", r.authController.Forgot)
			account.GET("/reset/:token", r.authController.ShowReset)
			account.POST("/reset/:token", r.authController.ConfirmedPasswords, r.authController.UpdatePassword)
		}

		stores := v1.Group("/stores")
		{
			stores.GET("", r.storeController.ListStores)
			stores.GET("/near", r.storeController.MapStores)
			stores.GET("/:slug", optionalLogin, r.storeController.GetStoreBySlug)
			stores.POST("", requireLogin, r.storeController.CreateStore)
			stores.POST("/photo", requireLogin, r.uploadController.PresignStorePhoto)
			stores.PUT("/:id", requireLogin, r.storeController.UpdateStore)
			stores.DELETE("/:id", requireLogin, r.storeController.DeleteStore)
		}

		v1.GET("/tags", r.storeController.GetStoresByTag)
		v1.GET("/tags/:tag", r.storeController.GetStoresByTag)
		v1.GET("/top", r.storeController.TopStores)
		v1.GET("/search", r.storeController.SearchStores)

		v1.POST("/reviews/:id", requireLogin, r.reviewController.AddReview)

		admin := v1.Group("/admin", requireLogin, r.authMiddleware.RequireRole(model.RoleAdmin))
		{
			admin.DELETE("/stores/:id", r.storeController.RemoveStore)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
