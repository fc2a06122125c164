package handler

import (
	"net/http"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "storefront-service"

// Handlers - все обработчики HTTP API
type Handlers struct {
	Products *ProductHandler
	Orders   *OrderHandler
	Users    *UserHandler
	Admin    *AdminHandler
}

// SetupRoutes настраивает все маршруты Storefront Service
func SetupRoutes(h Handlers, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	// Span на каждый запрос; trace id попадает в логи через контекст
	router.Use(otelgin.Middleware(serviceName))

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowWildcard:    true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	// Публичные эндпоинты
	api.GET("/products", h.Products.ListProducts)
	api.GET("/products/:slug", h.Products.GetProduct)
	api.GET("/tax", h.Admin.GetTax)

	protected := api.Group("")
	protected.Use(authMiddleware.Authenticate())
	admin := authMiddleware.RequireAdmin()

	products := protected.Group("/products")
	{
		products.POST("/:id/reviews", h.Products.UpsertReview)
		products.POST("", admin, h.Products.CreateProduct)
		products.DELETE("/:id", admin, h.Products.DeleteProduct)
	}

	orders := protected.Group("/orders")
	{
		orders.POST("", h.Orders.PlaceOrder)
		orders.GET("/mine", h.Orders.GetMyOrders)
		orders.GET("/:id", h.Orders.GetOrder)
		orders.PUT("/:id/pay", h.Orders.CapturePayment)

		orders.GET("", admin, h.Orders.ListOrders)
		orders.GET("/summary", admin, h.Orders.GetSummary)
		orders.PUT("/:id/deliver", admin, h.Orders.MarkDelivered)
		orders.DELETE("/:id", admin, h.Orders.DeleteOrder)
	}

	users := protected.Group("/users")
	{
		users.PUT("/profile", h.Users.UpdateProfile)
		users.DELETE("/profile", h.Users.DeleteAccount)
		users.DELETE("/:id", admin, h.Users.DeleteUser)
	}

	protected.PUT("/tax", admin, h.Admin.UpdateTax)
	protected.POST("/admin/reply", admin, h.Admin.SendReply)

	return router
}
