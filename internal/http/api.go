package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"shop-api/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth      service.AuthService
	customers service.CustomerService
	products  service.ProductService
	orders    service.OrderService
	logger    logrus.FieldLogger
}

func NewHandler(authSvc service.AuthService, customers service.CustomerService, products service.ProductService, orders service.OrderService, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		auth:      authSvc,
		customers: customers,
		products:  products,
		orders:    orders,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	useJSONFieldNames()
	router.Use(corsMiddleware(), h.requestLogger(), metricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
	}

	products := router.Group("/products")
	{
		products.GET("", h.listProducts)
		products.GET("/:id", h.getProduct)

		secured := products.Group("", h.requireAuth())
		secured.POST("", h.createProduct)
		secured.PATCH("/:id", h.updateProduct)
		secured.DELETE("/:id", h.deleteProduct)
		secured.PUT("/:id/image", h.uploadProductImage)
	}

	customers := router.Group("/customers", h.requireAuth())
	{
		customers.GET("/me", h.currentCustomer)

		owned := customers.Group("/:id", h.requireOwner(h.customers))
		owned.GET("", h.getCustomer)
		owned.PATCH("", h.updateCustomer)
		owned.PATCH("/password", h.changePassword)
		owned.DELETE("", h.deleteCustomer)
	}

	orders := router.Group("/orders", h.requireAuth())
	{
		orders.POST("", h.createOrder)
		orders.GET("", h.listOrders)

		owned := orders.Group("/:id", h.requireOwner(h.orders))
		owned.GET("", h.getOrder)
		owned.PATCH("", h.updateOrder)
		owned.DELETE("", h.deleteOrder)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
