package routes

import (
	"cartflow/controllers"
	"cartflow/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes sets up the API surface. Everything except /health requires
// a resolved user identity.
func RegisterRoutes(
	r *gin.Engine,
	pc *controllers.ProductController,
	cc *controllers.CartController,
	chc *controllers.CheckoutController,
	oc *controllers.OrderController,
) {
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())

	api.GET("/products", pc.GetProducts)
	api.GET("/products/:id", pc.GetProduct)

	api.GET("/cart", cc.GetCart)
	api.POST("/cart", cc.AddItem)
	api.PATCH("/cart/:id", cc.UpdateQuantity)
	api.DELETE("/cart/:id", cc.RemoveItem)
	api.DELETE("/cart", cc.ClearCart)

	api.POST("/checkout", chc.Checkout)

	api.GET("/orders", oc.GetOrders)
	api.GET("/orders/:id", oc.GetOrder)
}
