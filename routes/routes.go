package routes

import (
	"restaurant-service/controllers"
	"restaurant-service/middleware"
	"restaurant-service/ws"

	"github.com/gin-gonic/gin"
)

// RegisterOrderRoutes sets up the order and order item routes.
func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController, jwtSecret string) {
	orderRoutes := r.Group("/orders")
	orderRoutes.Use(middleware.AuthMiddleware(jwtSecret))

	orderRoutes.POST("", oc.CreateOrder)
	orderRoutes.GET("", oc.ListOrders)
	orderRoutes.GET("/:id", oc.GetOrder)
	orderRoutes.GET("/:id/summary", oc.GetSummary)
	orderRoutes.PATCH("/:id", oc.UpdateOrder)
	orderRoutes.PATCH("/:id/status", oc.UpdateStatus)
	orderRoutes.POST("/:id/items", oc.AddItem)
	orderRoutes.PATCH("/:id/items/:itemId", oc.UpdateItem)
	orderRoutes.DELETE("/:id/items/:itemId", oc.RemoveItem)

	// Admin-only routes
	orderRoutes.DELETE("/:id", middleware.AdminOnly(), oc.DeleteOrder)
}

// RegisterReportRoutes sets up the manager reports. All of them are admin only.
func RegisterReportRoutes(r *gin.Engine, rc *controllers.ReportController, jwtSecret string) {
	reportRoutes := r.Group("/reports")
	reportRoutes.Use(middleware.AuthMiddleware(jwtSecret), middleware.AdminOnly())
	reportRoutes.GET("/orders", rc.OrdersReport)
	reportRoutes.GET("/dashboard", rc.Dashboard)
}

// RegisterBoardRoutes exposes the live order board websocket.
func RegisterBoardRoutes(r *gin.Engine, hub *ws.OrderHub, jwtSecret string) {
	r.GET("/ws/orders", middleware.AuthMiddleware(jwtSecret), hub.HandleWebSocket)
}
