package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/retailrewards/rewards-backend/internal/config"
	"github.com/retailrewards/rewards-backend/internal/handlers"
	"github.com/retailrewards/rewards-backend/internal/middleware"
)

// HandlerDependencies carries the handlers the router wires up
type HandlerDependencies struct {
	ReceiptHandler   *handlers.ReceiptHandler
	FraudHandler     *handlers.FraudHandler
	DrawHandler      *handlers.DrawHandler
	CustomerHandler  *handlers.CustomerHandler
	ShopHandler      *handlers.ShopHandler
	SchedulerHandler *handlers.SchedulerHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	api := router.Group("/api/v1")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})

		receipts := api.Group("/receipts")
		{
			receipts.POST("", deps.ReceiptHandler.SubmitReceipt)
			receipts.GET("", deps.ReceiptHandler.GetReceipts)
			receipts.GET("/:id", deps.ReceiptHandler.GetReceiptByID)
			receipts.GET("/customer/:phone", deps.ReceiptHandler.GetReceiptsByCustomer)
		}

		fraud := api.Group("/fraud")
		{
			fraud.GET("/stats", deps.FraudHandler.GetStats)
			fraud.GET("/review-queue", deps.FraudHandler.GetReviewQueue)
			fraud.GET("/thresholds", deps.FraudHandler.GetThresholds)
			fraud.POST("/review/:id", deps.FraudHandler.ReviewReceipt)
		}

		draws := api.Group("/draws")
		{
			draws.POST("/run", deps.DrawHandler.RunDraw)
			draws.GET("", deps.DrawHandler.GetDraws)
			draws.GET("/date/:date", deps.DrawHandler.GetDrawByDate)
			draws.GET("/winner/:phone", deps.DrawHandler.GetWinsByPhone)
		}

		customers := api.Group("/customers")
		{
			customers.GET("", deps.CustomerHandler.GetCustomers)
			customers.GET("/count", deps.CustomerHandler.GetCustomerCount)
			customers.GET("/:phone", deps.CustomerHandler.GetCustomerByPhone)
		}

		shops := api.Group("/shops")
		{
			shops.GET("", deps.ShopHandler.GetShops)
			shops.GET("/count", deps.ShopHandler.GetShopCount)
			shops.GET("/:id", deps.ShopHandler.GetShopByID)
		}

		if deps.SchedulerHandler != nil {
			sched := api.Group("/scheduler")
			{
				sched.GET("/status", deps.SchedulerHandler.GetStatus)
				sched.POST("/trigger", deps.SchedulerHandler.Trigger)
			}
		}
	}

	return router
}
