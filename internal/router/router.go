package router

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/heartchain/hcs/internal/chain"
	"github.com/heartchain/hcs/internal/config"
	"github.com/heartchain/hcs/internal/handler"
	"github.com/heartchain/hcs/internal/monitor"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, chainManager *chain.Manager, eventMonitor *monitor.EventMonitor, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":  "ok",
			"service": "heartchain-service",
		}
		if chainManager != nil {
			status["chain"] = chainManager.GetHealthStatus()
		}
		c.JSON(200, status)
	})

	// 监控状态
	if eventMonitor != nil {
		r.GET("/monitor/status", func(c *gin.Context) {
			c.JSON(200, eventMonitor.GetStatus())
		})
	}

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 链上活动相关路由
		campaignHandler := handler.NewCampaignHandler(db)
		donationHandler := handler.NewDonationHandler(db)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
			campaigns.GET("/:id/donations", donationHandler.GetCampaignDonations)
		}

		v1.GET("/donors/:address/donations", donationHandler.GetDonorDonations)
		v1.GET("/stats", campaignHandler.GetStats)
	}

	return r
}

// 请求ID中间件，没有则生成一个
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
