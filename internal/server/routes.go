package server

import (
	"github.com/labstack/echo/v4"

	"example.com/sme-finhealth/backend/internal/handlers"
)

type routeHandlers struct {
	health        *handlers.HealthHandler
	auth          *handlers.AuthHandler
	companies     *handlers.CompanyHandler
	uploads       *handlers.UploadHandler
	analysis      *handlers.AnalysisHandler
	stats         *handlers.StatsHandler
	notifications *handlers.NotificationHandler
}

type routeMiddleware struct {
	auth        echo.MiddlewareFunc
	authLimiter echo.MiddlewareFunc
	aiLimiter   echo.MiddlewareFunc
	uploadLimit echo.MiddlewareFunc
}

func registerRoutes(e *echo.Echo, h routeHandlers, mw routeMiddleware) {
	e.GET("/health", h.health.Health)

	api := e.Group("/api/v1")
	authGroup := api.Group("/auth", mw.authLimiter)

	authGroup.POST("/register", h.auth.Register)
	authGroup.POST("/login", h.auth.Login)
	authGroup.POST("/refresh", h.auth.Refresh)
	authGroup.POST("/logout", h.auth.Logout)
	authGroup.GET("/me", h.auth.Me, mw.auth)
	authGroup.PATCH("/me/language", h.auth.UpdateLanguage, mw.auth)

	companies := api.Group("/companies", mw.auth)
	companies.GET("", h.companies.List)
	companies.POST("", h.companies.Create)
	companies.GET("/:companyId", h.companies.Get)
	companies.PATCH("/:companyId", h.companies.Update)
	companies.DELETE("/:companyId", h.companies.Delete)

	companies.GET("/:companyId/statements", h.uploads.ListStatements)
	companies.POST("/:companyId/statements", h.uploads.UploadStatement, mw.uploadLimit)
	companies.POST("/:companyId/transactions", h.uploads.UploadTransactions, mw.uploadLimit)

	companies.GET("/:companyId/ratios", h.analysis.Ratios)
	companies.GET("/:companyId/cash-flow", h.analysis.CashFlow)
	companies.GET("/:companyId/credit-score", h.analysis.CreditScore)
	companies.GET("/:companyId/credit-score/history", h.analysis.CreditScoreHistory)
	companies.GET("/:companyId/health-score", h.analysis.HealthScore, mw.aiLimiter)
	companies.GET("/:companyId/export/json", h.analysis.ExportJSON)
	companies.GET("/:companyId/export/csv", h.analysis.ExportCSV)
	companies.GET("/:companyId/stats/monthly-cash-flow", h.stats.MonthlyCashFlow)

	aiGroup := companies.Group("/:companyId/ai", mw.aiLimiter)
	aiGroup.POST("/cost-optimization", h.analysis.CostOptimization)
	aiGroup.POST("/product-recommendations", h.analysis.ProductRecommendations)
	aiGroup.POST("/investor-report", h.analysis.InvestorReport)

	api.GET("/ai-requests", h.analysis.AIRequests, mw.auth)
	api.GET("/stats/overview", h.stats.Overview, mw.auth)

	notifications := api.Group("/notifications", mw.auth)
	notifications.GET("/stream", h.notifications.Stream)
}
