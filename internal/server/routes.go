package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API. Everything under the authenticated
// group goes through Authenticate exactly once; per-route permissions
// live in the handlers.
func RegisterRoutes(s *Server, engine *gin.Engine) {
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.POST("/auth/sign-in", s.SignIn)
	engine.POST("/auth/sign-out", s.SignOut)

	if !s.cfg.IsProduction() {
		engine.POST("/internal/test/cleanup", s.TestCleanup)
	}

	api := engine.Group("/")
	api.Use(s.Authenticate)

	api.GET("/auth/me", s.Me)

	api.POST("/clients", s.CreateClient)
	api.GET("/clients", s.ListClients)
	api.GET("/clients/:id", s.GetClientByID)
	api.PATCH("/clients/:id", s.UpdateClient)
	api.DELETE("/clients/:id", s.DeleteClient)
	api.GET("/clients/:id/installments", s.ListClientInstallments)

	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices/generate-monthly", s.GenerateMonthlyInvoices)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.POST("/invoices/:id/cancel", s.CancelInvoice)
	api.POST("/invoices/:id/void", s.VoidInvoice)
	api.POST("/invoices/:id/approve-payment", s.ApproveInvoicePayment)

	api.POST("/transactions", s.CreateTransaction)
	api.GET("/transactions", s.ListTransactions)
	api.GET("/transactions/:id", s.GetTransactionByID)
	api.DELETE("/transactions/:id", s.DeleteTransaction)
	api.POST("/transactions/:id/restore", s.RestoreTransaction)

	api.POST("/cost-items", s.CreateCostItem)
	api.GET("/cost-items", s.ListCostItems)
	api.PATCH("/cost-items/:id", s.UpdateCostItem)
	api.DELETE("/cost-items/:id", s.DeleteCostItem)
	api.GET("/cost-items/:id/subscriptions", s.ListCostSubscriptions)
	api.POST("/cost-subscriptions", s.SubscribeCost)
	api.POST("/cost-subscriptions/materialize", s.MaterializeCosts)
	api.DELETE("/cost-subscriptions/:id", s.UnsubscribeCost)

	api.GET("/reports/dashboard", s.GetDashboard)
	api.GET("/reports/monthly", s.GetMonthlyReport)
	api.GET("/reports/annual", s.GetAnnualReport)
	api.GET("/reports/invoices.csv", s.ExportInvoicesCSV)

	api.GET("/admin/financial/audit", s.AuditFinancial)
	api.POST("/admin/financial/reconcile-month", s.ReconcileMonth)
	api.POST("/admin/financial/normalize-month", s.NormalizeMonth)
	api.POST("/admin/billing/sweep-overdue", s.SweepOverdue)

	api.POST("/notifications", s.CreateNotification)
	api.GET("/notifications", s.ListNotifications)
	api.GET("/notifications/unread-count", s.UnreadNotificationCount)
	api.POST("/notifications/read-all", s.MarkAllNotificationsRead)
	api.POST("/notifications/:id/read", s.MarkNotificationRead)

	api.POST("/tasks", s.CreateTask)
	api.GET("/tasks", s.ListTasks)
	api.GET("/tasks/:id", s.GetTaskByID)
	api.PATCH("/tasks/:id", s.UpdateTask)
	api.DELETE("/tasks/:id", s.DeleteTask)

	api.POST("/media", s.UploadMedia)
	api.GET("/media", s.ListMedia)
	api.GET("/media/:id/url", s.GetMediaURL)
	api.DELETE("/media/:id", s.DeleteMedia)
}
