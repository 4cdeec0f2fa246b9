package controllers

import (
	"net/http"

	"restaurant-service/services"

	"github.com/gin-gonic/gin"
)

type ReportController struct {
	reportService services.ReportService
}

func NewReportController(reportService services.ReportService) *ReportController {
	return &ReportController{reportService: reportService}
}

// OrdersReport handles GET /reports/orders?date_from=&date_to=.
func (rc *ReportController) OrdersReport(ctx *gin.Context) {
	report, svcErr := rc.reportService.OrdersReport(ctx.Request.Context(), ctx.Query("date_from"), ctx.Query("date_to"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"report": report})
}

// Dashboard handles GET /reports/dashboard.
func (rc *ReportController) Dashboard(ctx *gin.Context) {
	dashboard, svcErr := rc.reportService.Dashboard(ctx.Request.Context())
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"dashboard": dashboard})
}
