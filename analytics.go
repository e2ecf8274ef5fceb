package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) ResourceAnalytics(c *gin.Context) {
	totals, err := a.store.ResourceTotalsByCategory(c.Request.Context())
	if err != nil {
		a.serverError(c, "failed to aggregate resources", err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (a *API) AlertAnalytics(c *gin.Context) {
	counts, err := a.store.AlertsPerDay(c.Request.Context())
	if err != nil {
		a.serverError(c, "failed to aggregate alerts", err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (a *API) VolunteerAnalytics(c *gin.Context) {
	counts, err := a.store.VolunteersPerDay(c.Request.Context())
	if err != nil {
		a.serverError(c, "failed to aggregate volunteers", err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

type DashboardStats struct {
	TotalResources    int64      `json:"totalResources"`
	ActiveVolunteers  int64      `json:"activeVolunteers"`
	RecentAlerts      int64      `json:"recentAlerts"`
	LowStockItems     int        `json:"lowStockItems"`
	LowStockResources []Resource `json:"lowStockResources"`
	LatestAlerts      []Alert    `json:"latestAlerts"`
}

// Dashboard collects the overview counters in one call.
func (a *API) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	var stats DashboardStats
	var err error

	if stats.TotalResources, err = a.store.CountResources(ctx); err != nil {
		a.serverError(c, "failed to count resources", err)
		return
	}
	if stats.ActiveVolunteers, err = a.store.CountUsersByRole(ctx, RoleVolunteer); err != nil {
		a.serverError(c, "failed to count volunteers", err)
		return
	}
	if stats.RecentAlerts, err = a.store.CountAlerts(ctx); err != nil {
		a.serverError(c, "failed to count alerts", err)
		return
	}

	lowStock, err := a.store.ListLowStock(ctx, LowStockThreshold)
	if err != nil {
		a.serverError(c, "failed to list low stock", err)
		return
	}
	stats.LowStockItems = len(lowStock)
	if len(lowStock) > 4 {
		lowStock = lowStock[:4]
	}
	stats.LowStockResources = lowStock

	if stats.LatestAlerts, err = a.store.ListAlerts(ctx, 3); err != nil {
		a.serverError(c, "failed to list latest alerts", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
