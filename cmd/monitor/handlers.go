package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stocksentry/stocksentry/internal/application"
	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/logging"
)

func updateStockHandler(monitor *application.StockMonitor, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			CountUnits       float64 `json:"countUnits"`
			ConsumptionRate  float64 `json:"consumptionRate" binding:"required"`
			ReorderThreshold float64 `json:"reorderThreshold"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		stock, outcome, err := monitor.UpdateStock(c.Request.Context(), req.CountUnits, req.ConsumptionRate, req.ReorderThreshold)
		if err != nil {
			c.Error(err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"stock":        stock,
			"notification": outcome,
		})
	}
}

func getStockHandler(monitor *application.StockMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		stock, err := monitor.CurrentStock(c.Request.Context())
		if err != nil {
			c.Error(err)
			return
		}
		if stock == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no stock record yet"})
			return
		}
		c.JSON(http.StatusOK, stock)
	}
}

func evaluateHandler(monitor *application.StockMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		outcome, err := monitor.EvaluateOnce(c.Request.Context())
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"dispatched":   outcome != nil,
			"notification": outcome,
		})
	}
}

func listAlertsHandler(queries *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := queryLimit(c, 50)
		alerts, err := queries.RecentAlerts(c.Request.Context(), limit)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"alerts": alerts, "count": len(alerts)})
	}
}

func acknowledgeAlertHandler(queries *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		alert, err := queries.AcknowledgeAlert(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, alert)
	}
}

func resolveAlertHandler(queries *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		alert, err := queries.ResolveAlert(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, alert)
	}
}

// ingestOrderHandler accepts an order command on the synchronous path.
func ingestOrderHandler(ingestor *application.OrderIngestor, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cmd domain.OrderCommand
		if err := c.ShouldBindJSON(&cmd); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := logging.ContextWithCommandID(c.Request.Context(), cmd.CommandID)
		result, err := ingestor.Ingest(ctx, &cmd, domain.PathSync)
		if err != nil {
			c.Error(err)
			return
		}

		status := http.StatusCreated
		if !result.Processed {
			status = http.StatusOK
		}
		c.JSON(status, result)
	}
}

func listOrdersHandler(queries *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Query("path")
		orders, err := queries.OrdersByPath(c.Request.Context(), path, queryLimit(c, 50))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders), "path": path})
	}
}

func listAuditHandler(queries *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Query("path")
		events, err := queries.AuditByPath(c.Request.Context(), path, queryLimit(c, 50))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events), "path": path})
	}
}

func comparisonHandler(queries *application.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		summaries, err := queries.Comparison(c.Request.Context())
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"paths": summaries})
	}
}

func queryLimit(c *gin.Context, defaultLimit int64) int64 {
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultLimit
}
