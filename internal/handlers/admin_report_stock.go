package handlers

import (
	"context"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cheffnex/internal/models"
	"cheffnex/internal/money"
)

type stockStatus string

const (
	stockOut    stockStatus = "OUT"
	stockLow    stockStatus = "LOW"
	stockNormal stockStatus = "NORMAL"
)

// lowStockMargin warns a little before the minimum is reached.
const lowStockMargin = 1.1

const (
	defaultExpiryWindow = 7
	maxExpiryWindow     = 90
)

func stockStatusOf(i models.Ingredient) stockStatus {
	if i.CurrentStock <= 0 {
		return stockOut
	}
	if i.CurrentStock <= i.MinStock*lowStockMargin {
		return stockLow
	}
	return stockNormal
}

type stockRow struct {
	models.Ingredient
	Value  float64     `json:"value"`
	Status stockStatus `json:"status"`
}

// StockReport values the current stock and flags what needs buying.
// ?critical=true keeps only empty and low items, emptiest first.
func StockReport(reports ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reports/stock"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		criticalOnly := strings.EqualFold(c.Query("critical"), "true")

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		ingredients, err := reports.Ingredients(ctx, restaurantID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var out, low int
		value := 0.0
		rows := make([]stockRow, 0, len(ingredients))
		for _, ing := range ingredients {
			status := stockStatusOf(ing)
			switch status {
			case stockOut:
				out++
			case stockLow:
				low++
			}
			lineValue := ing.CurrentStock * ing.CostPrice
			value += lineValue
			if criticalOnly && status == stockNormal {
				continue
			}
			rows = append(rows, stockRow{Ingredient: ing, Value: money.Round(lineValue), Status: status})
		}
		if criticalOnly {
			sort.SliceStable(rows, func(i, j int) bool { return rows[i].CurrentStock < rows[j].CurrentStock })
		}

		c.JSON(http.StatusOK, gin.H{
			"data":        rows,
			"ingredients": len(ingredients),
			"outOfStock":  out,
			"lowStock":    low,
			"value":       money.Round(value),
		})
	}
}

type expiryRow struct {
	models.Ingredient
	DaysLeft int  `json:"daysLeft"`
	Expired  bool `json:"expired"`
}

// ExpiringReport lists ingredients expiring within ?days (default 7),
// already expired ones included, soonest first.
func ExpiringReport(reports ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reports/expiring"
		defer handlePanic(c, route)

		restaurantID, ok := staffRestaurant(c, route)
		if !ok {
			return
		}
		days := defaultExpiryWindow
		if raw := strings.TrimSpace(c.Query("days")); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > maxExpiryWindow {
				respondWithError(c, http.StatusBadRequest, route, "days must be between 1 and 90")
				return
			}
			days = parsed
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		ingredients, err := reports.Ingredients(ctx, restaurantID)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		now := time.Now().UTC()
		limit := now.AddDate(0, 0, days)
		expired := 0
		rows := make([]expiryRow, 0)
		for _, ing := range ingredients {
			if ing.ExpirationDate == nil || ing.ExpirationDate.After(limit) {
				continue
			}
			row := expiryRow{
				Ingredient: ing,
				DaysLeft:   int(math.Ceil(ing.ExpirationDate.Sub(now).Hours() / 24)),
				Expired:    !ing.ExpirationDate.After(now),
			}
			if row.Expired {
				expired++
			}
			rows = append(rows, row)
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].ExpirationDate.Before(*rows[j].ExpirationDate) })

		c.JSON(http.StatusOK, gin.H{
			"data":    rows,
			"days":    days,
			"alerts":  len(rows),
			"expired": expired,
		})
	}
}
