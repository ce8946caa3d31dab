package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cheffnex/internal/models"
	"cheffnex/internal/money"
	"cheffnex/internal/repository"
)

const uncategorizedLabel = "Sem categoria"

// reportScope reads the restaurant and the date range a sales report covers.
func reportScope(c *gin.Context, route string) (primitive.ObjectID, time.Time, time.Time, bool) {
	restaurantID, ok := staffRestaurant(c, route)
	if !ok {
		return primitive.NilObjectID, time.Time{}, time.Time{}, false
	}
	from, to, err := reportRange(c, time.Now().UTC())
	if err != nil {
		respondWithError(c, http.StatusBadRequest, route, err.Error())
		return primitive.NilObjectID, time.Time{}, time.Time{}, false
	}
	return restaurantID, from, to, true
}

func periodJSON(from, to time.Time) gin.H {
	return gin.H{
		"from": from.Format(dateLayout),
		"to":   to.AddDate(0, 0, -1).Format(dateLayout),
	}
}

type productSalesRow struct {
	repository.ProductSales
	AveragePrice float64 `json:"averagePrice"`
}

// ProductSalesReport ranks products by units sold in the range.
func ProductSalesReport(reports ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reports/products"
		defer handlePanic(c, route)

		restaurantID, from, to, ok := reportScope(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		sales, err := reports.ProductSales(ctx, restaurantID, from, to)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		rows := make([]productSalesRow, 0, len(sales))
		revenue := 0.0
		for _, s := range sales {
			row := productSalesRow{ProductSales: s}
			row.Revenue = money.Round(s.Revenue)
			if s.Quantity > 0 {
				row.AveragePrice = money.Round(s.Revenue / float64(s.Quantity))
			}
			revenue += s.Revenue
			rows = append(rows, row)
		}

		body := periodJSON(from, to)
		body["data"] = rows
		body["distinctProducts"] = len(rows)
		body["revenue"] = money.Round(revenue)
		c.JSON(http.StatusOK, body)
	}
}

type categorySalesRow struct {
	repository.CategorySales
	Share float64 `json:"share"`
}

// CategorySalesReport splits item revenue by category with each one's share.
func CategorySalesReport(reports ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reports/categories"
		defer handlePanic(c, route)

		restaurantID, from, to, ok := reportScope(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		sales, err := reports.CategorySales(ctx, restaurantID, from, to)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		revenue := 0.0
		for _, s := range sales {
			revenue += s.Revenue
		}
		rows := make([]categorySalesRow, 0, len(sales))
		for _, s := range sales {
			row := categorySalesRow{CategorySales: s, Share: money.Share(s.Revenue, revenue)}
			if row.CategoryID == nil || row.Name == "" {
				row.Name = uncategorizedLabel
			}
			row.Revenue = money.Round(s.Revenue)
			rows = append(rows, row)
		}

		body := periodJSON(from, to)
		body["data"] = rows
		body["revenue"] = money.Round(revenue)
		c.JSON(http.StatusOK, body)
	}
}

// ExtraSalesReport ranks extras by units ordered and sums what they brought in.
func ExtraSalesReport(reports ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reports/extras"
		defer handlePanic(c, route)

		restaurantID, from, to, ok := reportScope(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		sales, err := reports.ExtraSales(ctx, restaurantID, from, to)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		revenue := 0.0
		for i := range sales {
			revenue += sales[i].Revenue
			sales[i].Revenue = money.Round(sales[i].Revenue)
		}

		body := periodJSON(from, to)
		body["data"] = sales
		body["distinctExtras"] = len(sales)
		body["revenue"] = money.Round(revenue)
		c.JSON(http.StatusOK, body)
	}
}

type orderTypeRow struct {
	repository.OrderTypeSales
	Label         string  `json:"label"`
	AverageTicket float64 `json:"averageTicket"`
	Share         float64 `json:"share"`
}

// OrderTypeReport compares delivery, pickup and table orders.
func OrderTypeReport(reports ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reports/order-types"
		defer handlePanic(c, route)

		restaurantID, from, to, ok := reportScope(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		sales, err := reports.OrderTypes(ctx, restaurantID, from, to)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var orders int64
		revenue := 0.0
		for _, s := range sales {
			orders += s.Orders
			revenue += s.Revenue
		}
		rows := make([]orderTypeRow, 0, len(sales))
		for _, s := range sales {
			row := orderTypeRow{
				OrderTypeSales: s,
				Label:          orderTypeLabels[s.OrderType],
				AverageTicket:  averageTicket(s.Revenue, s.Orders),
				Share:          money.Share(s.Revenue, revenue),
			}
			if row.Label == "" {
				row.Label = string(s.OrderType)
			}
			row.Revenue = money.Round(s.Revenue)
			rows = append(rows, row)
		}

		body := periodJSON(from, to)
		body["data"] = rows
		body["orders"] = orders
		body["revenue"] = money.Round(revenue)
		body["averageTicket"] = averageTicket(revenue, orders)
		c.JSON(http.StatusOK, body)
	}
}

type dayRow struct {
	repository.DaySales
	AverageTicket float64 `json:"averageTicket"`
}

// DailyRevenueReport lists revenue per day, oldest first.
func DailyRevenueReport(reports ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reports/daily"
		defer handlePanic(c, route)

		restaurantID, from, to, ok := reportScope(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		days, err := reports.DailyRevenue(ctx, restaurantID, from, to)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		var orders int64
		revenue := 0.0
		rows := make([]dayRow, 0, len(days))
		for _, d := range days {
			orders += d.Orders
			revenue += d.Revenue
			row := dayRow{DaySales: d, AverageTicket: averageTicket(d.Revenue, d.Orders)}
			row.Revenue = money.Round(d.Revenue)
			rows = append(rows, row)
		}

		body := periodJSON(from, to)
		body["data"] = rows
		body["orders"] = orders
		body["revenue"] = money.Round(revenue)
		body["averageTicket"] = averageTicket(revenue, orders)
		c.JSON(http.StatusOK, body)
	}
}

type usageRow struct {
	repository.IngredientUsage
	Cost float64 `json:"cost"`
}

// CostOfGoodsReport estimates the cost of what was sold from recipes and
// ingredient-backed extras, and relates it to revenue. costPercent is null
// when there was no revenue.
func CostOfGoodsReport(reports ReportStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /admin/api/reports/cost"
		defer handlePanic(c, route)

		restaurantID, from, to, ok := reportScope(c, route)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
		defer cancel()

		usage, err := reports.IngredientUsage(ctx, restaurantID, from, to)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}
		revenue, err := reports.Revenue(ctx, restaurantID, from, to)
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "db error")
			return
		}

		cost := 0.0
		rows := make([]usageRow, 0, len(usage))
		for _, u := range usage {
			lineCost := u.Quantity * u.CostPrice
			cost += lineCost
			rows = append(rows, usageRow{IngredientUsage: u, Cost: money.Round(lineCost)})
		}
		var percent *float64
		if revenue > 0 {
			p := money.Share(cost, revenue)
			percent = &p
		}

		body := periodJSON(from, to)
		body["data"] = rows
		body["cost"] = money.Round(cost)
		body["revenue"] = money.Round(revenue)
		body["costPercent"] = percent
		c.JSON(http.StatusOK, body)
	}
}

func averageTicket(revenue float64, orders int64) float64 {
	if orders == 0 {
		return 0
	}
	return money.Round(revenue / float64(orders))
}

// orderTypeLabels is what the owner sees for each order type.
var orderTypeLabels = map[models.OrderType]string{
	models.OrderTypeDelivery: "Delivery",
	models.OrderTypePickup:   "Retirada",
	models.OrderTypeLocal:    "Local",
}
