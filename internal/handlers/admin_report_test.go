package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cheffnex/internal/middleware"
	"cheffnex/internal/models"
	"cheffnex/internal/repository"
)

type fakeReports struct {
	products    []repository.ProductSales
	categories  []repository.CategorySales
	extras      []repository.ExtraSales
	orderTypes  []repository.OrderTypeSales
	days        []repository.DaySales
	usage       []repository.IngredientUsage
	revenue     float64
	ingredients []models.Ingredient
	err         error

	restaurantID primitive.ObjectID
	from, to     time.Time
}

func (f *fakeReports) scope(restaurantID primitive.ObjectID, from, to time.Time) {
	f.restaurantID, f.from, f.to = restaurantID, from, to
}

func (f *fakeReports) ProductSales(_ context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.ProductSales, error) {
	f.scope(restaurantID, from, to)
	return append([]repository.ProductSales(nil), f.products...), f.err
}

func (f *fakeReports) CategorySales(_ context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.CategorySales, error) {
	f.scope(restaurantID, from, to)
	return append([]repository.CategorySales(nil), f.categories...), f.err
}

func (f *fakeReports) ExtraSales(_ context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.ExtraSales, error) {
	f.scope(restaurantID, from, to)
	return append([]repository.ExtraSales(nil), f.extras...), f.err
}

func (f *fakeReports) OrderTypes(_ context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.OrderTypeSales, error) {
	f.scope(restaurantID, from, to)
	return append([]repository.OrderTypeSales(nil), f.orderTypes...), f.err
}

func (f *fakeReports) DailyRevenue(_ context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.DaySales, error) {
	f.scope(restaurantID, from, to)
	return append([]repository.DaySales(nil), f.days...), f.err
}

func (f *fakeReports) IngredientUsage(_ context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.IngredientUsage, error) {
	f.scope(restaurantID, from, to)
	return append([]repository.IngredientUsage(nil), f.usage...), f.err
}

func (f *fakeReports) Revenue(_ context.Context, restaurantID primitive.ObjectID, from, to time.Time) (float64, error) {
	f.scope(restaurantID, from, to)
	return f.revenue, f.err
}

func (f *fakeReports) Ingredients(_ context.Context, restaurantID primitive.ObjectID) ([]models.Ingredient, error) {
	f.restaurantID = restaurantID
	return append([]models.Ingredient(nil), f.ingredients...), f.err
}

func reportRouter(reports ReportStore) *gin.Engine {
	r := gin.New()
	admin := r.Group("/admin/api")
	admin.Use(middleware.StaffAuth(testSecret))
	admin.GET("/reports/products", ProductSalesReport(reports))
	admin.GET("/reports/categories", CategorySalesReport(reports))
	admin.GET("/reports/extras", ExtraSalesReport(reports))
	admin.GET("/reports/order-types", OrderTypeReport(reports))
	admin.GET("/reports/daily", DailyRevenueReport(reports))
	admin.GET("/reports/cost", CostOfGoodsReport(reports))
	admin.GET("/reports/stock", StockReport(reports))
	admin.GET("/reports/expiring", ExpiringReport(reports))
	return r
}

func reportAuth(t *testing.T) (primitive.ObjectID, []string) {
	restaurantID := primitive.NewObjectID()
	token, _ := staffToken(t, restaurantID, models.RoleOwner)
	return restaurantID, []string{"Authorization", "Bearer " + token}
}

func TestProductSalesReport(t *testing.T) {
	reports := &fakeReports{products: []repository.ProductSales{
		{ProductID: primitive.NewObjectID(), Name: "X Burger", Quantity: 3, Revenue: 60},
		{ProductID: primitive.NewObjectID(), Name: "Refrigerante", Quantity: 3, Revenue: 17.7},
	}}
	restaurantID, auth := reportAuth(t)
	r := reportRouter(reports)

	w := doJSON(t, r, http.MethodGet, "/admin/api/reports/products?from=2026-03-01&to=2026-03-31", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		From             string
		To               string
		Data             []productSalesRow
		DistinctProducts int
		Revenue          float64
	}](t, w)

	assert.Equal(t, restaurantID, reports.restaurantID)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), reports.from)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), reports.to)
	assert.Equal(t, "2026-03-31", body.To)

	require.Len(t, body.Data, 2)
	assert.Equal(t, "X Burger", body.Data[0].Name)
	assert.Equal(t, 20.0, body.Data[0].AveragePrice)
	assert.Equal(t, 5.9, body.Data[1].AveragePrice)
	assert.Equal(t, 2, body.DistinctProducts)
	assert.Equal(t, 77.7, body.Revenue)
}

func TestCategorySalesReportSharesAndUncategorized(t *testing.T) {
	lanches := primitive.NewObjectID()
	reports := &fakeReports{categories: []repository.CategorySales{
		{CategoryID: &lanches, Name: "Lanches", Quantity: 4, Revenue: 75},
		{CategoryID: nil, Quantity: 1, Revenue: 25},
	}}
	_, auth := reportAuth(t)

	w := doJSON(t, reportRouter(reports), http.MethodGet, "/admin/api/reports/categories", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Data    []categorySalesRow
		Revenue float64
	}](t, w)

	require.Len(t, body.Data, 2)
	assert.Equal(t, 75.0, body.Data[0].Share)
	assert.Equal(t, uncategorizedLabel, body.Data[1].Name)
	assert.Equal(t, 25.0, body.Data[1].Share)
	assert.Equal(t, 100.0, body.Revenue)
}

func TestExtraSalesReport(t *testing.T) {
	reports := &fakeReports{extras: []repository.ExtraSales{
		{Name: "Bacon", Quantity: 6, Revenue: 24},
		{Name: "Cheddar", Quantity: 1, Revenue: 3.5},
	}}
	_, auth := reportAuth(t)

	w := doJSON(t, reportRouter(reports), http.MethodGet, "/admin/api/reports/extras", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Data           []repository.ExtraSales
		DistinctExtras int
		Revenue        float64
	}](t, w)
	assert.Equal(t, "Bacon", body.Data[0].Name)
	assert.Equal(t, 2, body.DistinctExtras)
	assert.Equal(t, 27.5, body.Revenue)
}

func TestOrderTypeReport(t *testing.T) {
	reports := &fakeReports{orderTypes: []repository.OrderTypeSales{
		{OrderType: models.OrderTypeDelivery, Orders: 2, Revenue: 60},
		{OrderType: models.OrderTypePickup, Orders: 1, Revenue: 20},
	}}
	_, auth := reportAuth(t)

	w := doJSON(t, reportRouter(reports), http.MethodGet, "/admin/api/reports/order-types", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Data          []orderTypeRow
		Orders        int64
		Revenue       float64
		AverageTicket float64
	}](t, w)

	require.Len(t, body.Data, 2)
	assert.Equal(t, "Delivery", body.Data[0].Label)
	assert.Equal(t, 30.0, body.Data[0].AverageTicket)
	assert.Equal(t, 75.0, body.Data[0].Share)
	assert.Equal(t, "Retirada", body.Data[1].Label)
	assert.Equal(t, int64(3), body.Orders)
	assert.Equal(t, 26.67, body.AverageTicket)
}

func TestDailyRevenueReport(t *testing.T) {
	reports := &fakeReports{days: []repository.DaySales{
		{Date: "2026-03-01", Orders: 2, Revenue: 50},
		{Date: "2026-03-02", Orders: 1, Revenue: 40},
	}}
	_, auth := reportAuth(t)

	w := doJSON(t, reportRouter(reports), http.MethodGet, "/admin/api/reports/daily?from=2026-03-01&to=2026-03-02", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Data          []dayRow
		Orders        int64
		Revenue       float64
		AverageTicket float64
	}](t, w)
	assert.Equal(t, 25.0, body.Data[0].AverageTicket)
	assert.Equal(t, int64(3), body.Orders)
	assert.Equal(t, 90.0, body.Revenue)
	assert.Equal(t, 30.0, body.AverageTicket)
}

func TestCostOfGoodsReport(t *testing.T) {
	reports := &fakeReports{
		usage: []repository.IngredientUsage{
			{IngredientID: primitive.NewObjectID(), Name: "Carne", Unit: "kg", CostPrice: 40, Quantity: 0.45},
			{IngredientID: primitive.NewObjectID(), Name: "Pao", Unit: "un", CostPrice: 1, Quantity: 3},
		},
		revenue: 70,
	}
	_, auth := reportAuth(t)
	r := reportRouter(reports)

	w := doJSON(t, r, http.MethodGet, "/admin/api/reports/cost", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[struct {
		Data        []usageRow
		Cost        float64
		Revenue     float64
		CostPercent *float64
	}](t, w)
	require.Len(t, body.Data, 2)
	assert.Equal(t, 18.0, body.Data[0].Cost)
	assert.Equal(t, 21.0, body.Cost)
	require.NotNil(t, body.CostPercent)
	assert.Equal(t, 30.0, *body.CostPercent)

	reports.revenue = 0
	w = doJSON(t, r, http.MethodGet, "/admin/api/reports/cost", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	raw := decode[map[string]any](t, w)
	assert.Nil(t, raw["costPercent"])
}

func TestStockReport(t *testing.T) {
	reports := &fakeReports{ingredients: []models.Ingredient{
		{Name: "Farinha", Unit: "kg", CurrentStock: 0, MinStock: 2, CostPrice: 5},
		{Name: "Queijo", Unit: "kg", CurrentStock: 1.05, MinStock: 1, CostPrice: 40},
		{Name: "Tomate", Unit: "kg", CurrentStock: 5, MinStock: 1, CostPrice: 8},
		{Name: "Cebola", Unit: "kg", CurrentStock: 0.5, MinStock: 1, CostPrice: 6},
	}}
	_, auth := reportAuth(t)
	r := reportRouter(reports)

	type stockBody struct {
		Data        []stockRow
		Ingredients int
		OutOfStock  int
		LowStock    int
		Value       float64
	}

	w := doJSON(t, r, http.MethodGet, "/admin/api/reports/stock", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[stockBody](t, w)
	require.Len(t, body.Data, 4)
	assert.Equal(t, []stockStatus{stockOut, stockLow, stockNormal, stockLow},
		[]stockStatus{body.Data[0].Status, body.Data[1].Status, body.Data[2].Status, body.Data[3].Status})
	assert.Equal(t, 1, body.OutOfStock)
	assert.Equal(t, 2, body.LowStock)
	assert.Equal(t, 85.0, body.Value)

	w = doJSON(t, r, http.MethodGet, "/admin/api/reports/stock?critical=true", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	body = decode[stockBody](t, w)
	require.Len(t, body.Data, 3)
	assert.Equal(t, "Farinha", body.Data[0].Name)
	assert.Equal(t, "Cebola", body.Data[1].Name)
	assert.Equal(t, "Queijo", body.Data[2].Name)
	assert.Equal(t, 4, body.Ingredients)
}

func TestExpiringReport(t *testing.T) {
	now := time.Now().UTC()
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}
	reports := &fakeReports{ingredients: []models.Ingredient{
		{Name: "Leite", ExpirationDate: at(60 * time.Hour)},
		{Name: "Creme", ExpirationDate: at(-24 * time.Hour)},
		{Name: "Queijo", ExpirationDate: at(20 * 24 * time.Hour)},
		{Name: "Sal"},
	}}
	_, auth := reportAuth(t)
	r := reportRouter(reports)

	type expiryBody struct {
		Data    []expiryRow
		Days    int
		Alerts  int
		Expired int
	}

	w := doJSON(t, r, http.MethodGet, "/admin/api/reports/expiring", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[expiryBody](t, w)
	assert.Equal(t, 7, body.Days)
	require.Len(t, body.Data, 2)
	assert.Equal(t, "Creme", body.Data[0].Name)
	assert.True(t, body.Data[0].Expired)
	assert.Equal(t, "Leite", body.Data[1].Name)
	assert.Equal(t, 3, body.Data[1].DaysLeft)
	assert.Equal(t, 1, body.Expired)

	w = doJSON(t, r, http.MethodGet, "/admin/api/reports/expiring?days=30", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[expiryBody](t, w).Alerts)

	w = doJSON(t, r, http.MethodGet, "/admin/api/reports/expiring?days=0", nil, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSalesReportsRejectBadRangeAndStoreErrors(t *testing.T) {
	reports := &fakeReports{}
	_, auth := reportAuth(t)
	r := reportRouter(reports)

	w := doJSON(t, r, http.MethodGet, "/admin/api/reports/products?from=2026-03-10&to=2026-03-01", nil, auth...)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodGet, "/admin/api/reports/cost", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	reports.err = errors.New("connection reset")
	for _, path := range []string{"products", "categories", "extras", "order-types", "daily", "cost", "stock", "expiring"} {
		w = doJSON(t, r, http.MethodGet, "/admin/api/reports/"+path, nil, auth...)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
	}
}
