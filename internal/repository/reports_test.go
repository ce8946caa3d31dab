package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"cheffnex/internal/models"
)

type salesFixture struct {
	restaurantID primitive.ObjectID
	category     models.Category
	burger       models.Product
	carne        models.Ingredient
	bacon        models.Ingredient
	baconExtra   models.Extra
	day          time.Time
}

func seedSales(t *testing.T, db *mongo.Database) salesFixture {
	t.Helper()
	ctx := context.Background()
	f := salesFixture{
		restaurantID: primitive.NewObjectID(),
		day:          time.Date(2026, 6, 3, 12, 0, 0, 0, time.UTC),
	}
	f.category = models.Category{ID: primitive.NewObjectID(), RestaurantID: f.restaurantID, Name: "Lanches"}
	f.burger = models.Product{ID: primitive.NewObjectID(), RestaurantID: f.restaurantID, CategoryID: f.category.ID, Name: "X Burger", SellPrice: 20}
	f.carne = models.Ingredient{ID: primitive.NewObjectID(), RestaurantID: f.restaurantID, Name: "Carne", Unit: "kg", CostPrice: 40}
	f.bacon = models.Ingredient{ID: primitive.NewObjectID(), RestaurantID: f.restaurantID, Name: "Bacon", Unit: "kg", CostPrice: 50}
	f.baconExtra = models.Extra{ID: primitive.NewObjectID(), ProductID: f.burger.ID, IngredientID: &f.bacon.ID, Name: "Bacon", Price: 4, QuantityUsed: 0.05, IsActive: true}

	_, err := db.Collection(categoriesCollection).InsertOne(ctx, f.category)
	require.NoError(t, err)
	_, err = db.Collection(productsCollection).InsertOne(ctx, f.burger)
	require.NoError(t, err)
	_, err = db.Collection(ingredientsCollection).InsertMany(ctx, []interface{}{f.carne, f.bacon})
	require.NoError(t, err)
	_, err = db.Collection(extrasCollection).InsertOne(ctx, f.baconExtra)
	require.NoError(t, err)
	_, err = db.Collection(recipesCollection).InsertOne(ctx, models.Recipe{ProductID: f.burger.ID, IngredientID: f.carne.ID, QuantityUsed: 0.15})
	require.NoError(t, err)

	orders := NewOrders(db, false)
	place := func(status models.OrderStatus, orderType models.OrderType, qty int, baconQty int) {
		extras := []models.OrderExtra{}
		if baconQty > 0 {
			extras = append(extras, models.OrderExtra{ExtraID: f.baconExtra.ID.Hex(), Name: "Bacon", Price: 4, Qty: baconQty})
		}
		total := float64(qty) * (20 + 4*float64(baconQty))
		order := &models.Order{
			RestaurantID:  f.restaurantID,
			CustomerName:  "Ana",
			OrderType:     orderType,
			PaymentMethod: models.PaymentPix,
			TotalAmount:   total,
			Status:        status,
			CreatedAt:     f.day,
		}
		items := []models.OrderItem{{ProductID: f.burger.ID, ProductName: "X Burger", Quantity: qty, UnitPrice: 20, Extras: extras}}
		_, err := orders.CreateOrder(ctx, order, items)
		require.NoError(t, err)
	}
	place(models.OrderStatusCompleted, models.OrderTypeDelivery, 2, 1)
	place(models.OrderStatusNew, models.OrderTypePickup, 1, 0)
	place(models.OrderStatusCancelled, models.OrderTypeDelivery, 5, 2)
	return f
}

func TestReportsSales(t *testing.T) {
	db := setupTestDB(t)
	f := seedSales(t, db)
	reports := NewReports(db)
	ctx := context.Background()
	from, to := f.day.Add(-time.Hour), f.day.Add(time.Hour)

	products, err := reports.ProductSales(ctx, f.restaurantID, from, to)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(3), products[0].Quantity)
	assert.Equal(t, 60.0, products[0].Revenue)

	categories, err := reports.CategorySales(ctx, f.restaurantID, from, to)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.NotNil(t, categories[0].CategoryID)
	assert.Equal(t, "Lanches", categories[0].Name)

	extras, err := reports.ExtraSales(ctx, f.restaurantID, from, to)
	require.NoError(t, err)
	require.Len(t, extras, 1)
	assert.Equal(t, int64(2), extras[0].Quantity)
	assert.Equal(t, 8.0, extras[0].Revenue)

	types, err := reports.OrderTypes(ctx, f.restaurantID, from, to)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, models.OrderTypeDelivery, types[0].OrderType)
	assert.Equal(t, 48.0, types[0].Revenue)

	days, err := reports.DailyRevenue(ctx, f.restaurantID, from, to)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2026-06-03", days[0].Date)
	assert.Equal(t, int64(2), days[0].Orders)

	revenue, err := reports.Revenue(ctx, f.restaurantID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 68.0, revenue)
}

func TestReportsIngredientUsage(t *testing.T) {
	db := setupTestDB(t)
	f := seedSales(t, db)
	reports := NewReports(db)

	usage, err := reports.IngredientUsage(context.Background(), f.restaurantID, f.day.Add(-time.Hour), f.day.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, usage, 2)

	// three burgers at 0.15 kg of meat, two portions of bacon at 0.05 kg
	assert.Equal(t, "Carne", usage[0].Name)
	assert.InDelta(t, 0.45, usage[0].Quantity, 1e-9)
	assert.Equal(t, "Bacon", usage[1].Name)
	assert.InDelta(t, 0.1, usage[1].Quantity, 1e-9)
}

func TestMergeUsageSumsPerIngredient(t *testing.T) {
	shared := primitive.NewObjectID()
	cheap := primitive.NewObjectID()
	merged := mergeUsage(
		[]IngredientUsage{{IngredientID: cheap, Name: "Sal", CostPrice: 1, Quantity: 1}, {IngredientID: shared, Name: "Queijo", CostPrice: 30, Quantity: 0.2}},
		[]IngredientUsage{{IngredientID: shared, Name: "Queijo", CostPrice: 30, Quantity: 0.1}},
	)
	require.Len(t, merged, 2)
	assert.Equal(t, "Queijo", merged[0].Name)
	assert.InDelta(t, 0.3, merged[0].Quantity, 1e-9)
	assert.Equal(t, "Sal", merged[1].Name)
}
