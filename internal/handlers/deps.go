package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cheffnex/internal/models"
	"cheffnex/internal/repository"
	"cheffnex/internal/selection"
)

type Menu interface {
	Restaurant(ctx context.Context, id primitive.ObjectID) (models.Restaurant, error)
	Categories(ctx context.Context, restaurantID primitive.ObjectID) ([]models.Category, error)
	Products(ctx context.Context, restaurantID primitive.ObjectID, f repository.ProductFilter) ([]models.Product, error)
	Product(ctx context.Context, id primitive.ObjectID) (models.Product, error)
}

type OptionsLoader interface {
	Load(ctx context.Context, product models.Product) selection.Options
}

type OrderBoard interface {
	List(ctx context.Context, restaurantID primitive.ObjectID, f repository.ListFilter) ([]models.OrderWithItems, int64, error)
	Get(ctx context.Context, restaurantID, id primitive.ObjectID) (models.OrderWithItems, error)
	UpdateStatus(ctx context.Context, restaurantID, id primitive.ObjectID, next models.OrderStatus) (models.Order, error)
	Delete(ctx context.Context, restaurantID, id primitive.ObjectID) error
	Summary(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) (repository.Summary, error)
}

type StaffStore interface {
	ByEmail(ctx context.Context, email string) (models.Staff, error)
	List(ctx context.Context, restaurantID primitive.ObjectID, role string) ([]models.Staff, error)
	Count(ctx context.Context, restaurantID primitive.ObjectID, role string) (int64, error)
	Create(ctx context.Context, member *models.Staff) error
	Delete(ctx context.Context, restaurantID, id primitive.ObjectID, role string) error
}

type ExpenseStore interface {
	List(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]models.Expense, error)
	Create(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, restaurantID, id primitive.ObjectID) error
	Total(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) (float64, error)
}

type ReportStore interface {
	ProductSales(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.ProductSales, error)
	CategorySales(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.CategorySales, error)
	ExtraSales(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.ExtraSales, error)
	OrderTypes(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.OrderTypeSales, error)
	DailyRevenue(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.DaySales, error)
	IngredientUsage(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]repository.IngredientUsage, error)
	Revenue(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) (float64, error)
	Ingredients(ctx context.Context, restaurantID primitive.ObjectID) ([]models.Ingredient, error)
}
