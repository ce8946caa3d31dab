package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	restaurantsCollection = "restaurants"
	categoriesCollection  = "categories"
	productsCollection    = "products"
	extrasCollection      = "extras"
	crossSellCollection   = "cross_sell_rules"
	ingredientsCollection = "ingredients"
	recipesCollection     = "recipes"
	ordersCollection      = "orders"
	orderItemsCollection  = "order_items"
	staffCollection       = "staff"
	expensesCollection    = "expenses"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("status change not allowed")
	ErrStatusConflict    = errors.New("order status changed concurrently")
	ErrDuplicate         = errors.New("already exists")
)

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
