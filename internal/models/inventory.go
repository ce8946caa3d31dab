package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Ingredient struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RestaurantID   primitive.ObjectID `bson:"restaurantId" json:"restaurantId"`
	Name           string             `bson:"name" json:"name"`
	Category       string             `bson:"category" json:"category"`
	Unit           string             `bson:"unit" json:"unit"`
	CurrentStock   float64            `bson:"currentStock" json:"currentStock"`
	MinStock       float64            `bson:"minStock" json:"minStock"`
	CostPrice      float64            `bson:"costPrice" json:"costPrice"`
	ExpirationDate *time.Time         `bson:"expirationDate,omitempty" json:"expirationDate,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// LowStock reports whether the ingredient reached its reorder threshold.
func (i Ingredient) LowStock() bool {
	return i.CurrentStock <= i.MinStock
}

// Recipe links an ingredient to a product. CanRemove marks it as an
// ingredient the customer may exclude.
type Recipe struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	IngredientID primitive.ObjectID `bson:"ingredientId" json:"ingredientId"`
	QuantityUsed float64            `bson:"quantityUsed" json:"quantityUsed"`
	CanRemove    bool               `bson:"canRemove" json:"canRemove"`
}
