package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RestaurantID primitive.ObjectID `bson:"restaurantId" json:"restaurantId"`
	CategoryID   primitive.ObjectID `bson:"categoryId,omitempty" json:"categoryId,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	SellPrice    float64            `bson:"sellPrice" json:"sellPrice"`
	PromoPrice   *float64           `bson:"promoPrice,omitempty" json:"promoPrice,omitempty"`
	IsOnPromo    bool               `bson:"-" json:"isOnPromo"`
	ImageURL     string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Badge        string             `bson:"badge,omitempty" json:"badge,omitempty"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	IsFeatured   bool               `bson:"isFeatured" json:"isFeatured"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// Extra is a priced add-on a customer can pick in any quantity for a product.
type Extra struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ProductID    primitive.ObjectID  `bson:"productId" json:"productId"`
	IngredientID *primitive.ObjectID `bson:"ingredientId,omitempty" json:"ingredientId,omitempty"`
	Name         string              `bson:"name" json:"name"`
	Price        float64             `bson:"price" json:"price"`
	QuantityUsed float64             `bson:"quantityUsed" json:"quantityUsed"`
	IsActive     bool                `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
}

// CrossSellRule suggests products of SuggestCategoryID while a product of
// TriggerCategoryID is being customized.
type CrossSellRule struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RestaurantID      primitive.ObjectID `bson:"restaurantId" json:"restaurantId"`
	TriggerCategoryID primitive.ObjectID `bson:"triggerCategoryId" json:"triggerCategoryId"`
	SuggestCategoryID primitive.ObjectID `bson:"suggestCategoryId" json:"suggestCategoryId"`
	StepLabel         string             `bson:"stepLabel" json:"stepLabel"`
	DisplayOrder      int                `bson:"displayOrder" json:"displayOrder"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
}
