package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Expense struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RestaurantID  primitive.ObjectID `bson:"restaurantId" json:"restaurantId"`
	Description   string             `bson:"description" json:"description"`
	Category      string             `bson:"category" json:"category"`
	Amount        float64            `bson:"amount" json:"amount"`
	PaymentMethod string             `bson:"paymentMethod,omitempty" json:"paymentMethod,omitempty"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	ExpenseDate   time.Time          `bson:"expenseDate" json:"expenseDate"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}
