package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderType string

const (
	OrderTypeDelivery OrderType = "DELIVERY"
	OrderTypePickup   OrderType = "PICKUP"
	OrderTypeLocal    OrderType = "LOCAL"
)

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentPix  PaymentMethod = "PIX"
	PaymentCard PaymentMethod = "CARD"
)

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "NEW"
	OrderStatusPreparing  OrderStatus = "PREPARING"
	OrderStatusDispatched OrderStatus = "DISPATCHED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusPreparing, OrderStatusDispatched, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// CanTransition reports whether staff may move an order from s to next.
// Board columns can be dragged in any direction until the order is closed.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if !next.Valid() || s == next || s.IsTerminal() {
		return false
	}
	return true
}

// OrderExtra is the extras snapshot stored with each order item.
type OrderExtra struct {
	ExtraID string  `bson:"extraId,omitempty" json:"extra_id,omitempty"`
	Name    string  `bson:"name" json:"name"`
	Price   float64 `bson:"price" json:"price"`
	Qty     int     `bson:"qty" json:"qty"`
}

type OrderItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderID     primitive.ObjectID `bson:"orderId" json:"orderId"`
	ProductID   primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName string             `bson:"productName" json:"productName"`
	Quantity    int                `bson:"quantity" json:"quantity"`
	UnitPrice   float64            `bson:"unitPrice" json:"unitPrice"`
	Notes       *string            `bson:"notes" json:"notes"`
	Extras      []OrderExtra       `bson:"extras" json:"extras"`
}

type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RestaurantID    primitive.ObjectID `bson:"restaurantId" json:"restaurantId"`
	CustomerName    string             `bson:"customerName" json:"customerName"`
	CustomerPhone   *string            `bson:"customerPhone" json:"customerPhone"`
	OrderType       OrderType          `bson:"orderType" json:"orderType"`
	DeliveryAddress *string            `bson:"deliveryAddress" json:"deliveryAddress"`
	PaymentMethod   PaymentMethod      `bson:"paymentMethod" json:"paymentMethod"`
	ChangeFor       *float64           `bson:"changeFor" json:"changeFor"`
	TotalAmount     float64            `bson:"totalAmount" json:"totalAmount"`
	Status          OrderStatus        `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// OrderWithItems is the board view of an order.
type OrderWithItems struct {
	Order `bson:",inline"`
	Items []OrderItem `bson:"items" json:"items"`
}

// Number is the short display number staff read out: HHMMSS of creation.
func (o Order) Number() string {
	return o.CreatedAt.Format("150405")
}
