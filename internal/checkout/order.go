package checkout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cheffnex/internal/cart"
	"cheffnex/internal/models"
	"cheffnex/internal/money"
)

var (
	orderTypes = map[Fulfillment]models.OrderType{
		FulfillmentDelivery: models.OrderTypeDelivery,
		FulfillmentPickup:   models.OrderTypePickup,
		FulfillmentLocal:    models.OrderTypeLocal,
	}
	paymentMethods = map[Payment]models.PaymentMethod{
		PaymentCash: models.PaymentCash,
		PaymentPix:  models.PaymentPix,
		PaymentCard: models.PaymentCard,
	}
)

// BuildOrder turns a finished checkout into the order record and its items.
// Item IDs and the order ID are left for the repository to assign.
func BuildOrder(restaurantID primitive.ObjectID, items []cart.LineItem, total decimal.Decimal, form Form, now time.Time) (models.Order, []models.OrderItem, error) {
	order := models.Order{
		RestaurantID:  restaurantID,
		CustomerName:  strings.TrimSpace(form.Name),
		CustomerPhone: optionalString(form.Phone),
		OrderType:     orderTypes[form.Fulfillment],
		PaymentMethod: paymentMethods[form.Payment],
		TotalAmount:   total.InexactFloat64(),
		Status:        models.OrderStatusNew,
		CreatedAt:     now,
	}
	if order.OrderType == "" {
		order.OrderType = models.OrderTypePickup
	}

	switch form.Fulfillment {
	case FulfillmentDelivery:
		order.DeliveryAddress = optionalString(form.Address.String())
	case FulfillmentLocal:
		order.DeliveryAddress = optionalString("Mesa " + strings.TrimSpace(form.Table))
	}

	if form.Payment == PaymentCash {
		if change, err := money.Parse(form.ChangeFor); err == nil {
			v := change.InexactFloat64()
			order.ChangeFor = &v
		}
	}

	orderItems := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		productID, err := primitive.ObjectIDFromHex(item.Product.ID)
		if err != nil {
			return models.Order{}, nil, err
		}
		orderItems = append(orderItems, models.OrderItem{
			ProductID:   productID,
			ProductName: item.Product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.Product.Price.InexactFloat64(),
			Notes:       removedNotes(item.Removed),
			Extras:      orderExtras(item.Extras),
		})
	}
	return order, orderItems, nil
}

// removedNotes renders "Sem Cebola, Sem Picles", or nil when nothing was removed.
func removedNotes(removed []string) *string {
	if len(removed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(removed))
	for _, r := range removed {
		parts = append(parts, "Sem "+r)
	}
	notes := strings.Join(parts, ", ")
	return &notes
}

func orderExtras(extras []cart.Extra) []models.OrderExtra {
	out := make([]models.OrderExtra, 0, len(extras))
	for _, e := range extras {
		out = append(out, models.OrderExtra{
			ExtraID: e.ExtraID,
			Name:    e.Name,
			Price:   e.Price.InexactFloat64(),
			Qty:     e.Qty,
		})
	}
	return out
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
