package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"cheffnex/internal/models"
)

type Orders struct {
	db           *mongo.Database
	transactions bool
}

// NewOrders returns the order store. Without transactions (standalone mongo)
// CreateOrder falls back to sequential inserts and undoes the order document
// when the items fail to insert.
func NewOrders(db *mongo.Database, transactions bool) *Orders {
	return &Orders{db: db, transactions: transactions}
}

// CreateOrder writes the order and its items as one unit and returns the new
// order id.
func (o *Orders) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) (string, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	docs := make([]interface{}, 0, len(items))
	for i := range items {
		if items[i].ID.IsZero() {
			items[i].ID = primitive.NewObjectID()
		}
		items[i].OrderID = order.ID
		docs = append(docs, items[i])
	}

	if o.transactions {
		return order.ID.Hex(), o.createInTransaction(ctx, order, docs)
	}
	return order.ID.Hex(), o.createCompensating(ctx, order, docs)
}

func (o *Orders) createInTransaction(ctx context.Context, order *models.Order, docs []interface{}) error {
	session, err := o.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(context.Background())

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := o.db.Collection(ordersCollection).InsertOne(sessCtx, order); err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			if _, err := o.db.Collection(orderItemsCollection).InsertMany(sessCtx, docs); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

func (o *Orders) createCompensating(ctx context.Context, order *models.Order, docs []interface{}) error {
	if _, err := o.db.Collection(ordersCollection).InsertOne(ctx, order); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	if _, err := o.db.Collection(orderItemsCollection).InsertMany(ctx, docs); err != nil {
		// the request context may already be gone; cleanup must still run
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, derr := o.db.Collection(orderItemsCollection).DeleteMany(cleanupCtx, bson.M{"orderId": order.ID}); derr != nil {
			zap.L().Error("order items cleanup failed", zap.String("orderId", order.ID.Hex()), zap.Error(derr))
		}
		if _, derr := o.db.Collection(ordersCollection).DeleteOne(cleanupCtx, bson.M{"_id": order.ID}); derr != nil {
			zap.L().Error("order cleanup failed", zap.String("orderId", order.ID.Hex()), zap.Error(derr))
		}
		return err
	}
	return nil
}

type ListFilter struct {
	Statuses []models.OrderStatus
	Page     int
	Limit    int
}

// List returns the newest orders first, each with its items.
func (o *Orders) List(ctx context.Context, restaurantID primitive.ObjectID, f ListFilter) ([]models.OrderWithItems, int64, error) {
	match := bson.M{"restaurantId": restaurantID}
	if len(f.Statuses) > 0 {
		match["status"] = bson.M{"$in": f.Statuses}
	}

	total, err := o.db.Collection(ordersCollection).CountDocuments(ctx, match)
	if err != nil {
		return nil, 0, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
	}
	if f.Limit > 0 {
		skip := int64(0)
		if f.Page > 1 {
			skip = int64(f.Page-1) * int64(f.Limit)
		}
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: skip}},
			bson.D{{Key: "$limit", Value: int64(f.Limit)}},
		)
	}
	pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
		"from":         orderItemsCollection,
		"localField":   "_id",
		"foreignField": "orderId",
		"as":           "items",
	}}})

	cursor, err := o.db.Collection(ordersCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	orders := []models.OrderWithItems{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (o *Orders) Get(ctx context.Context, restaurantID, id primitive.ObjectID) (models.OrderWithItems, error) {
	var order models.OrderWithItems
	err := o.db.Collection(ordersCollection).FindOne(ctx, bson.M{"_id": id, "restaurantId": restaurantID}).Decode(&order.Order)
	if err != nil {
		return models.OrderWithItems{}, notFound(err)
	}

	cursor, err := o.db.Collection(orderItemsCollection).Find(ctx, bson.M{"orderId": id})
	if err != nil {
		return models.OrderWithItems{}, err
	}
	order.Items = []models.OrderItem{}
	if err := cursor.All(ctx, &order.Items); err != nil {
		return models.OrderWithItems{}, err
	}
	return order, nil
}

// UpdateStatus moves an order to next. The write only lands if nobody
// changed the status since it was read.
func (o *Orders) UpdateStatus(ctx context.Context, restaurantID, id primitive.ObjectID, next models.OrderStatus) (models.Order, error) {
	var current models.Order
	err := o.db.Collection(ordersCollection).FindOne(ctx, bson.M{"_id": id, "restaurantId": restaurantID}).Decode(&current)
	if err != nil {
		return models.Order{}, notFound(err)
	}
	if !current.Status.CanTransition(next) {
		return models.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Order
	err = o.db.Collection(ordersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": id, "restaurantId": restaurantID, "status": current.Status},
		bson.M{"$set": bson.M{"status": next}},
		opts,
	).Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrStatusConflict
	}
	if err != nil {
		return models.Order{}, err
	}
	return updated, nil
}

func (o *Orders) Delete(ctx context.Context, restaurantID, id primitive.ObjectID) error {
	res, err := o.db.Collection(ordersCollection).DeleteOne(ctx, bson.M{"_id": id, "restaurantId": restaurantID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	_, err = o.db.Collection(orderItemsCollection).DeleteMany(ctx, bson.M{"orderId": id})
	return err
}

type Summary struct {
	Orders        int64              `json:"orders"`
	Revenue       float64            `json:"revenue"`
	AverageTicket float64            `json:"averageTicket"`
	ByStatus      map[string]int64   `json:"byStatus"`
	ByPayment     map[string]float64 `json:"byPayment"`
}

// Summary aggregates orders created in [from, to). Cancelled orders are
// counted by status but never add to revenue.
func (o *Orders) Summary(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) (Summary, error) {
	match := bson.D{{Key: "$match", Value: bson.M{
		"restaurantId": restaurantID,
		"createdAt":    bson.M{"$gte": from, "$lt": to},
	}}}
	pipeline := mongo.Pipeline{
		match,
		{{Key: "$group", Value: bson.M{
			"_id":     bson.M{"status": "$status", "payment": "$paymentMethod"},
			"count":   bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$totalAmount"},
		}}},
	}

	cursor, err := o.db.Collection(ordersCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return Summary{}, err
	}
	var rows []struct {
		ID struct {
			Status  string `bson:"status"`
			Payment string `bson:"payment"`
		} `bson:"_id"`
		Count   int64   `bson:"count"`
		Revenue float64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return Summary{}, err
	}

	s := Summary{ByStatus: map[string]int64{}, ByPayment: map[string]float64{}}
	for _, r := range rows {
		s.ByStatus[r.ID.Status] += r.Count
		if models.OrderStatus(r.ID.Status) == models.OrderStatusCancelled {
			continue
		}
		s.Orders += r.Count
		s.Revenue += r.Revenue
		s.ByPayment[r.ID.Payment] += r.Revenue
	}
	if s.Orders > 0 {
		s.AverageTicket = s.Revenue / float64(s.Orders)
	}
	return s, nil
}
