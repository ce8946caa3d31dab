package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cheffnex/internal/models"
)

type Expenses struct {
	db *mongo.Database
}

func NewExpenses(db *mongo.Database) *Expenses {
	return &Expenses{db: db}
}

func (e *Expenses) List(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]models.Expense, error) {
	opts := options.Find().SetSort(bson.D{{Key: "expenseDate", Value: -1}})
	cursor, err := e.db.Collection(expensesCollection).Find(ctx, rangeFilter(restaurantID, from, to), opts)
	if err != nil {
		return nil, err
	}
	expenses := []models.Expense{}
	if err := cursor.All(ctx, &expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (e *Expenses) Create(ctx context.Context, expense *models.Expense) error {
	res, err := e.db.Collection(expensesCollection).InsertOne(ctx, expense)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		expense.ID = id
	}
	return nil
}

func (e *Expenses) Delete(ctx context.Context, restaurantID, id primitive.ObjectID) error {
	res, err := e.db.Collection(expensesCollection).DeleteOne(ctx, bson.M{"_id": id, "restaurantId": restaurantID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Total sums the expenses dated in [from, to).
func (e *Expenses) Total(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: rangeFilter(restaurantID, from, to)}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}}},
	}
	cursor, err := e.db.Collection(expensesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func rangeFilter(restaurantID primitive.ObjectID, from, to time.Time) bson.M {
	return bson.M{
		"restaurantId": restaurantID,
		"expenseDate":  bson.M{"$gte": from, "$lt": to},
	}
}
