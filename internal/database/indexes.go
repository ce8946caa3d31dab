package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func ensureIndex(db *mongo.Database, collection string, model mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	name := ""
	if model.Options != nil && model.Options.Name != nil {
		name = *model.Options.Name
	}
	log := zap.L().With(zap.String("collection", collection), zap.String("index", name))

	log.Debug("creating index")
	if _, err := db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
		log.Error("index creation failed", zap.Error(err))
		return err
	}
	log.Info("index ready")
	return nil
}

func EnsureProductIndexes(db *mongo.Database) error {
	if err := ensureIndex(db, "products", mongo.IndexModel{
		Keys:    bson.D{{Key: "restaurantId", Value: 1}, {Key: "categoryId", Value: 1}},
		Options: options.Index().SetName("restaurant_category_index"),
	}); err != nil {
		return err
	}
	if err := ensureIndex(db, "extras", mongo.IndexModel{
		Keys:    bson.D{{Key: "productId", Value: 1}},
		Options: options.Index().SetName("productId_index"),
	}); err != nil {
		return err
	}
	return ensureIndex(db, "cross_sell_rules", mongo.IndexModel{
		Keys:    bson.D{{Key: "triggerCategoryId", Value: 1}, {Key: "displayOrder", Value: 1}},
		Options: options.Index().SetName("trigger_order_index"),
	})
}

func EnsureStaffIndexes(db *mongo.Database) error {
	return ensureIndex(db, "staff", mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	})
}

func EnsureOrderIndexes(db *mongo.Database) error {
	if err := ensureIndex(db, "orders", mongo.IndexModel{
		Keys:    bson.D{{Key: "restaurantId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("restaurant_createdAt_index"),
	}); err != nil {
		return err
	}
	return ensureIndex(db, "order_items", mongo.IndexModel{
		Keys:    bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().SetName("orderId_index"),
	})
}
