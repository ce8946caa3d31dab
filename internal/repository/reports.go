package repository

import (
	"context"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cheffnex/internal/models"
)

// Reports aggregates sales and stock for the owner's reports. Every sales
// figure covers orders created in [from, to) and leaves cancelled orders out.
type Reports struct {
	db *mongo.Database
}

func NewReports(db *mongo.Database) *Reports {
	return &Reports{db: db}
}

type ProductSales struct {
	ProductID primitive.ObjectID `bson:"_id" json:"productId"`
	Name      string             `bson:"name" json:"name"`
	Quantity  int64              `bson:"quantity" json:"quantity"`
	Revenue   float64            `bson:"revenue" json:"revenue"`
}

type CategorySales struct {
	CategoryID *primitive.ObjectID `bson:"_id" json:"categoryId"`
	Name       string              `bson:"name" json:"name"`
	Quantity   int64               `bson:"quantity" json:"quantity"`
	Revenue    float64             `bson:"revenue" json:"revenue"`
}

type ExtraSales struct {
	Name     string  `bson:"_id" json:"name"`
	Quantity int64   `bson:"quantity" json:"quantity"`
	Revenue  float64 `bson:"revenue" json:"revenue"`
}

type OrderTypeSales struct {
	OrderType models.OrderType `bson:"_id" json:"orderType"`
	Orders    int64            `bson:"orders" json:"orders"`
	Revenue   float64          `bson:"revenue" json:"revenue"`
}

type DaySales struct {
	Date    string  `bson:"_id" json:"date"`
	Orders  int64   `bson:"orders" json:"orders"`
	Revenue float64 `bson:"revenue" json:"revenue"`
}

// IngredientUsage is how much of an ingredient the sold items consumed
// according to their recipes and extras.
type IngredientUsage struct {
	IngredientID primitive.ObjectID `bson:"_id" json:"ingredientId"`
	Name         string             `bson:"name" json:"name"`
	Unit         string             `bson:"unit" json:"unit"`
	CostPrice    float64            `bson:"costPrice" json:"costPrice"`
	Quantity     float64            `bson:"quantity" json:"quantity"`
}

// soldItems starts from the matching orders and yields one document per
// order item, with the order under "order" and the item under "items".
func soldItems(restaurantID primitive.ObjectID, from, to time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: salesMatch(restaurantID, from, to)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         orderItemsCollection,
			"localField":   "_id",
			"foreignField": "orderId",
			"as":           "items",
		}}},
		{{Key: "$unwind", Value: "$items"}},
	}
}

func salesMatch(restaurantID primitive.ObjectID, from, to time.Time) bson.M {
	return bson.M{
		"restaurantId": restaurantID,
		"status":       bson.M{"$ne": models.OrderStatusCancelled},
		"createdAt":    bson.M{"$gte": from, "$lt": to},
	}
}

func (r *Reports) aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := r.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

// ProductSales ranks products by units sold. Revenue is units times the
// snapshot unit price, extras excluded.
func (r *Reports) ProductSales(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]ProductSales, error) {
	pipeline := append(soldItems(restaurantID, from, to),
		bson.D{{Key: "$group", Value: bson.M{
			"_id":      "$items.productId",
			"name":     bson.M{"$last": "$items.productName"},
			"quantity": bson.M{"$sum": "$items.quantity"},
			"revenue":  bson.M{"$sum": bson.M{"$multiply": bson.A{"$items.quantity", "$items.unitPrice"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}, {Key: "name", Value: 1}}}},
	)
	out := []ProductSales{}
	if err := r.aggregate(ctx, ordersCollection, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CategorySales groups item revenue by the product's current category. Items
// whose product or category is gone land in a group with a nil id.
func (r *Reports) CategorySales(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]CategorySales, error) {
	pipeline := append(soldItems(restaurantID, from, to),
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         productsCollection,
			"localField":   "items.productId",
			"foreignField": "_id",
			"as":           "product",
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         categoriesCollection,
			"localField":   "product.categoryId",
			"foreignField": "_id",
			"as":           "category",
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":      bson.M{"$arrayElemAt": bson.A{"$category._id", 0}},
			"name":     bson.M{"$first": bson.M{"$arrayElemAt": bson.A{"$category.name", 0}}},
			"quantity": bson.M{"$sum": "$items.quantity"},
			"revenue":  bson.M{"$sum": bson.M{"$multiply": bson.A{"$items.quantity", "$items.unitPrice"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}}}},
	)
	out := []CategorySales{}
	if err := r.aggregate(ctx, ordersCollection, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExtraSales ranks extras by units ordered. An extra picked twice on an item
// ordered three times counts six.
func (r *Reports) ExtraSales(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]ExtraSales, error) {
	units := bson.M{"$multiply": bson.A{"$items.quantity", "$items.extras.qty"}}
	pipeline := append(soldItems(restaurantID, from, to),
		bson.D{{Key: "$unwind", Value: "$items.extras"}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":      "$items.extras.name",
			"quantity": bson.M{"$sum": units},
			"revenue":  bson.M{"$sum": bson.M{"$multiply": bson.A{units, "$items.extras.price"}}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "quantity", Value: -1}, {Key: "_id", Value: 1}}}},
	)
	out := []ExtraSales{}
	if err := r.aggregate(ctx, ordersCollection, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reports) OrderTypes(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]OrderTypeSales, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: salesMatch(restaurantID, from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":     "$orderType",
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$totalAmount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "revenue", Value: -1}}}},
	}
	out := []OrderTypeSales{}
	if err := r.aggregate(ctx, ordersCollection, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DailyRevenue buckets orders by UTC calendar day, oldest first.
func (r *Reports) DailyRevenue(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]DaySales, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: salesMatch(restaurantID, from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id":     bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			"orders":  bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$totalAmount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	out := []DaySales{}
	if err := r.aggregate(ctx, ordersCollection, pipeline, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IngredientUsage adds up what the sold items consumed: recipe lines per
// product unit, plus extras that draw on an ingredient. Costs use each
// ingredient's current cost price.
func (r *Reports) IngredientUsage(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) ([]IngredientUsage, error) {
	ingredientGroup := func(quantity bson.M) bson.D {
		return bson.D{{Key: "$group", Value: bson.M{
			"_id":       "$ingredient._id",
			"name":      bson.M{"$first": "$ingredient.name"},
			"unit":      bson.M{"$first": "$ingredient.unit"},
			"costPrice": bson.M{"$first": "$ingredient.costPrice"},
			"quantity":  bson.M{"$sum": quantity},
		}}}
	}
	joinIngredient := func(localField string) []bson.D {
		return []bson.D{
			{{Key: "$lookup", Value: bson.M{
				"from":         ingredientsCollection,
				"localField":   localField,
				"foreignField": "_id",
				"as":           "ingredient",
			}}},
			{{Key: "$unwind", Value: "$ingredient"}},
		}
	}

	recipes := append(soldItems(restaurantID, from, to),
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         recipesCollection,
			"localField":   "items.productId",
			"foreignField": "productId",
			"as":           "recipe",
		}}},
		bson.D{{Key: "$unwind", Value: "$recipe"}},
	)
	recipes = append(recipes, joinIngredient("recipe.ingredientId")...)
	recipes = append(recipes, ingredientGroup(bson.M{"$multiply": bson.A{"$items.quantity", "$recipe.quantityUsed"}}))

	// order extras keep the extra id as hex text
	extras := append(soldItems(restaurantID, from, to),
		bson.D{{Key: "$unwind", Value: "$items.extras"}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"extraRef": bson.M{"$convert": bson.M{
				"input":   "$items.extras.extraId",
				"to":      "objectId",
				"onError": nil,
				"onNull":  nil,
			}},
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         extrasCollection,
			"localField":   "extraRef",
			"foreignField": "_id",
			"as":           "extra",
		}}},
		bson.D{{Key: "$unwind", Value: "$extra"}},
		bson.D{{Key: "$match", Value: bson.M{"extra.ingredientId": bson.M{"$ne": nil}}}},
	)
	extras = append(extras, joinIngredient("extra.ingredientId")...)
	extras = append(extras, ingredientGroup(bson.M{"$multiply": bson.A{"$items.quantity", "$items.extras.qty", "$extra.quantityUsed"}}))

	var fromRecipes, fromExtras []IngredientUsage
	if err := r.aggregate(ctx, ordersCollection, recipes, &fromRecipes); err != nil {
		return nil, err
	}
	if err := r.aggregate(ctx, ordersCollection, extras, &fromExtras); err != nil {
		return nil, err
	}
	return mergeUsage(fromRecipes, fromExtras), nil
}

// mergeUsage sums usage rows per ingredient, costliest first.
func mergeUsage(lists ...[]IngredientUsage) []IngredientUsage {
	index := map[primitive.ObjectID]int{}
	out := []IngredientUsage{}
	for _, list := range lists {
		for _, u := range list {
			if i, ok := index[u.IngredientID]; ok {
				out[i].Quantity += u.Quantity
				continue
			}
			index[u.IngredientID] = len(out)
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Quantity*out[i].CostPrice > out[j].Quantity*out[j].CostPrice
	})
	return out
}

// Revenue is the total of non-cancelled orders in the range.
func (r *Reports) Revenue(ctx context.Context, restaurantID primitive.ObjectID, from, to time.Time) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: salesMatch(restaurantID, from, to)}},
		{{Key: "$group", Value: bson.M{"_id": nil, "revenue": bson.M{"$sum": "$totalAmount"}}}},
	}
	var rows []struct {
		Revenue float64 `bson:"revenue"`
	}
	if err := r.aggregate(ctx, ordersCollection, pipeline, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Revenue, nil
}

// Ingredients lists the restaurant's stock ordered by category and name.
func (r *Reports) Ingredients(ctx context.Context, restaurantID primitive.ObjectID) ([]models.Ingredient, error) {
	opts := options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := r.db.Collection(ingredientsCollection).Find(ctx, bson.M{"restaurantId": restaurantID}, opts)
	if err != nil {
		return nil, err
	}
	out := []models.Ingredient{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
