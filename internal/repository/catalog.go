package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cheffnex/internal/models"
	"cheffnex/internal/money"
)

// Catalog reads the menu side of a restaurant.
type Catalog struct {
	db *mongo.Database
}

func NewCatalog(db *mongo.Database) *Catalog {
	return &Catalog{db: db}
}

func (c *Catalog) Restaurant(ctx context.Context, id primitive.ObjectID) (models.Restaurant, error) {
	var r models.Restaurant
	err := c.db.Collection(restaurantsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	return r, notFound(err)
}

// RestaurantForProduct finds the restaurant that sells productID.
func (c *Catalog) RestaurantForProduct(ctx context.Context, productID primitive.ObjectID) (models.Restaurant, error) {
	p, err := c.Product(ctx, productID)
	if err != nil {
		return models.Restaurant{}, err
	}
	return c.Restaurant(ctx, p.RestaurantID)
}

func (c *Catalog) Categories(ctx context.Context, restaurantID primitive.ObjectID) ([]models.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "displayOrder", Value: 1}, {Key: "name", Value: 1}})
	cursor, err := c.db.Collection(categoriesCollection).Find(ctx, bson.M{"restaurantId": restaurantID}, opts)
	if err != nil {
		return nil, err
	}
	categories := []models.Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

type ProductFilter struct {
	CategoryID *primitive.ObjectID
	ActiveOnly bool
}

func (c *Catalog) Products(ctx context.Context, restaurantID primitive.ObjectID, f ProductFilter) ([]models.Product, error) {
	filter := bson.M{"restaurantId": restaurantID}
	if f.CategoryID != nil {
		filter["categoryId"] = *f.CategoryID
	}
	if f.ActiveOnly {
		filter["isActive"] = true
	}
	return c.findProducts(ctx, filter)
}

func (c *Catalog) Product(ctx context.Context, id primitive.ObjectID) (models.Product, error) {
	var p models.Product
	if err := c.db.Collection(productsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Product{}, notFound(err)
	}
	p.IsOnPromo = money.IsOnPromo(p.SellPrice, p.PromoPrice)
	return p, nil
}

// Removables lists the names of ingredients the customer may leave out.
func (c *Catalog) Removables(ctx context.Context, productID primitive.ObjectID) ([]string, error) {
	cursor, err := c.db.Collection(recipesCollection).Find(ctx, bson.M{"productId": productID, "canRemove": true})
	if err != nil {
		return nil, err
	}
	var recipes []models.Recipe
	if err := cursor.All(ctx, &recipes); err != nil {
		return nil, err
	}
	if len(recipes) == 0 {
		return []string{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.IngredientID)
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err = c.db.Collection(ingredientsCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	var ingredients []models.Ingredient
	if err := cursor.All(ctx, &ingredients); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		names = append(names, ing.Name)
	}
	return names, nil
}

// Extras returns the active add-ons of a product.
func (c *Catalog) Extras(ctx context.Context, productID primitive.ObjectID) ([]models.Extra, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := c.db.Collection(extrasCollection).Find(ctx, bson.M{"productId": productID, "isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	extras := []models.Extra{}
	if err := cursor.All(ctx, &extras); err != nil {
		return nil, err
	}
	return extras, nil
}

func (c *Catalog) Extra(ctx context.Context, id primitive.ObjectID) (models.Extra, error) {
	var e models.Extra
	err := c.db.Collection(extrasCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&e)
	return e, notFound(err)
}

// CrossSellRules returns the suggestions triggered by categoryID in display order.
func (c *Catalog) CrossSellRules(ctx context.Context, categoryID primitive.ObjectID) ([]models.CrossSellRule, error) {
	opts := options.Find().SetSort(bson.D{{Key: "displayOrder", Value: 1}})
	cursor, err := c.db.Collection(crossSellCollection).Find(ctx, bson.M{"triggerCategoryId": categoryID}, opts)
	if err != nil {
		return nil, err
	}
	rules := []models.CrossSellRule{}
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func (c *Catalog) ProductsInCategories(ctx context.Context, categoryIDs []primitive.ObjectID) ([]models.Product, error) {
	if len(categoryIDs) == 0 {
		return []models.Product{}, nil
	}
	return c.findProducts(ctx, bson.M{"categoryId": bson.M{"$in": categoryIDs}, "isActive": true})
}

func (c *Catalog) findProducts(ctx context.Context, filter bson.M) ([]models.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := c.db.Collection(productsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	for i := range products {
		products[i].IsOnPromo = money.IsOnPromo(products[i].SellPrice, products[i].PromoPrice)
	}
	return products, nil
}
