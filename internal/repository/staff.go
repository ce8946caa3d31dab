package repository

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cheffnex/internal/models"
)

type Staff struct {
	db *mongo.Database
}

func NewStaff(db *mongo.Database) *Staff {
	return &Staff{db: db}
}

func (s *Staff) ByEmail(ctx context.Context, email string) (models.Staff, error) {
	var member models.Staff
	err := s.db.Collection(staffCollection).
		FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).
		Decode(&member)
	return member, notFound(err)
}

func (s *Staff) List(ctx context.Context, restaurantID primitive.ObjectID, role string) ([]models.Staff, error) {
	filter := bson.M{"restaurantId": restaurantID}
	if role != "" {
		filter["role"] = role
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.db.Collection(staffCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	members := []models.Staff{}
	if err := cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Staff) Count(ctx context.Context, restaurantID primitive.ObjectID, role string) (int64, error) {
	return s.db.Collection(staffCollection).CountDocuments(ctx, bson.M{"restaurantId": restaurantID, "role": role})
}

func (s *Staff) Create(ctx context.Context, member *models.Staff) error {
	member.Email = strings.ToLower(strings.TrimSpace(member.Email))
	res, err := s.db.Collection(staffCollection).InsertOne(ctx, member)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		member.ID = id
	}
	return nil
}

// Delete removes a staff member with the given role. Owners are never
// removed through it.
func (s *Staff) Delete(ctx context.Context, restaurantID, id primitive.ObjectID, role string) error {
	res, err := s.db.Collection(staffCollection).DeleteOne(ctx, bson.M{
		"_id":          id,
		"restaurantId": restaurantID,
		"role":         role,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
