package trip

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding saved itineraries.
const CollectionName = "itineraries"

// MongoRepository is a MongoDB implementation of Repository.
type MongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a repository backed by the itineraries
// collection of db.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the index used by List.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "userId", Value: 1},
			{Key: "createdAt", Value: -1},
			{Key: "_id", Value: -1},
		},
		Options: options.Index().SetName("user_created"),
	})
	if err != nil {
		return fmt.Errorf("creating itinerary index: %w", err)
	}
	return nil
}

// Get retrieves an itinerary by ID.
func (r *MongoRepository) Get(ctx context.Context, id string) (*SavedItinerary, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByUserAndID retrieves an itinerary owned by userID.
func (r *MongoRepository) GetByUserAndID(ctx context.Context, userID, id string) (*SavedItinerary, error) {
	return r.findOne(ctx, bson.M{"_id": id, "userId": userID})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*SavedItinerary, error) {
	var it SavedItinerary
	if err := r.coll.FindOne(ctx, filter).Decode(&it); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &it, nil
}

// List retrieves a user's itineraries, newest first.
func (r *MongoRepository) List(ctx context.Context, userID string, opts ListOptions) (*ListResult, error) {
	limit := listLimit(opts)

	filter := bson.M{"userId": userID}
	if opts.Cursor != "" {
		last, err := r.Get(ctx, opts.Cursor)
		if err != nil && !errors.Is(err, ErrTripNotFound) {
			return nil, err
		}
		if last != nil {
			filter["$or"] = bson.A{
				bson.M{"createdAt": bson.M{"$lt": last.CreatedAt}},
				bson.M{"createdAt": last.CreatedAt, "_id": bson.M{"$lt": last.ID}},
			}
		}
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit + 1))

	cur, err := r.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	var items []*SavedItinerary
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}

	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.NextCursor = items[limit-1].ID
	}
	return result, nil
}

// Create inserts a new itinerary.
func (r *MongoRepository) Create(ctx context.Context, it *SavedItinerary) error {
	_, err := r.coll.InsertOne(ctx, it)
	return err
}

// Update updates the editable fields of an itinerary. originalDays is never written.
func (r *MongoRepository) Update(ctx context.Context, it *SavedItinerary) error {
	update := bson.M{"$set": bson.M{
		"name":           it.Name,
		"description":    it.Description,
		"date":           it.Date,
		"normalizedDate": it.NormalizedDate,
		"days":           it.Days,
		"metadata":       it.Metadata,
		"updatedAt":      it.UpdatedAt,
	}}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": it.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTripNotFound
	}
	return nil
}

// Delete deletes an itinerary by ID.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Ensure MongoRepository implements Repository interface.
var _ Repository = (*MongoRepository)(nil)
