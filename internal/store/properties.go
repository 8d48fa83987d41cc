package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greendrake/estates/internal/db"
	"greendrake/estates/internal/models"
)

const earthRadiusKm = 6378.1

// PropertyQuery holds the optional filters of a listing search. Zero values mean "any".
type PropertyQuery struct {
	ListingType   string
	PropertyTypes []string
	BedroomsMin   *int
	BedroomsMax   *int
	BathroomsMin  *int
	BathroomsMax  *int
	PriceMin      *float64
	PriceMax      *float64
	Keyword       string
	Agent         *primitive.ObjectID
	Available     *bool
	Near          *models.GeoJSON
	RadiusKm      float64
	Limit         int
	Page          int
}

// IPropertyStore persists listings. Soft-deleted listings are invisible to every read.
type IPropertyStore interface {
	Create(ctx context.Context, property *models.Property) (*models.Property, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Property, error)
	Search(ctx context.Context, q PropertyQuery) ([]models.Property, int64, error)
	Update(ctx context.Context, property *models.Property) (*models.Property, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

type propertyStore struct {
	coll *mongo.Collection
}

// NewPropertyStore creates a Mongo-backed property store.
func NewPropertyStore(database *mongo.Database) IPropertyStore {
	return &propertyStore{coll: database.Collection(db.PropertiesCollection)}
}

func (s *propertyStore) Create(ctx context.Context, property *models.Property) (*models.Property, error) {
	if property.Photos == nil {
		property.Photos = []string{}
	}
	return db.InsertOne(ctx, s.coll, property)
}

func (s *propertyStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	var property models.Property
	err := s.coll.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&property)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding property by ID %s: %w", id.Hex(), err)
	}
	return &property, nil
}

func (s *propertyStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Property, error) {
	properties := []models.Property{}
	if len(ids) == 0 {
		return properties, nil
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}, "deleted": false})
	if err != nil {
		return nil, fmt.Errorf("error finding properties: %w", err)
	}
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, fmt.Errorf("error decoding properties: %w", err)
	}
	return properties, nil
}

func rangeFilter[T int | float64](lo, hi *T) bson.M {
	r := bson.M{}
	if lo != nil {
		r["$gte"] = *lo
	}
	if hi != nil {
		r["$lte"] = *hi
	}
	return r
}

// buildPropertyFilter translates a query into a Mongo filter. The keyword is matched literally.
func buildPropertyFilter(q PropertyQuery) bson.M {
	filter := bson.M{"deleted": false}

	if q.ListingType != "" {
		filter["listingType"] = q.ListingType
	}
	if len(q.PropertyTypes) > 0 {
		filter["propertyType"] = bson.M{"$in": q.PropertyTypes}
	}
	if r := rangeFilter(q.BedroomsMin, q.BedroomsMax); len(r) > 0 {
		filter["bedrooms"] = r
	}
	if r := rangeFilter(q.BathroomsMin, q.BathroomsMax); len(r) > 0 {
		filter["bathrooms"] = r
	}
	if r := rangeFilter(q.PriceMin, q.PriceMax); len(r) > 0 {
		filter["price"] = r
	}
	if q.Agent != nil {
		filter["agent"] = *q.Agent
	}
	if q.Available != nil {
		filter["isAvailable"] = *q.Available
	}
	if q.Keyword != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(q.Keyword), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"location": re},
		}
	}
	if q.Near != nil && q.RadiusKm > 0 {
		filter["coordinates"] = bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{q.Near.Coordinates, q.RadiusKm / earthRadiusKm},
			},
		}
	}
	return filter
}

// Search returns one page of matching listings, newest first, and the total match count.
func (s *propertyStore) Search(ctx context.Context, q PropertyQuery) ([]models.Property, int64, error) {
	filter := buildPropertyFilter(q)

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("error counting properties: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(q.Limit)).
		SetSkip(int64((q.Page - 1) * q.Limit))

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("error searching properties: %w", err)
	}
	properties := []models.Property{}
	if err := cursor.All(ctx, &properties); err != nil {
		return nil, 0, fmt.Errorf("error decoding properties: %w", err)
	}
	return properties, total, nil
}

// Update writes every editable field of property. Ownership and timestamps of creation are untouched.
func (s *propertyStore) Update(ctx context.Context, property *models.Property) (*models.Property, error) {
	property.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"title":        property.Title,
		"description":  property.Description,
		"price":        property.Price,
		"currency":     property.Currency,
		"propertyType": property.PropertyType,
		"listingType":  property.ListingType,
		"bedrooms":     property.Bedrooms,
		"bathrooms":    property.Bathrooms,
		"livingRooms":  property.LivingRooms,
		"contactName":  property.ContactName,
		"location":     property.Location,
		"photos":       property.Photos,
		"isAvailable":  property.IsAvailable,
		"updatedAt":    property.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if property.Coordinates != nil {
		set["coordinates"] = property.Coordinates
	} else {
		update["$unset"] = bson.M{"coordinates": ""}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Property
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": property.ID, "deleted": false}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to update property %s: %w", property.ID.Hex(), err)
	}
	return &updated, nil
}

func (s *propertyStore) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete property %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
