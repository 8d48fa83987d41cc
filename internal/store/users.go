package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"greendrake/estates/internal/db"
	"greendrake/estates/internal/models"
)

// IUserStore persists users. Lookups without "WithPassword" never load the password hash.
type IUserStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByIDWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByPhoneWithPassword(ctx context.Context, phone string) (*models.User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	PhoneTaken(ctx context.Context, phone string, exceptID primitive.ObjectID) (bool, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, name, email string) (*models.User, error)
	UpdatePhone(ctx context.Context, id primitive.ObjectID, phone string) (*models.User, error)
	AddSavedProperty(ctx context.Context, userID, propertyID primitive.ObjectID) (*models.User, error)
	RemoveSavedProperty(ctx context.Context, userID, propertyID primitive.ObjectID) (*models.User, bool, error)
}

type userStore struct {
	coll *mongo.Collection
}

// NewUserStore creates a Mongo-backed user store.
func NewUserStore(database *mongo.Database) IUserStore {
	return &userStore{coll: database.Collection(db.UsersCollection)}
}

var withoutPassword = bson.M{"password": 0}

func (s *userStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.SavedProperties == nil {
		user.SavedProperties = []primitive.ObjectID{}
	}
	return db.InsertOne(ctx, s.coll, user)
}

func (s *userStore) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.User, error) {
	var user models.User
	if err := s.coll.FindOne(ctx, filter, opts...).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return &user, nil
}

func (s *userStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(withoutPassword))
}

func (s *userStore) FindByIDWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *userStore) FindByPhoneWithPassword(ctx context.Context, phone string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"phoneNumber": phone})
}

func (s *userStore) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	users := []models.User{}
	if len(ids) == 0 {
		return users, nil
	}
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find().SetProjection(withoutPassword))
	if err != nil {
		return nil, fmt.Errorf("error finding users: %w", err)
	}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("error decoding users: %w", err)
	}
	return users, nil
}

func (s *userStore) PhoneTaken(ctx context.Context, phone string, exceptID primitive.ObjectID) (bool, error) {
	filter := bson.M{"phoneNumber": phone}
	if !exceptID.IsZero() {
		filter["_id"] = bson.M{"$ne": exceptID}
	}
	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("error checking phone number: %w", err)
	}
	return n > 0, nil
}

func (s *userStore) updateOne(ctx context.Context, filter, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After).SetProjection(withoutPassword)
	var user models.User
	if err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return &user, nil
}

// UpdateProfile sets name and email; an empty email removes the field.
func (s *userStore) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, email string) (*models.User, error) {
	set := bson.M{"name": name, "updatedAt": time.Now().UTC()}
	update := bson.M{"$set": set}
	if email == "" {
		update["$unset"] = bson.M{"email": ""}
	} else {
		set["email"] = email
	}
	return s.updateOne(ctx, bson.M{"_id": id}, update)
}

func (s *userStore) UpdatePhone(ctx context.Context, id primitive.ObjectID, phone string) (*models.User, error) {
	return s.updateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"phoneNumber": phone, "updatedAt": time.Now().UTC()}})
}

func (s *userStore) AddSavedProperty(ctx context.Context, userID, propertyID primitive.ObjectID) (*models.User, error) {
	return s.updateOne(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"savedProperties": propertyID}})
}

// RemoveSavedProperty pulls propertyID only if present. The bool reports whether it was.
func (s *userStore) RemoveSavedProperty(ctx context.Context, userID, propertyID primitive.ObjectID) (*models.User, bool, error) {
	user, err := s.updateOne(ctx,
		bson.M{"_id": userID, "savedProperties": propertyID},
		bson.M{"$pull": bson.M{"savedProperties": propertyID}},
	)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}
