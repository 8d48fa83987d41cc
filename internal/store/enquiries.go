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

// IEnquiryStore persists enquiries. Status changes are conditional single-document updates
// so the status never moves backwards.
type IEnquiryStore interface {
	Create(ctx context.Context, enquiry *models.Enquiry) (*models.Enquiry, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Enquiry, error)
	FindBySender(ctx context.Context, senderID primitive.ObjectID) ([]models.Enquiry, error)
	FindByRecipient(ctx context.Context, agentID primitive.ObjectID) ([]models.Enquiry, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error)
	AppendMessage(ctx context.Context, id primitive.ObjectID, msg models.ConversationMessage, markReplied bool) (*models.Enquiry, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

type enquiryStore struct {
	coll *mongo.Collection
}

// NewEnquiryStore creates a Mongo-backed enquiry store.
func NewEnquiryStore(database *mongo.Database) IEnquiryStore {
	return &enquiryStore{coll: database.Collection(db.EnquiriesCollection)}
}

func (s *enquiryStore) Create(ctx context.Context, enquiry *models.Enquiry) (*models.Enquiry, error) {
	if enquiry.Conversation == nil {
		enquiry.Conversation = []models.ConversationMessage{}
	}
	return db.InsertOne(ctx, s.coll, enquiry)
}

func (s *enquiryStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Enquiry, error) {
	var enquiry models.Enquiry
	if err := s.coll.FindOne(ctx, bson.M{"_id": id, "deleted": false}).Decode(&enquiry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("error finding enquiry by ID %s: %w", id.Hex(), err)
	}
	return &enquiry, nil
}

func (s *enquiryStore) find(ctx context.Context, filter bson.M) ([]models.Enquiry, error) {
	filter["deleted"] = false
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding enquiries: %w", err)
	}
	enquiries := []models.Enquiry{}
	if err := cursor.All(ctx, &enquiries); err != nil {
		return nil, fmt.Errorf("error decoding enquiries: %w", err)
	}
	return enquiries, nil
}

func (s *enquiryStore) FindBySender(ctx context.Context, senderID primitive.ObjectID) ([]models.Enquiry, error) {
	return s.find(ctx, bson.M{"sender": senderID})
}

func (s *enquiryStore) FindByRecipient(ctx context.Context, agentID primitive.ObjectID) ([]models.Enquiry, error) {
	return s.find(ctx, bson.M{"recipientAgent": agentID})
}

// MarkRead moves a sent enquiry to read. It reports false when the enquiry was already past sent.
func (s *enquiryStore) MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false, "status": bson.M{"$in": models.StatusesBefore(models.EnquiryStatusRead)}},
		bson.M{"$set": bson.M{"status": models.EnquiryStatusRead, "readAt": at, "updatedAt": at}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to mark enquiry %s as read: %w", id.Hex(), err)
	}
	return res.ModifiedCount > 0, nil
}

// AppendMessage pushes msg onto the conversation. With markReplied the status advances to replied
// in the same write unless it already is.
func (s *enquiryStore) AppendMessage(ctx context.Context, id primitive.ObjectID, msg models.ConversationMessage, markReplied bool) (*models.Enquiry, error) {
	set := bson.D{
		{Key: "conversation", Value: bson.M{"$concatArrays": bson.A{
			bson.M{"$ifNull": bson.A{"$conversation", bson.A{}}},
			bson.A{bson.M{"$literal": msg}},
		}}},
		{Key: "updatedAt", Value: msg.CreatedAt},
	}
	if markReplied {
		advance := bson.M{"$in": bson.A{"$status", models.StatusesBefore(models.EnquiryStatusReplied)}}
		set = append(set,
			bson.E{Key: "repliedAt", Value: bson.M{"$cond": bson.A{advance, msg.CreatedAt, "$repliedAt"}}},
			bson.E{Key: "status", Value: bson.M{"$cond": bson.A{advance, models.EnquiryStatusReplied, "$status"}}},
		)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var enquiry models.Enquiry
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "deleted": false},
		mongo.Pipeline{{{Key: "$set", Value: set}}},
		opts,
	).Decode(&enquiry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, mongo.ErrNoDocuments
		}
		return nil, fmt.Errorf("failed to append message to enquiry %s: %w", id.Hex(), err)
	}
	return &enquiry, nil
}

func (s *enquiryStore) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": id, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("failed to delete enquiry %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
