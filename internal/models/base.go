package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IBase is implemented by every document stored through db.InsertOne.
type IBase interface {
	GenIDIfEmpty()
	GenID()
	GetID() primitive.ObjectID
	Touch(now time.Time)
}

type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (m *Base) GenIDIfEmpty() {
	if m.ID.IsZero() {
		m.GenID()
	}
}

func (m *Base) GenID() {
	m.ID = primitive.NewObjectID()
}

func (m *Base) GetID() primitive.ObjectID {
	return m.ID
}

// Touch stamps UpdatedAt and, for new documents, CreatedAt.
func (m *Base) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// ParseID converts a hex string into an ObjectID.
func ParseID(hex string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(hex)
}
