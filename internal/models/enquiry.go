package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EnquiryStatus tracks how far an enquiry has progressed. It only moves forward.
type EnquiryStatus string

const (
	EnquiryStatusSent    EnquiryStatus = "sent"
	EnquiryStatusRead    EnquiryStatus = "read"
	EnquiryStatusReplied EnquiryStatus = "replied"
)

func (s EnquiryStatus) rank() int {
	switch s {
	case EnquiryStatusSent:
		return 1
	case EnquiryStatusRead:
		return 2
	case EnquiryStatusReplied:
		return 3
	}
	return 0
}

// CanAdvanceTo reports whether moving from s to next is a forward transition.
func (s EnquiryStatus) CanAdvanceTo(next EnquiryStatus) bool {
	return next.rank() > s.rank() && s.rank() > 0
}

// StatusesBefore returns every status that may still advance to next.
func StatusesBefore(next EnquiryStatus) []EnquiryStatus {
	var out []EnquiryStatus
	for _, s := range []EnquiryStatus{EnquiryStatusSent, EnquiryStatusRead, EnquiryStatusReplied} {
		if s.CanAdvanceTo(next) {
			out = append(out, s)
		}
	}
	return out
}

// ConversationMessage is one entry of an enquiry thread.
type ConversationMessage struct {
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Enquiry is a contact thread from a user to the agent of a property.
// RecipientAgent is captured from the property when the enquiry is created and never re-derived.
type Enquiry struct {
	Base           `bson:",inline"`
	Property       primitive.ObjectID    `bson:"property" json:"property"`
	Sender         primitive.ObjectID    `bson:"sender" json:"sender"`
	RecipientAgent *primitive.ObjectID   `bson:"recipientAgent,omitempty" json:"recipientAgent,omitempty"`
	Message        string                `bson:"message" json:"message"`
	Status         EnquiryStatus         `bson:"status" json:"status"`
	Conversation   []ConversationMessage `bson:"conversation" json:"conversation"`
	ReadAt         *time.Time            `bson:"readAt,omitempty" json:"readAt,omitempty"`
	RepliedAt      *time.Time            `bson:"repliedAt,omitempty" json:"repliedAt,omitempty"`
	Deleted        bool                  `bson:"deleted" json:"-"` // Soft delete flag
}

// IsRecipient reports whether userID is the enquiry's recipient agent.
func (e *Enquiry) IsRecipient(userID primitive.ObjectID) bool {
	return e.RecipientAgent != nil && *e.RecipientAgent == userID
}

// EnquiryView is an enquiry with its references resolved for listing endpoints.
type EnquiryView struct {
	ID             primitive.ObjectID    `json:"id"`
	Property       *PropertySummary      `json:"property"`
	Sender         *UserContact          `json:"sender,omitempty"`
	RecipientAgent *UserContact          `json:"recipientAgent,omitempty"`
	Message        string                `json:"message"`
	Status         EnquiryStatus         `json:"status"`
	Conversation   []ConversationMessage `json:"conversation"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	ReadAt         *time.Time            `json:"readAt,omitempty"`
	RepliedAt      *time.Time            `json:"repliedAt,omitempty"`
}
