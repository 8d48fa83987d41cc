// Package storemock provides testify mocks of the store interfaces for service, task and handler tests.
package storemock

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greendrake/estates/internal/models"
	"greendrake/estates/internal/store"
)

type Users struct {
	mock.Mock
}

var _ store.IUserStore = (*Users)(nil)

func userOrNil(args mock.Arguments) *models.User {
	if u := args.Get(0); u != nil {
		return u.(*models.User)
	}
	return nil
}

// Create may be given a func(context.Context, *models.User) *models.User as its first return value.
func (m *Users) Create(ctx context.Context, user *models.User) (*models.User, error) {
	args := m.Called(ctx, user)
	if fn, ok := args.Get(0).(func(context.Context, *models.User) *models.User); ok {
		return fn(ctx, user), args.Error(1)
	}
	return userOrNil(args), args.Error(1)
}

func (m *Users) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args), args.Error(1)
}

func (m *Users) FindByIDWithPassword(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, id)
	return userOrNil(args), args.Error(1)
}

func (m *Users) FindByPhoneWithPassword(ctx context.Context, phone string) (*models.User, error) {
	args := m.Called(ctx, phone)
	return userOrNil(args), args.Error(1)
}

func (m *Users) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	args := m.Called(ctx, ids)
	if u := args.Get(0); u != nil {
		return u.([]models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Users) PhoneTaken(ctx context.Context, phone string, exceptID primitive.ObjectID) (bool, error) {
	args := m.Called(ctx, phone, exceptID)
	return args.Bool(0), args.Error(1)
}

func (m *Users) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, email string) (*models.User, error) {
	args := m.Called(ctx, id, name, email)
	return userOrNil(args), args.Error(1)
}

func (m *Users) UpdatePhone(ctx context.Context, id primitive.ObjectID, phone string) (*models.User, error) {
	args := m.Called(ctx, id, phone)
	return userOrNil(args), args.Error(1)
}

func (m *Users) AddSavedProperty(ctx context.Context, userID, propertyID primitive.ObjectID) (*models.User, error) {
	args := m.Called(ctx, userID, propertyID)
	return userOrNil(args), args.Error(1)
}

func (m *Users) RemoveSavedProperty(ctx context.Context, userID, propertyID primitive.ObjectID) (*models.User, bool, error) {
	args := m.Called(ctx, userID, propertyID)
	return userOrNil(args), args.Bool(1), args.Error(2)
}

type Properties struct {
	mock.Mock
}

var _ store.IPropertyStore = (*Properties)(nil)

func propertyOrNil(args mock.Arguments) *models.Property {
	if p := args.Get(0); p != nil {
		return p.(*models.Property)
	}
	return nil
}

func (m *Properties) Create(ctx context.Context, property *models.Property) (*models.Property, error) {
	args := m.Called(ctx, property)
	if fn, ok := args.Get(0).(func(context.Context, *models.Property) *models.Property); ok {
		return fn(ctx, property), args.Error(1)
	}
	return propertyOrNil(args), args.Error(1)
}

func (m *Properties) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	args := m.Called(ctx, id)
	return propertyOrNil(args), args.Error(1)
}

func (m *Properties) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Property, error) {
	args := m.Called(ctx, ids)
	if p := args.Get(0); p != nil {
		return p.([]models.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Properties) Search(ctx context.Context, q store.PropertyQuery) ([]models.Property, int64, error) {
	args := m.Called(ctx, q)
	var items []models.Property
	if p := args.Get(0); p != nil {
		items = p.([]models.Property)
	}
	return items, args.Get(1).(int64), args.Error(2)
}

func (m *Properties) Update(ctx context.Context, property *models.Property) (*models.Property, error) {
	args := m.Called(ctx, property)
	return propertyOrNil(args), args.Error(1)
}

func (m *Properties) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}

type Enquiries struct {
	mock.Mock
}

var _ store.IEnquiryStore = (*Enquiries)(nil)

func enquiryOrNil(args mock.Arguments) *models.Enquiry {
	if e := args.Get(0); e != nil {
		return e.(*models.Enquiry)
	}
	return nil
}

func enquiriesOrNil(args mock.Arguments) []models.Enquiry {
	if e := args.Get(0); e != nil {
		return e.([]models.Enquiry)
	}
	return nil
}

func (m *Enquiries) Create(ctx context.Context, enquiry *models.Enquiry) (*models.Enquiry, error) {
	args := m.Called(ctx, enquiry)
	if fn, ok := args.Get(0).(func(context.Context, *models.Enquiry) *models.Enquiry); ok {
		return fn(ctx, enquiry), args.Error(1)
	}
	return enquiryOrNil(args), args.Error(1)
}

func (m *Enquiries) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Enquiry, error) {
	args := m.Called(ctx, id)
	return enquiryOrNil(args), args.Error(1)
}

func (m *Enquiries) FindBySender(ctx context.Context, senderID primitive.ObjectID) ([]models.Enquiry, error) {
	args := m.Called(ctx, senderID)
	return enquiriesOrNil(args), args.Error(1)
}

func (m *Enquiries) FindByRecipient(ctx context.Context, agentID primitive.ObjectID) ([]models.Enquiry, error) {
	args := m.Called(ctx, agentID)
	return enquiriesOrNil(args), args.Error(1)
}

func (m *Enquiries) MarkRead(ctx context.Context, id primitive.ObjectID, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *Enquiries) AppendMessage(ctx context.Context, id primitive.ObjectID, msg models.ConversationMessage, markReplied bool) (*models.Enquiry, error) {
	args := m.Called(ctx, id, msg, markReplied)
	return enquiryOrNil(args), args.Error(1)
}

func (m *Enquiries) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	return m.Called(ctx, id).Error(0)
}
