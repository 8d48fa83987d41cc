package handlers_test

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greendrake/estates/internal/api/middleware"
	"greendrake/estates/internal/geocode"
	"greendrake/estates/internal/models"
	"greendrake/estates/internal/policy"
	"greendrake/estates/internal/services"
	"greendrake/estates/internal/validation"
)

// MockAuthService implements services.IAuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) authResult(args mock.Arguments) (*services.AuthResult, error) {
	if r := args.Get(0); r != nil {
		return r.(*services.AuthResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) user(args mock.Arguments) (*models.User, error) {
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAuthService) Register(ctx context.Context, in validation.Registration) (*services.AuthResult, error) {
	return m.authResult(m.Called(ctx, in))
}
func (m *MockAuthService) Login(ctx context.Context, in validation.Login) (*services.AuthResult, error) {
	return m.authResult(m.Called(ctx, in))
}
func (m *MockAuthService) Me(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	return m.user(m.Called(ctx, userID))
}
func (m *MockAuthService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, upd services.ProfileUpdate) (*models.User, error) {
	return m.user(m.Called(ctx, userID, upd))
}
func (m *MockAuthService) ChangePhone(ctx context.Context, userID primitive.ObjectID, in validation.PhoneChange) (*services.AuthResult, error) {
	return m.authResult(m.Called(ctx, userID, in))
}
func (m *MockAuthService) ToggleSavedProperty(ctx context.Context, userID, propertyID primitive.ObjectID) (*services.SavedToggleResult, error) {
	args := m.Called(ctx, userID, propertyID)
	if r := args.Get(0); r != nil {
		return r.(*services.SavedToggleResult), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockAuthService) ListSavedProperties(ctx context.Context, userID primitive.ObjectID) ([]models.Property, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.([]models.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockPropertyService implements services.IPropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) property(args mock.Arguments) (*models.Property, error) {
	if p := args.Get(0); p != nil {
		return p.(*models.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPropertyService) List(ctx context.Context, q services.PropertyQuery) (*services.PropertyPage, error) {
	args := m.Called(ctx, q)
	if p := args.Get(0); p != nil {
		return p.(*services.PropertyPage), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockPropertyService) Create(ctx context.Context, actor *policy.Actor, in services.PropertyInput) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, in))
}
func (m *MockPropertyService) Get(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	return m.property(m.Called(ctx, id))
}
func (m *MockPropertyService) Update(ctx context.Context, actor *policy.Actor, id primitive.ObjectID, patch services.PropertyPatch) (*models.Property, error) {
	return m.property(m.Called(ctx, actor, id, patch))
}
func (m *MockPropertyService) Delete(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockEnquiryService implements services.IEnquiryService
type MockEnquiryService struct {
	mock.Mock
}

func (m *MockEnquiryService) enquiry(args mock.Arguments) (*models.Enquiry, error) {
	if e := args.Get(0); e != nil {
		return e.(*models.Enquiry), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnquiryService) views(args mock.Arguments) ([]models.EnquiryView, error) {
	if v := args.Get(0); v != nil {
		return v.([]models.EnquiryView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockEnquiryService) Create(ctx context.Context, actor *policy.Actor, in validation.Enquiry) (*models.Enquiry, error) {
	return m.enquiry(m.Called(ctx, actor, in))
}
func (m *MockEnquiryService) ListSent(ctx context.Context, actor *policy.Actor) ([]models.EnquiryView, error) {
	return m.views(m.Called(ctx, actor))
}
func (m *MockEnquiryService) ListReceived(ctx context.Context, actor *policy.Actor) ([]models.EnquiryView, error) {
	return m.views(m.Called(ctx, actor))
}
func (m *MockEnquiryService) Get(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) (*models.EnquiryView, error) {
	args := m.Called(ctx, actor, id)
	if v := args.Get(0); v != nil {
		return v.(*models.EnquiryView), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockEnquiryService) MarkRead(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) (*models.Enquiry, error) {
	return m.enquiry(m.Called(ctx, actor, id))
}
func (m *MockEnquiryService) AppendMessage(ctx context.Context, actor *policy.Actor, id primitive.ObjectID, in validation.Message) (*models.Enquiry, error) {
	return m.enquiry(m.Called(ctx, actor, id, in))
}
func (m *MockEnquiryService) Delete(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockMediaService implements services.IMediaService
type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) Upload(ctx context.Context, in services.UploadInput) (*services.UploadResult, error) {
	args := m.Called(ctx, in)
	if r := args.Get(0); r != nil {
		return r.(*services.UploadResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockGeocoder implements geocode.IGeocoder
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Search(ctx context.Context, query string) ([]geocode.Place, error) {
	args := m.Called(ctx, query)
	if r := args.Get(0); r != nil {
		return r.([]geocode.Place), args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *MockGeocoder) Reverse(ctx context.Context, lat, lng float64) (*geocode.Place, error) {
	args := m.Called(ctx, lat, lng)
	if r := args.Get(0); r != nil {
		return r.(*geocode.Place), args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	_ services.IAuthService     = (*MockAuthService)(nil)
	_ services.IPropertyService = (*MockPropertyService)(nil)
	_ services.IEnquiryService  = (*MockEnquiryService)(nil)
	_ services.IMediaService    = (*MockMediaService)(nil)
	_ geocode.IGeocoder         = (*MockGeocoder)(nil)
)

// as stands in for middleware.Auth in handler tests.
func as(actor *policy.Actor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor != nil {
			c.Set(middleware.ContextKeyActor, actor)
		}
		c.Next()
	}
}
