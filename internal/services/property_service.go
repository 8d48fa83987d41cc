package services

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"greendrake/estates/internal/config"
	"greendrake/estates/internal/models"
	"greendrake/estates/internal/policy"
	"greendrake/estates/internal/store"
	"greendrake/estates/internal/validation"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
	// MaxPage keeps the skip offset well inside int range.
	MaxPage = 100000
)

type PropertyQuery = store.PropertyQuery

// PropertyPage is one page of a listing search.
type PropertyPage struct {
	Items []models.Property `json:"items"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Total int64             `json:"total"`
}

// PropertyInput is a new listing. IsAvailable defaults to true and Currency to the configured default.
type PropertyInput struct {
	validation.Property
	IsAvailable *bool `json:"isAvailable"`
}

// PropertyPatch is a partial listing update; nil fields are left unchanged.
type PropertyPatch struct {
	Title        *string           `json:"title"`
	Description  *string           `json:"description"`
	Price        *float64          `json:"price"`
	Currency     *string           `json:"currency"`
	PropertyType *string           `json:"propertyType"`
	ListingType  *string           `json:"listingType"`
	Bedrooms     *int              `json:"bedrooms"`
	Bathrooms    *int              `json:"bathrooms"`
	LivingRooms  *int              `json:"livingRooms"`
	ContactName  *string           `json:"contactName"`
	Location     *string           `json:"location"`
	Coordinates  *validation.Point `json:"coordinates"`
	Photos       []string          `json:"photos"`
	IsAvailable  *bool             `json:"isAvailable"`
}

type IPropertyService interface {
	List(ctx context.Context, q PropertyQuery) (*PropertyPage, error)
	Create(ctx context.Context, actor *policy.Actor, in PropertyInput) (*models.Property, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Property, error)
	Update(ctx context.Context, actor *policy.Actor, id primitive.ObjectID, patch PropertyPatch) (*models.Property, error)
	Delete(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) error
}

type propertyService struct {
	properties store.IPropertyStore
	cfg        *config.Config
	logger     *zap.Logger
}

func NewPropertyService(properties store.IPropertyStore, cfg *config.Config, logger *zap.Logger) IPropertyService {
	return &propertyService{properties: properties, cfg: cfg, logger: logger}
}

func (s *propertyService) List(ctx context.Context, q PropertyQuery) (*PropertyPage, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultPageLimit
	}
	if q.Limit > MaxPageLimit {
		q.Limit = MaxPageLimit
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Page > MaxPage {
		return nil, validation.Errors{{Field: "page", Message: fmt.Sprintf("page must be at most %d", MaxPage)}}
	}
	q.Keyword = strings.TrimSpace(q.Keyword)

	items, total, err := s.properties.Search(ctx, q)
	if err != nil {
		return nil, err
	}
	return &PropertyPage{Items: items, Page: q.Page, Limit: q.Limit, Total: total}, nil
}

func normalizeProperty(p *validation.Property) {
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.ContactName = strings.TrimSpace(p.ContactName)
	p.Location = strings.TrimSpace(p.Location)
}

func pointOf(p *validation.Point) *models.GeoJSON {
	if p == nil {
		return nil
	}
	return models.NewPoint(p.Lat, p.Lng)
}

// apply copies validated fields onto the stored document.
func apply(dst *models.Property, src validation.Property) {
	dst.Title = src.Title
	dst.Description = src.Description
	dst.Price = src.Price
	dst.Currency = src.Currency
	dst.PropertyType = models.PropertyType(src.PropertyType)
	dst.ListingType = models.ListingType(src.ListingType)
	dst.Bedrooms = src.Bedrooms
	dst.Bathrooms = src.Bathrooms
	dst.LivingRooms = src.LivingRooms
	dst.ContactName = src.ContactName
	dst.Location = src.Location
	dst.Coordinates = pointOf(src.Coordinates)
	dst.Photos = src.Photos
	if dst.Photos == nil {
		dst.Photos = []string{}
	}
}

// Create stores a listing. Anonymous callers create unowned listings; an agent or admin becomes the owner.
func (s *propertyService) Create(ctx context.Context, actor *policy.Actor, in PropertyInput) (*models.Property, error) {
	if d := policy.CanCreateProperty(actor); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}

	normalizeProperty(&in.Property)
	if in.Currency == "" {
		in.Currency = s.cfg.DefaultCurrency
	}
	if err := validation.ValidateProperty(in.Property); err != nil {
		return nil, err
	}

	property := &models.Property{IsAvailable: true}
	apply(property, in.Property)
	if in.IsAvailable != nil {
		property.IsAvailable = *in.IsAvailable
	}
	if actor != nil {
		owner := actor.ID
		property.Agent = &owner
	}

	created, err := s.properties.Create(ctx, property)
	if err != nil {
		return nil, err
	}
	s.logger.Info("property created", zap.String("property", created.ID.Hex()))
	return created, nil
}

func (s *propertyService) Get(ctx context.Context, id primitive.ObjectID) (*models.Property, error) {
	property, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return property, nil
}

func (s *propertyService) owned(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) (*models.Property, error) {
	property, err := s.properties.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if d := policy.CanModifyProperty(actor, property); !d.Allowed {
		return nil, &ForbiddenError{Reason: d.Reason}
	}
	return property, nil
}

func (s *propertyService) Update(ctx context.Context, actor *policy.Actor, id primitive.ObjectID, patch PropertyPatch) (*models.Property, error) {
	property, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	merged := validation.Property{
		Title:        property.Title,
		Description:  property.Description,
		Price:        property.Price,
		Currency:     property.Currency,
		PropertyType: string(property.PropertyType),
		ListingType:  string(property.ListingType),
		Bedrooms:     property.Bedrooms,
		Bathrooms:    property.Bathrooms,
		LivingRooms:  property.LivingRooms,
		ContactName:  property.ContactName,
		Location:     property.Location,
		Photos:       property.Photos,
	}
	if c := property.Coordinates; c != nil && len(c.Coordinates) == 2 {
		merged.Coordinates = &validation.Point{Lng: c.Coordinates[0], Lat: c.Coordinates[1]}
	}
	patch.applyTo(&merged)
	normalizeProperty(&merged)
	if err := validation.ValidateProperty(merged); err != nil {
		return nil, err
	}

	apply(property, merged)
	if patch.IsAvailable != nil {
		property.IsAvailable = *patch.IsAvailable
	}
	updated, err := s.properties.Update(ctx, property)
	if err != nil {
		return nil, notFound(err)
	}
	return updated, nil
}

func (p PropertyPatch) applyTo(dst *validation.Property) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Price != nil {
		dst.Price = *p.Price
	}
	if p.Currency != nil {
		dst.Currency = *p.Currency
	}
	if p.PropertyType != nil {
		dst.PropertyType = *p.PropertyType
	}
	if p.ListingType != nil {
		dst.ListingType = *p.ListingType
	}
	if p.Bedrooms != nil {
		dst.Bedrooms = *p.Bedrooms
	}
	if p.Bathrooms != nil {
		dst.Bathrooms = *p.Bathrooms
	}
	if p.LivingRooms != nil {
		dst.LivingRooms = *p.LivingRooms
	}
	if p.ContactName != nil {
		dst.ContactName = *p.ContactName
	}
	if p.Location != nil {
		dst.Location = *p.Location
	}
	if p.Coordinates != nil {
		dst.Coordinates = p.Coordinates
	}
	if p.Photos != nil {
		dst.Photos = p.Photos
	}
}

func (s *propertyService) Delete(ctx context.Context, actor *policy.Actor, id primitive.ObjectID) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	if err := s.properties.SoftDelete(ctx, id); err != nil {
		return notFound(err)
	}
	s.logger.Info("property deleted", zap.String("property", id.Hex()), zap.String("by", actor.ID.Hex()))
	return nil
}
