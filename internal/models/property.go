package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PropertyType is the category of a listing.
type PropertyType string

const (
	PropertyTypeHouse      PropertyType = "House"
	PropertyTypeApartment  PropertyType = "Apartment"
	PropertyTypeLand       PropertyType = "Land"
	PropertyTypeCommercial PropertyType = "Commercial"
	PropertyTypeOffice     PropertyType = "Office"
)

var PropertyTypes = []PropertyType{
	PropertyTypeHouse, PropertyTypeApartment, PropertyTypeLand, PropertyTypeCommercial, PropertyTypeOffice,
}

// ListingType is whether the property is offered for sale or for rent.
type ListingType string

const (
	ListingTypeSale ListingType = "For Sale"
	ListingTypeRent ListingType = "For Rent"
)

var ListingTypes = []ListingType{ListingTypeSale, ListingTypeRent}

// GeoJSON represents a GeoJSON Point for MongoDB.
type GeoJSON struct {
	Type        string    `bson:"type" json:"type"`               // Always "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// NewPoint builds a GeoJSON point from a latitude/longitude pair.
func NewPoint(lat, lng float64) *GeoJSON {
	return &GeoJSON{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Property represents a real-estate listing.
type Property struct {
	Base         `bson:",inline"`
	Title        string              `bson:"title" json:"title"`
	Description  string              `bson:"description" json:"description"`
	Price        float64             `bson:"price" json:"price"`
	Currency     string              `bson:"currency" json:"currency"`
	PropertyType PropertyType        `bson:"propertyType" json:"propertyType"`
	ListingType  ListingType         `bson:"listingType" json:"listingType"`
	Bedrooms     int                 `bson:"bedrooms" json:"bedrooms"`
	Bathrooms    int                 `bson:"bathrooms" json:"bathrooms"`
	LivingRooms  int                 `bson:"livingRooms" json:"livingRooms"`
	ContactName  string              `bson:"contactName" json:"contactName"`
	Location     string              `bson:"location" json:"location"`
	Coordinates  *GeoJSON            `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Photos       []string            `bson:"photos" json:"photos"`
	Agent        *primitive.ObjectID `bson:"agent,omitempty" json:"agent,omitempty"`
	IsAvailable  bool                `bson:"isAvailable" json:"isAvailable"`
	Deleted      bool                `bson:"deleted" json:"-"` // Soft delete flag
}

// OwnedBy reports whether the given user is the owning agent.
func (p *Property) OwnedBy(userID primitive.ObjectID) bool {
	return p.Agent != nil && *p.Agent == userID
}

// PropertySummary is the subset of a property embedded in enquiry views.
type PropertySummary struct {
	ID       primitive.ObjectID `json:"id"`
	Title    string             `json:"title"`
	Location string             `json:"location"`
	Photos   []string           `json:"photos"`
}

func (p *Property) Summary() *PropertySummary {
	if p == nil {
		return nil
	}
	return &PropertySummary{ID: p.ID, Title: p.Title, Location: p.Location, Photos: p.Photos}
}
