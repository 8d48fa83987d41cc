package validation

// Registration is a self-service sign-up. Admins are provisioned out of band.
type Registration struct {
	Name        string `json:"name" validate:"required,max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Email       string `json:"email" validate:"omitempty,email"`
	Password    string `json:"password" validate:"required,min=6,max=72"`
	Role        string `json:"role" validate:"omitempty,oneof=user agent"`
}

type Login struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

// Profile is the editable part of a user after an update has been applied.
type Profile struct {
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
}

type PhoneChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPhoneNumber  string `json:"newPhoneNumber" validate:"required,phone"`
}

type Point struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// Property is a listing as it will be stored.
type Property struct {
	Title        string   `json:"title" validate:"required,max=100"`
	Description  string   `json:"description" validate:"max=5000"`
	Price        float64  `json:"price" validate:"gte=0"`
	Currency     string   `json:"currency" validate:"required,len=3"`
	PropertyType string   `json:"propertyType" validate:"required,oneof=House Apartment Land Commercial Office"`
	ListingType  string   `json:"listingType" validate:"required,oneof='For Sale' 'For Rent'"`
	Bedrooms     int      `json:"bedrooms" validate:"gte=0"`
	Bathrooms    int      `json:"bathrooms" validate:"gte=0"`
	LivingRooms  int      `json:"livingRooms" validate:"gte=0"`
	ContactName  string   `json:"contactName" validate:"required,max=100"`
	Location     string   `json:"location" validate:"required,max=200"`
	Coordinates  *Point   `json:"coordinates"`
	Photos       []string `json:"photos" validate:"max=30,dive,url"`
}

type Enquiry struct {
	PropertyID string `json:"propertyId" validate:"required"`
	Message    string `json:"message" validate:"required,max=500"`
}

type Message struct {
	Text string `json:"text" validate:"required,max=500"`
}

func ValidateRegistration(r Registration) error { return Struct(r) }
func ValidateLogin(l Login) error               { return Struct(l) }
func ValidateProfile(p Profile) error           { return Struct(p) }
func ValidatePhoneChange(p PhoneChange) error   { return Struct(p) }
func ValidateProperty(p Property) error         { return Struct(p) }
func ValidateEnquiry(e Enquiry) error           { return Struct(e) }
func ValidateMessage(m Message) error           { return Struct(m) }
