package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role defines what a user may do.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RoleUser, RoleAgent, RoleAdmin}

func (r Role) Valid() bool {
	for _, v := range Roles {
		if r == v {
			return true
		}
	}
	return false
}

// User represents an account. PasswordHash is only loaded when a caller asks for it.
type User struct {
	Base            `bson:",inline"`
	Name            string               `bson:"name" json:"name"`
	Email           string               `bson:"email,omitempty" json:"email,omitempty"`
	PhoneNumber     string               `bson:"phoneNumber" json:"phoneNumber"`
	PasswordHash    string               `bson:"password,omitempty" json:"-"`
	Role            Role                 `bson:"role" json:"role"`
	SavedProperties []primitive.ObjectID `bson:"savedProperties" json:"savedProperties"`
}

// UserContact is the public subset of a user embedded in enquiry views.
type UserContact struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	PhoneNumber string             `json:"phoneNumber"`
	Email       string             `json:"email,omitempty"`
}

func (u *User) Contact() *UserContact {
	if u == nil {
		return nil
	}
	return &UserContact{ID: u.ID, Name: u.Name, PhoneNumber: u.PhoneNumber, Email: u.Email}
}
