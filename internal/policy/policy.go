// Package policy answers "may this identity do that?" for every protected capability.
package policy

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"greendrake/estates/internal/models"
)

// Actor is the authenticated identity a decision is made for.
type Actor struct {
	ID   primitive.ObjectID
	Role models.Role
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == models.RoleAdmin
}

// Decision is the result of a capability check. Reason is set when access is denied.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// HasRole allows actors whose role is in roles.
func HasRole(a *Actor, roles ...models.Role) Decision {
	if a == nil {
		return deny("Authentication required")
	}
	for _, r := range roles {
		if a.Role == r {
			return allow()
		}
	}
	return deny("Insufficient role")
}

// CanReceiveEnquiries restricts the received-enquiries inbox to agents.
func CanReceiveEnquiries(a *Actor) Decision {
	if d := HasRole(a, models.RoleAgent); !d.Allowed {
		return deny("Only agents can view received enquiries")
	}
	return allow()
}

// CanCreateProperty allows guests (unowned listing), agents and admins. Plain users cannot own listings.
func CanCreateProperty(a *Actor) Decision {
	if a == nil || a.Role == models.RoleAgent || a.Role == models.RoleAdmin {
		return allow()
	}
	return deny("Only agents can create listings")
}

// CanModifyProperty allows the owning agent or an admin.
func CanModifyProperty(a *Actor, p *models.Property) Decision {
	if a == nil {
		return deny("Authentication required")
	}
	if a.IsAdmin() || p.OwnedBy(a.ID) {
		return allow()
	}
	return deny("Only the owning agent can modify this listing")
}

func isParticipant(a *Actor, e *models.Enquiry) bool {
	return e.Sender == a.ID || e.IsRecipient(a.ID)
}

// CanViewEnquiry allows the sender, the recipient agent or an admin.
func CanViewEnquiry(a *Actor, e *models.Enquiry) Decision {
	if a == nil {
		return deny("Authentication required")
	}
	if a.IsAdmin() || isParticipant(a, e) {
		return allow()
	}
	return deny("Not a participant of this enquiry")
}

// CanAppendToEnquiry allows the sender, the recipient agent or an admin.
func CanAppendToEnquiry(a *Actor, e *models.Enquiry) Decision {
	return CanViewEnquiry(a, e)
}

// CanDeleteEnquiry allows the sender, the recipient agent or an admin.
func CanDeleteEnquiry(a *Actor, e *models.Enquiry) Decision {
	return CanViewEnquiry(a, e)
}

// CanMarkEnquiryRead allows only the recipient agent.
func CanMarkEnquiryRead(a *Actor, e *models.Enquiry) Decision {
	if a == nil {
		return deny("Authentication required")
	}
	if e.IsRecipient(a.ID) {
		return allow()
	}
	return deny("Only the recipient agent can mark this enquiry as read")
}
