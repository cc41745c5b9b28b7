// Package families defines the three reconciled families (users, rooms,
// leases) on top of the generic reconcile engine, and binds each to its
// store repository and Stripe remote.
package families

import (
	"fmt"
	"strings"

	"github.com/ttacon/libphonenumber"

	"github.com/cohabs/stripesync/internal/billing"
	"github.com/cohabs/stripesync/internal/store"
	"github.com/cohabs/stripesync/pkg/constants"
	"github.com/cohabs/stripesync/pkg/reconcile"
)

// Family names in run order.
const (
	Users  = "users"
	Rooms  = "rooms"
	Leases = "leases"
)

// Names lists the family names in the order RunAll reconciles them.
var Names = []string{Users, Rooms, Leases}

// aliases maps the Stripe resource names to families.
var aliases = map[string]string{
	"users":         Users,
	"customers":     Users,
	"rooms":         Rooms,
	"products":      Rooms,
	"leases":        Leases,
	"subscriptions": Leases,
}

// Resolve returns the family name for a family or Stripe resource name.
func Resolve(name string) (string, bool) {
	f, ok := aliases[strings.ToLower(strings.TrimSpace(name))]
	return f, ok
}

// UserFamily is the users ↔ customers family. Every user is eligible.
func UserFamily() reconcile.Family[store.User, billing.CustomerPayload] {
	return reconcile.Family[store.User, billing.CustomerPayload]{
		Name:     Users,
		Entity:   "User",
		Resource: "Customer",
		Link:     func(u store.User) string { return u.StripeCustomerID },
		Payload:  CustomerPayload,
		Columns:  store.UserColumns,
		Row:      store.User.ReportRow,
	}
}

// CustomerPayload builds the customer created for u.
func CustomerPayload(u store.User) billing.CustomerPayload {
	description := constants.DefaultCustomerDescription
	if u.About != nil {
		description = *u.About
	}
	return billing.CustomerPayload{
		Description: description,
		Email:       u.Email,
		Name:        fmt.Sprintf("%s %s", u.FirstName, u.LastName),
		Phone:       NormalizePhone(u.PhoneNumber, constants.DefaultPhoneRegion),
		Metadata:    map[string]string{"cohabUserId": u.ID},
	}
}

// NormalizePhone formats a valid phone number as E.164. Numbers that cannot
// be parsed for region are returned trimmed but otherwise untouched.
func NormalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	num, err := libphonenumber.Parse(raw, region)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}

// RoomFamily is the rooms ↔ products family. A room needs its house and a
// readable rent.
func RoomFamily() reconcile.Family[store.Room, billing.ProductPayload] {
	return reconcile.Family[store.Room, billing.ProductPayload]{
		Name:     Rooms,
		Entity:   "Room",
		Resource: "Product",
		Validate: func(r store.Room) (bool, string) {
			return withAmount(reconcile.MissingLinks(
				reconcile.LinkCheck{Field: "houseId", Value: r.HouseID},
			))("rent", r.Rent)
		},
		Link:    func(r store.Room) string { return r.StripeProductID },
		Payload: ProductPayload,
		Columns: store.RoomColumns,
		Row:     store.Room.ReportRow,
	}
}

// ProductPayload builds the product created for r.
func ProductPayload(r store.Room) billing.ProductPayload {
	amount, _ := billing.Cents(r.Rent)
	return billing.ProductPayload{
		Name:        r.Location,
		Description: r.Description,
		Active:      true,
		UnitAmount:  amount,
		Metadata:    map[string]string{"cohabRoomId": r.ID},
	}
}

// LeaseFamily is the leases ↔ subscriptions family. A lease needs its house,
// the room's product, the tenant's customer, the tenant and a readable rent.
func LeaseFamily() reconcile.Family[store.Lease, billing.SubscriptionPayload] {
	return reconcile.Family[store.Lease, billing.SubscriptionPayload]{
		Name:     Leases,
		Entity:   "Lease",
		Resource: "Subscription",
		Validate: func(l store.Lease) (bool, string) {
			return withAmount(reconcile.MissingLinks(
				reconcile.LinkCheck{Field: "houseId", Value: l.HouseID},
				reconcile.LinkCheck{Field: "stripeProductId", Value: l.StripeProductID},
				reconcile.LinkCheck{Field: "stripeCustomerId", Value: l.StripeCustomerID},
				reconcile.LinkCheck{Field: "userId", Value: l.UserID},
			))("rentAmount", l.RentAmount)
		},
		Link:    func(l store.Lease) string { return l.StripeSubscriptionID },
		Payload: SubscriptionPayload,
		Columns: store.LeaseColumns,
		Row:     store.Lease.ReportRow,
	}
}

// SubscriptionPayload builds the subscription created for l.
func SubscriptionPayload(l store.Lease) billing.SubscriptionPayload {
	amount, _ := billing.Cents(l.RentAmount)
	return billing.SubscriptionPayload{
		Customer:   l.StripeCustomerID,
		Product:    l.StripeProductID,
		UnitAmount: amount,
		Metadata:   map[string]string{"cohabLeaseId": l.ID},
	}
}

// withAmount extends a link check with an amount check. An unreadable
// amount adds "Invalid <field>." to the message.
func withAmount(ok bool, msg string) func(field, amount string) (bool, string) {
	return func(field, amount string) (bool, string) {
		if _, err := billing.Cents(amount); err == nil {
			return ok, msg
		}
		invalid := "Invalid " + field + "."
		if msg == "" {
			return false, invalid
		}
		return false, msg + " " + invalid
	}
}
