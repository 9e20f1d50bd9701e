package client

import (
	"github.com/poolstack/poolstack/internal/types"
)

// Client represents a serviced customer account, typically a household
// or property with one or more pools.
type Client struct {
	// ID is the unique identifier for the client
	ID string `db:"id" json:"id"`

	// Name is the display name of the client
	Name string `db:"name" json:"name"`

	// Email is the billing email for the client
	Email string `db:"email" json:"email"`

	// Phone is the contact phone number
	Phone string `db:"phone" json:"phone"`

	// AddressLine1 is the first line of the service address
	AddressLine1 string `db:"address_line1" json:"address_line1"`

	// AddressLine2 is the second line of the service address
	AddressLine2 string `db:"address_line2" json:"address_line2"`

	// AddressCity is the city of the service address
	AddressCity string `db:"address_city" json:"address_city"`

	// AddressState is the state of the service address
	AddressState string `db:"address_state" json:"address_state"`

	// AddressPostalCode is the postal code of the service address
	AddressPostalCode string `db:"address_postal_code" json:"address_postal_code"`

	// Notes holds free-form internal notes about the client
	Notes string `db:"notes" json:"notes"`

	types.BaseModel
}
