package customer

import (
	"strings"
	"time"

	"github.com/vasiliy-maslov/storefront/internal/user"
)

type Customer struct {
	ID         int64      `json:"id" db:"id"`
	UserID     int64      `json:"user_id" db:"user_id"`
	User       *user.User `json:"-" db:"-"`
	Name       string     `json:"name" db:"name"`
	Phone      string     `json:"phone,omitempty" db:"phone"`
	Address    string     `json:"address,omitempty" db:"address"`
	City       string     `json:"city,omitempty" db:"city"`
	PostalCode string     `json:"postal_code,omitempty" db:"postal_code"`
	Country    string     `json:"country,omitempty" db:"country"`
	Birthday   *time.Time `json:"birthday,omitempty" db:"birthday"`
	Gender     string     `json:"gender,omitempty" db:"gender"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

func New(u *user.User, name string) *Customer {
	c := &Customer{Name: name, User: u}
	if u != nil {
		c.UserID = u.ID
	}
	return c
}

// FullAddress joins the populated address parts as
// "address, city postalCode, country".
func (c *Customer) FullAddress() string {
	var b strings.Builder
	if c.Address != "" {
		b.WriteString(c.Address)
	}
	if c.City != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.City)
	}
	if c.PostalCode != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(c.PostalCode)
	}
	if c.Country != "" {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Country)
	}
	return b.String()
}

// Username is empty when the user relation is not loaded.
func (c *Customer) Username() string {
	if c.User == nil {
		return ""
	}
	return c.User.Username
}
