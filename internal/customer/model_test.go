package customer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/storefront/internal/customer"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

func TestCustomer_FullAddress(t *testing.T) {
	tests := []struct {
		name     string
		customer customer.Customer
		want     string
	}{
		{
			name:     "all_parts",
			customer: customer.Customer{Address: "1 Main St", City: "Springfield", PostalCode: "00000", Country: "USA"},
			want:     "1 Main St, Springfield 00000, USA",
		},
		{
			name:     "no_country",
			customer: customer.Customer{Address: "1 Main St", City: "Springfield", PostalCode: "00000"},
			want:     "1 Main St, Springfield 00000",
		},
		{
			name:     "no_city",
			customer: customer.Customer{Address: "1 Main St", PostalCode: "00000", Country: "USA"},
			want:     "1 Main St 00000, USA",
		},
		{
			name:     "only_country",
			customer: customer.Customer{Country: "USA"},
			want:     "USA",
		},
		{
			name:     "city_and_postal_code",
			customer: customer.Customer{City: "Springfield", PostalCode: "00000"},
			want:     "Springfield 00000",
		},
		{
			name:     "empty",
			customer: customer.Customer{},
			want:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.customer.FullAddress())
		})
	}
}

func TestCustomer_New(t *testing.T) {
	u := user.New("erin", "", "hash")
	u.ID = 4

	c := customer.New(u, "Erin")
	assert.Equal(t, int64(4), c.UserID)
	assert.Equal(t, "erin", c.Username())

	orphan := customer.New(nil, "Nobody")
	assert.Zero(t, orphan.UserID)
	assert.Equal(t, "", orphan.Username())
}
