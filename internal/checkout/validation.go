package checkout

import (
	"net/mail"
	"strings"

	"github.com/Zeinot/hajar-php-store-sub000/internal/domain"
)

// ValidateShipping trims d in place and returns every violation found, or nil.
func ValidateShipping(d *domain.ShippingDetails) *domain.ValidationError {
	for _, f := range []*string{
		&d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.Address,
		&d.City, &d.State, &d.PostalCode, &d.Country, &d.Notes,
	} {
		*f = strings.TrimSpace(*f)
	}

	verr := &domain.ValidationError{}
	required := []struct {
		field string
		value string
		label string
	}{
		{"first_name", d.FirstName, "First name"},
		{"last_name", d.LastName, "Last name"},
		{"email", d.Email, "Email"},
		{"phone", d.Phone, "Phone"},
		{"address", d.Address, "Address"},
		{"city", d.City, "City"},
		{"postal_code", d.PostalCode, "Postal code"},
		{"country", d.Country, "Country"},
	}
	for _, r := range required {
		if r.value == "" {
			verr.Add(r.field, r.label+" is required")
		}
	}

	if d.Email != "" && !validEmail(d.Email) {
		verr.Add("email", "Email is not a valid address")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}
