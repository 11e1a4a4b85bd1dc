package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Address is a postal address attached to orders, shipments and payment methods
type Address struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Company    string `json:"company,omitempty"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	Zone       string `json:"zone,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Normalize trims surrounding whitespace from every field and upper-cases the country code
func (a Address) Normalize() Address {
	return Address{
		FirstName:  strings.TrimSpace(a.FirstName),
		LastName:   strings.TrimSpace(a.LastName),
		Company:    strings.TrimSpace(a.Company),
		Street1:    strings.TrimSpace(a.Street1),
		Street2:    strings.TrimSpace(a.Street2),
		City:       strings.TrimSpace(a.City),
		Zone:       strings.TrimSpace(a.Zone),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.ToUpper(strings.TrimSpace(a.Country)),
		Phone:      strings.TrimSpace(a.Phone),
		Email:      strings.TrimSpace(a.Email),
	}
}

// IsEmpty returns true if no addressing field is set
func (a Address) IsEmpty() bool {
	return a.FirstName == "" && a.LastName == "" && a.Company == "" &&
		a.Street1 == "" && a.Street2 == "" && a.City == "" &&
		a.Zone == "" && a.PostalCode == "" && a.Country == ""
}

// FullName returns first and last name separated by a space
func (a Address) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// Lines returns the printable address lines, skipping empty ones.
// Lines are upper-cased as postal services expect.
func (a Address) Lines() []string {
	locality := strings.TrimSpace(strings.Join(nonEmpty(a.City, a.Zone, a.PostalCode), " "))
	candidates := []string{a.FullName(), a.Company, a.Street1, a.Street2, locality, a.Country}

	lines := make([]string, 0, len(candidates))
	for _, l := range candidates {
		if l == "" {
			continue
		}
		lines = append(lines, strings.ToUpper(l))
	}
	return lines
}

// String returns the multi-line postal representation
func (a Address) String() string {
	return strings.Join(a.Lines(), "\n")
}

// Equals compares every field
func (a Address) Equals(other Address) bool {
	return a == other
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Value implements driver.Valuer for database storage
func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for database retrieval
func (a *Address) Scan(value any) error {
	if value == nil {
		*a = Address{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Address", value)
	}
	if len(data) == 0 {
		*a = Address{}
		return nil
	}
	return json.Unmarshal(data, a)
}
