package model

import (
	"strings"

	"github.com/google/uuid"
)

// MinimumCustomerAge is the youngest age a customer may have
const MinimumCustomerAge = 18

// CreateCustomerRequest is the payload for registering a customer.
// A nil ID asks the bank to assign one.
type CreateCustomerRequest struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Age     int       `json:"age"`
	Address string    `json:"address"`
}

// Validate checks if the registration request is valid
func (r CreateCustomerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrNameRequired
	}
	if r.Age < MinimumCustomerAge {
		return ErrUnderage
	}
	return nil
}
