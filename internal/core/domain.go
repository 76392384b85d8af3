package core

import (
	"errors"
	"time"
)

type (
	// Expense is a persisted row of the expenses table.
	Expense struct {
		ID        int64     `json:"id"`
		ItemName  string    `json:"item_name"`
		Amount    Amount    `json:"amount"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Draft is a validated expense that has not been stored yet.
	Draft struct {
		ItemName string
		Amount   Amount
	}
)

// ValidationError is a client input error. Message is safe to show to end users.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrItemNameRequired = &ValidationError{Field: "itemName", Message: "Item name is required and cannot be empty"}
	ErrAmountRequired   = &ValidationError{Field: "amount", Message: "Amount is required"}
	ErrAmountInvalid    = &ValidationError{Field: "amount", Message: "Amount must be a positive number"}
	ErrInvalidID        = &ValidationError{Field: "id", Message: "Invalid expense ID"}
)

// IsValidation reports whether err is a client input error.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
