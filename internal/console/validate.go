package console

import (
	"strings"

	"spendwise/internal/core"
)

var (
	ErrFormItemName = &core.ValidationError{Field: "itemName", Message: "Item name cannot be empty"}
	ErrFormAmount   = &core.ValidationError{Field: "amount", Message: "Amount must be a positive number"}
)

// ValidateForm checks the form before anything is sent. The server repeats
// the same checks and stays authoritative.
func ValidateForm(itemName, amount string) (string, core.Amount, error) {
	name := strings.TrimSpace(itemName)
	if name == "" {
		return "", core.Amount{}, ErrFormItemName
	}
	a, err := core.ParseAmount(amount)
	if err != nil {
		return "", core.Amount{}, ErrFormAmount
	}
	return name, a, nil
}
