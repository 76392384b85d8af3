package core

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// draftInput mirrors the create request after normalization. Field order is
// the order in which failures are reported.
type draftInput struct {
	ItemName string  `validate:"required"`
	Amount   *string `validate:"required,amount"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		_, err := ParseAmount(fl.Field().String())
		return err == nil
	})
	return v
}

// NewDraft validates raw create input. A nil amount means the field was absent
// or null. Checks run in a fixed order and the first failure wins:
// item name, amount presence, amount format.
func NewDraft(itemName string, amount *string) (Draft, error) {
	in := draftInput{
		ItemName: strings.TrimSpace(itemName),
		Amount:   amount,
	}
	if err := validate.Struct(in); err != nil {
		return Draft{}, translate(err)
	}

	parsed, err := ParseAmount(*in.Amount)
	if err != nil {
		return Draft{}, err
	}
	return Draft{ItemName: in.ItemName, Amount: parsed}, nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	first := verrs[0]
	switch first.StructField() {
	case "ItemName":
		return ErrItemNameRequired
	case "Amount":
		if first.Tag() == "required" {
			return ErrAmountRequired
		}
		return ErrAmountInvalid
	}
	return err
}

// ParseID parses a path id. Only plain base-10 integers greater than zero pass.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
