// Package http provides HTTP server and handler implementations.
//
// This file implements parsing of the create-expense request body. Fields are
// kept raw until the domain layer validates them so that type mistakes map to
// the same messages as missing values.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxBodyBytes = 1 << 20

// ErrInvalidBody is returned when the request body is not a JSON object.
var ErrInvalidBody = errors.New("invalid request body")

// CreateExpenseRequest is the loosely typed create payload.
type CreateExpenseRequest struct {
	// ItemName is empty when the field is absent or not a JSON string.
	ItemName string
	// Amount is nil when the field is absent or null. Numbers keep their
	// literal text; strings are unquoted.
	Amount *string
}

// ParseCreateExpense reads the request body. An empty body counts as {}.
func ParseCreateExpense(w http.ResponseWriter, r *http.Request) (CreateExpenseRequest, error) {
	var req CreateExpenseRequest

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return req, ErrInvalidBody
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return req, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return req, ErrInvalidBody
	}

	if raw, ok := fields["itemName"]; ok {
		var name string
		if json.Unmarshal(raw, &name) == nil {
			req.ItemName = name
		}
	}

	if raw, ok := fields["amount"]; ok {
		req.Amount = rawAmount(raw)
	}
	return req, nil
}

func rawAmount(raw json.RawMessage) *string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return &s
		}
	}
	s := string(raw)
	return &s
}
