package main

import (
	"encoding/json"
	"net/http"
	"regexp"

	"barangay/internal/params"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

var phPhone = regexp.MustCompile(`^09[0-9]{9}$`)

// init runs before main and sets up the shared validator.
func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Philippine mobile numbers, e.g. 09171234567
	Validate.RegisterValidation("phphone", func(fl validator.FieldLevel) bool {
		return phPhone.MatchString(fl.Field().String())
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// readJSON decodes a request body of at most 1MB into data.
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1_048_578 //1mb
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	type envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	}

	return writeJSON(w, status, &envelope{
		Success: false,
		Message: message,
		Status:  status,
	})
}

func (app *application) jsonResponse(w http.ResponseWriter, status int, data any) error {
	type envelope struct {
		Data any `json:"data"`
	}
	return writeJSON(w, status, &envelope{Data: data})
}

// PaginatedResponse is the data payload of every list endpoint.
type PaginatedResponse[T any] struct {
	Items      []T               `json:"items"`
	Pagination params.Pagination `json:"pagination"`
}

func paginated[T any](items []T, p params.Pagination, total int) PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}
	p.ComputeMeta(total)
	return PaginatedResponse[T]{Items: items, Pagination: p}
}
