package serverutils

import (
	"github.com/go-playground/validator/v10"
)

// ErrorBody is the error envelope for every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

func ErrorResponse(message string) ErrorBody {
	return ErrorBody{Error: message}
}

var validate = validator.New()

// ValidateRequest validates a request DTO against its `validate` tags.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}
