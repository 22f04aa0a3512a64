package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names ("max_tokens") instead of Go names ("MaxTokens").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateRequest checks a ChatRequest for validity. It returns an *APIError
// describing the first validation failure, or nil if the request is valid.
func ValidateRequest(req *ChatRequest) *APIError {
	if req == nil {
		return NewInvalidRequestError("", CodeInvalidJSON, "request body is required")
	}

	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewInvalidRequestError("", CodeInvalidValue, err.Error())
	}
	return fieldError(verrs[0])
}

// fieldError converts a single validator failure into an APIError. The param
// is the JSON path below the request root, e.g. "messages[0].role".
func fieldError(fe validator.FieldError) *APIError {
	param := fe.Namespace()
	if i := strings.IndexByte(param, '.'); i >= 0 {
		param = param[i+1:]
	}

	switch fe.Tag() {
	case "required":
		if fe.Field() == "messages" {
			return NewInvalidRequestError(param, CodeMissingField, "messages must contain at least one message")
		}
		return NewInvalidRequestError(param, CodeMissingField, param+" is required")
	case "min":
		return NewInvalidRequestError(param, CodeInvalidValue, "messages must contain at least one message")
	case "oneof":
		return NewInvalidRequestError(param, CodeInvalidValue,
			fmt.Sprintf("invalid role %q: must be one of system, user, assistant", fe.Value()))
	case "gte", "lte":
		return NewInvalidRequestError(param, CodeInvalidValue,
			fmt.Sprintf("%s must be between %s", param, rangeFor(param)))
	case "gt":
		return NewInvalidRequestError(param, CodeInvalidValue, param+" must be positive")
	case "eq":
		return NewInvalidRequestError(param, CodeInvalidValue, param+" must be 1")
	default:
		return NewInvalidRequestError(param, CodeInvalidValue, param+" is invalid")
	}
}

func rangeFor(param string) string {
	switch param {
	case "temperature":
		return "0.0 and 2.0"
	case "top_p":
		return "0.0 and 1.0"
	}
	return "its allowed bounds"
}
