package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/Rrens/trip-planner/internal/api/response"
	"github.com/Rrens/trip-planner/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// decode reads a JSON body into v and validates it, writing the error
// response itself. It reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}

	if err := validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			response.BadRequest(w, err.Error())
			return false
		}

		fields := make(map[string][]string)
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				fields[field] = append(fields[field], "This field is required.")
			case "email":
				fields[field] = append(fields[field], "Enter a valid email address.")
			case "min":
				fields[field] = append(fields[field], "Ensure this field has at least "+e.Param()+" characters.")
			case "max":
				fields[field] = append(fields[field], "Ensure this field has no more than "+e.Param()+" characters.")
			default:
				fields[field] = append(fields[field], "validation failed on "+e.Tag())
			}
		}
		response.Fields(w, http.StatusBadRequest, fields)
		return false
	}
	return true
}

// serviceError maps service errors onto HTTP statuses
func serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		response.Fields(w, http.StatusBadRequest, map[string][]string{
			"email": {"user with this email already exists."},
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(w, "No active account found with the given credentials")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(w, "Token is invalid or expired")
	case errors.Is(err, service.ErrNotFound):
		response.NotFound(w, "Not found.")
	case errors.Is(err, service.ErrConflict):
		response.Conflict(w, err.Error())
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		response.InternalError(w, "internal server error")
	}
}
