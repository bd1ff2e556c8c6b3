// Package handler implements the HTTP endpoints of the coach API.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// writeError maps a service error to its HTTP status
func writeError(w http.ResponseWriter, err error) {
	var upstream *domain.UpstreamError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case errors.Is(err, domain.ErrNoFrames), errors.Is(err, domain.ErrMediaDecode):
		response.UnprocessableEntity(w, err.Error())
	case errors.Is(err, domain.ErrNotConfigured):
		response.ServiceUnavailable(w, err.Error())
	case errors.As(err, &upstream):
		response.BadGateway(w, err.Error())
	default:
		log.Error().Err(err).Msg("Request failed")
		response.InternalError(w, err.Error())
	}
}

// decodeAndValidate reads a JSON body into v and validates it. It writes
// the 400 response itself and reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "invalid request body")
		return false
	}
	if err := validate.Struct(v); err != nil {
		response.BadRequest(w, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		switch e.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, e.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s", field, e.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", field, e.Param()))
		default:
			msgs = append(msgs, field+" failed on "+e.Tag())
		}
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}
