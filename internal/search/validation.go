package search

import (
	"errors"
	"reflect"
	"strings"

	"shopsearch-be/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct turns the first failed rule into a validation error.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return apperror.Validation("%s: %s", field, validationMessage(fe))
	}
	return apperror.Validation("%v", err)
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "min":
		return "must have at least " + e.Param() + " item(s)"
	case "iso3166_1_alpha2":
		return "must be an ISO 3166-1 alpha-2 country code"
	default:
		return "is invalid"
	}
}

func prepareRequest(req Request, defaultScope string) (Request, error) {
	req.Query = strings.TrimSpace(req.Query)
	req.Scope = strings.ToLower(strings.TrimSpace(req.Scope))
	if req.Scope == "" {
		req.Scope = defaultScope
	}
	req.ShipsTo = strings.ToUpper(strings.TrimSpace(req.ShipsTo))
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}

	if err := validateStruct(req); err != nil {
		return req, err
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return req, apperror.Validation("min_price must not exceed max_price")
	}
	return req, nil
}

func prepareDetailRequest(req DetailRequest) (DetailRequest, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Scope = strings.ToLower(strings.TrimSpace(req.Scope))
	if req.Scope == "" {
		req.Scope = ScopeGlobal
	}
	if err := validateStruct(req); err != nil {
		return req, err
	}
	return req, nil
}
