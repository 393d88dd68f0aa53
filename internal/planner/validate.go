package planner

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/go-playground/validator/v10"
)

// newValidator reports fields by their wire names
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

func invalidInput(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.NewError(domain.KindInvalidInput, err.Error(), nil)
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, e.Field()+" is required")
		case "email":
			msgs = append(msgs, e.Field()+" must be a valid email")
		case "min":
			msgs = append(msgs, e.Field()+" must be at least "+e.Param()+" characters")
		default:
			msgs = append(msgs, e.Field()+" failed "+e.Tag())
		}
	}
	sort.Strings(msgs)
	return domain.NewError(domain.KindInvalidInput, strings.Join(msgs, "; "), nil)
}
