package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/HSouheill/catalog_backend/common"
	"github.com/HSouheill/catalog_backend/models"
	"github.com/go-playground/validator/v10"
)

// CustomValidator is the echo validator.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator builds a validator that reports json field names and knows
// the catalog enum tags.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("attrtype", func(fl validator.FieldLevel) bool {
		return models.AttributeType(fl.Field().String()).Valid()
	})
	variantType := func(fl validator.FieldLevel) bool {
		return models.VariantType(strings.ToLower(strings.TrimSpace(fl.Field().String()))).Valid()
	}
	_ = v.RegisterValidation("varianttype", variantType)
	_ = v.RegisterValidation("optionsettype", variantType)
	return &CustomValidator{validator: v}
}

// Validate validates the request body and returns a common Validation error
// listing every failing field.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.Validation("invalid request body", nil)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe.Namespace())] = describe(fe)
	}
	return common.Validation("invalid request body", fields)
}

// fieldPath drops the root struct name: "CreateCategoryRequest.attributes[0].name"
// becomes "attributes[0].name".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "unique":
		return "must not contain duplicates"
	case "attrtype":
		return "must be one of text, select, multiselect, number, boolean"
	case "optionsettype", "varianttype":
		return "must be one of color, size"
	default:
		return "is invalid"
	}
}
