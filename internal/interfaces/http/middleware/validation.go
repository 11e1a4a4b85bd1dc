package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

var (
	skuPattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,99}$`)
	setupValidate sync.Once
)

// SetupValidator teaches gin's validator the store conventions: errors name
// fields by their json (or form) key, decimal.Decimal validates as a float
// and the "sku" tag checks product codes.
func SetupValidator() {
	setupValidate.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldKey)
		v.RegisterCustomTypeFunc(func(field reflect.Value) any {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}
			return nil
		}, decimal.Decimal{})
		_ = v.RegisterValidation("sku", func(fl validator.FieldLevel) bool {
			return skuPattern.MatchString(fl.Field().String())
		})
	})
}

func fieldKey(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
		switch name {
		case "-":
			return ""
		case "":
			continue
		default:
			return name
		}
	}
	return ""
}

// ValidationDetails converts binding errors into per-field details. It
// returns nil when err is not a validator error (malformed JSON, wrong types).
func ValidationDetails(err error) []dto.ValidationDetail {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)}
	}
	return details
}

// HandleValidationError writes a 400 validation response for a binding error
func HandleValidationError(c *gin.Context, err error) {
	message := "Request validation failed"
	details := ValidationDetails(err)
	if details == nil {
		message = "Invalid request body: " + err.Error()
	}
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(message, GetRequestID(c), details))
}

var fixedMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"uuid":     "Invalid UUID format",
	"url":      "Invalid URL format",
	"iso4217":  "Must be an ISO 4217 currency code",
	"dive":     "Invalid list entry",
	"numeric":  "Must be numeric",
	"alphanum": "Must be alphanumeric",
	"alpha":    "Must contain only letters",
	"sku":      "Must be a SKU of letters, digits, dot, dash or underscore",
}

var paramMessages = map[string]string{
	"oneof":    "Must be one of: ",
	"gte":      "Must be greater than or equal to ",
	"lte":      "Must be less than or equal to ",
	"gt":       "Must be greater than ",
	"lt":       "Must be less than ",
	"datetime": "Must match the format ",
}

func describe(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}
	if prefix, ok := paramMessages[fe.Tag()]; ok {
		return prefix + fe.Param()
	}
	chars := ""
	if fe.Kind() == reflect.String {
		chars = " characters"
	}
	switch fe.Tag() {
	case "min":
		return "Must be at least " + fe.Param() + chars
	case "max":
		return "Must be at most " + fe.Param() + chars
	case "len":
		return "Must be exactly " + fe.Param() + " characters"
	}
	return "Invalid value"
}
